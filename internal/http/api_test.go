package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JeffyMesquita/habit-tracker-api/internal/auth"
	"github.com/JeffyMesquita/habit-tracker-api/internal/metrics"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/sqlite"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

var fixedNow = time.Date(2025, 5, 14, 15, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
	now     time.Time
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	manager := auth.NewManager("secret")
	manager.Cost = bcrypt.MinCost
	m := metrics.New()
	logger := log.New(io.Discard)

	ts := &testServer{t: t, now: fixedNow}
	svc := service.New(store, manager, nil, m, logger)
	svc.SetClock(func() time.Time { return ts.now })

	api := &API{Service: svc, Auth: manager, Metrics: m, Log: logger, Origins: []string{"http://app.test"}}
	ts.handler = api.Router()
	return ts
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[errorResponse](t, rec).Error.Code
}

func (ts *testServer) login() {
	ts.t.Helper()
	rec := ts.do("POST", "/auth/register", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do("POST", "/auth/login", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	ts.token = decode[loginResponse](ts.t, rec).AccessToken
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = ts.do("GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `habits_http_request_duration_seconds_count{method="GET",route="/health",status="200"} 1`)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = ts.do("POST", "/auth/register", map[string]string{"email": "bad", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	ts.login()

	rec = ts.do("POST", "/auth/register", map[string]string{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do("POST", "/auth/login", map[string]string{"email": "a@b.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = ts.do("GET", "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "a@b.com", me["email"])
	assert.NotContains(t, me, "PasswordHash")

	ts.now = fixedNow.Add(2 * time.Hour)
	rec = ts.do("GET", "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestInvalidPayload(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	req := httptest.NewRequest("POST", "/habits", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rec))

	rec = ts.do("GET", "/habits/x/progress?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestHabitLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do("POST", "/habits", map[string]any{"title": "Read", "frequency": 2, "week_days": []int{3}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	habit := decode[map[string]any](t, rec)
	id := habit["id"].(string)

	rec = ts.do("POST", "/habits", map[string]any{"title": "Read"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))

	rec = ts.do("GET", "/habits?day=2025-05-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]any](t, rec)["habits"])

	rec = ts.do("GET", "/habits?today=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]any](t, rec)["habits"], 1)

	rec = ts.do("PUT", "/habits/"+id, map[string]any{"title": "Read more"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Read more", decode[map[string]any](t, rec)["title"])

	for _, d := range []string{"2025-05-13", "2025-05-14"} {
		rec = ts.do("POST", "/habits/"+id+"/progress", map[string]any{"date": d, "completed_count": 2})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Progress struct {
			Date           string `json:"date"`
			CompletedCount int    `json:"completed_count"`
		} `json:"progress"`
		Streak struct {
			CurrentStreak int `json:"current_streak"`
		} `json:"streak"`
	}](t, rec)
	assert.Equal(t, 2, res.Progress.CompletedCount)
	assert.Equal(t, 2, res.Streak.CurrentStreak)

	rec = ts.do("POST", "/habits/"+id+"/progress", map[string]any{"date": "2025-05-20"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do("GET", "/habits/"+id+"/progress?start=2025-05-13&end=2025-05-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hp := decode[struct {
		Statistics struct {
			CompletionRate float64 `json:"completion_rate"`
		} `json:"statistics"`
	}](t, rec)
	assert.Equal(t, 100.0, hp.Statistics.CompletionRate)

	rec = ts.do("DELETE", "/habits/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do("GET", "/habits/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestGoalEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	body := map[string]any{"goal_type": "monthly_target", "target_value": 2, "start_date": "2025-05-14", "end_date": "2025-05-31"}
	rec := ts.do("POST", "/goals", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]any](t, rec)["id"].(string)

	rec = ts.do("POST", "/goals", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do("POST", "/goals", map[string]any{"goal_type": "monthly_target", "target_value": 2, "start_date": "2025-05-01", "end_date": "2025-05-02"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do("GET", "/goals/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", decode[map[string]any](t, rec)["status"])

	rec = ts.do("GET", "/goals?status=active&sort_by=priority&sort_order=desc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]any](t, rec)["goals"], 1)

	rec = ts.do("GET", "/goals?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do("PUT", "/goals/"+id, map[string]any{"priority": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, decode[map[string]any](t, rec)["priority"])

	rec = ts.do("POST", "/goals/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do("POST", "/goals/"+id+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do("DELETE", "/goals/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do("GET", "/goals/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAchievementEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do("POST", "/achievements", map[string]any{"achievement_type": "habits_completed_10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONDITIONS_NOT_MET", errorCode(t, rec))

	rec = ts.do("POST", "/achievements", map[string]any{"achievement_type": "early_adopter", "description": "joined early"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	unlocked := decode[map[string]any](t, rec)
	id := unlocked["id"].(string)
	assert.NotEmpty(t, unlocked["metadata"])

	rec = ts.do("POST", "/achievements", map[string]any{"achievement_type": "early_adopter"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do("GET", "/achievements/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "joined early", decode[map[string]any](t, rec)["details"].(map[string]any)["description"])

	rec = ts.do("GET", "/achievements?achievement_type=early_adopter&end_date=2025-05-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]any](t, rec)["achievements"], 1)

	rec = ts.do("GET", "/achievements/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total_unlocked"])
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do("POST", "/habits", map[string]any{"title": "Read"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"].(string)
	rec = ts.do("POST", "/habits/"+id+"/progress", map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do("GET", "/analytics/dashboard?period=week&trends=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[map[string]any](t, rec)
	assert.Contains(t, d, "habit_details")
	assert.Contains(t, d, "trends")
	assert.EqualValues(t, 1, d["summary"].(map[string]any)["total_progress"])

	rec = ts.do("GET", "/analytics/dashboard?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do("GET", "/analytics/streaks?type=current&active_only=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	streaks := decode[struct {
		Streaks []struct {
			CurrentStreak int `json:"current_streak"`
		} `json:"streaks"`
	}](t, rec)
	require.Len(t, streaks.Streaks, 1)
	assert.Equal(t, 1, streaks.Streaks[0].CurrentStreak)

	rec = ts.do("GET", "/analytics/streaks?active_only=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/habits", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("OPTIONS", "/habits", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
