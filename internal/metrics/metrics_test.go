package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingMethods(t *testing.T) {
	m := New()
	m.CompletionRecorded()
	m.CompletionRecorded()
	m.GoalCompleted("weekly_streak")
	m.AchievementUnlocked("habit_streak_7")

	expected := `
# HELP habits_completions_recorded_total Completion records written.
# TYPE habits_completions_recorded_total counter
habits_completions_recorded_total 2
# HELP habits_goals_completed_total Goals marked completed by goal type.
# TYPE habits_goals_completed_total counter
habits_goals_completed_total{goal_type="weekly_streak"} 1
# HELP habits_achievements_unlocked_total Achievements unlocked by type.
# TYPE habits_achievements_unlocked_total counter
habits_achievements_unlocked_total{type="habit_streak_7"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"habits_completions_recorded_total",
		"habits_goals_completed_total",
		"habits_achievements_unlocked_total",
	))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/habits/{id}", 200, 15*time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "habits_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CompletionRecorded()
		m.GoalCompleted("monthly_target")
		m.AchievementUnlocked("goal_achiever")
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}
