package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/auth"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

const maxBodyBytes = 1 << 20

// FlexTime accepts YYYY-MM-DD, RFC3339 or a zone-less timestamp.
type FlexTime struct {
	time.Time
}

func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(progress.DateLayout, s); err == nil {
		ft.Time = t
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ft.Time = t
		return nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		ft.Time = t
		return nil
	}
	return errors.New("invalid date/time format")
}

// Value is the zero time for a missing field.
func (ft *FlexTime) Value() time.Time {
	if ft == nil {
		return time.Time{}
	}
	return ft.Time
}

func (ft *FlexTime) ToTimePtr() *time.Time {
	if ft == nil || ft.Time.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
	}
	return userID, ok
}

// queryParams reads optional query values, remembering the first bad one.
type queryParams struct {
	values url.Values
	err    error
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{values: r.URL.Query()}
}

func (q *queryParams) String(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryParams) Date(key string) time.Time {
	v := q.String(key)
	if v == "" {
		return time.Time{}
	}
	t, err := progress.ParseDay(v)
	if err != nil && q.err == nil {
		q.err = fmt.Errorf("%s: %v", key, err)
	}
	return t
}

func (q *queryParams) Int(key string) int {
	v := q.String(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil && q.err == nil {
		q.err = fmt.Errorf("%s must be an integer", key)
	}
	return n
}

func (q *queryParams) Bool(key string, def bool) bool {
	v := q.String(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && q.err == nil {
		q.err = fmt.Errorf("%s must be true or false", key)
	}
	return b
}

// Desc reads sort_order, asc unless it says desc.
func (q *queryParams) Desc() bool {
	return strings.EqualFold(q.String("sort_order"), "desc")
}

// Valid writes a validation error when any value failed to parse.
func (q *queryParams) Valid(w http.ResponseWriter) bool {
	if q.err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", q.err.Error())
		return false
	}
	return true
}
