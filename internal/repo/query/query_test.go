package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCompletionsPostgres(t *testing.T) {
	w := Completions(Postgres, models.CompletionFilter{
		UserID: "u1", HabitID: "h1", From: day("2025-01-01"), To: day("2025-01-31"), OnlyCompleted: true,
	})
	assert.Equal(t, " WHERE user_id = $1 AND habit_id = $2 AND date >= $3 AND date <= $4 AND completed_count > 0", w.String())
	assert.Equal(t, []any{"u1", "h1", day("2025-01-01"), day("2025-01-31")}, w.Args)
}

func TestCompletionsSQLite(t *testing.T) {
	w := Completions(SQLite, models.CompletionFilter{UserID: "u1", From: day("2025-01-01")})
	assert.Equal(t, " WHERE user_id = ? AND date >= ?", w.String())
	assert.Equal(t, []any{"u1", "2025-01-01"}, w.Args)
}

func TestGoalsStatus(t *testing.T) {
	today := day("2025-05-14")
	cases := map[string]string{
		"active":    " WHERE user_id = $1 AND completed_at IS NULL AND end_date >= $2",
		"expired":   " WHERE user_id = $1 AND completed_at IS NULL AND end_date < $2",
		"completed": " WHERE user_id = $1 AND completed_at IS NOT NULL",
		"all":       " WHERE user_id = $1",
		"":          " WHERE user_id = $1",
	}
	for status, want := range cases {
		w := Goals(Postgres, "u1", models.GoalFilter{Status: status, Today: today})
		assert.Equal(t, want, w.String(), status)
	}
}

func TestPageAndOrder(t *testing.T) {
	w := Postgres.Where()
	w.Add("user_id = ?", "u1")
	assert.Equal(t, " LIMIT $2 OFFSET $3", w.Page(10, 20))
	assert.Equal(t, "", Postgres.Where().Page(0, 5))

	assert.Equal(t, " ORDER BY priority DESC, id", GoalOrder(models.GoalFilter{SortBy: "priority", Desc: true}))
	assert.Equal(t, " ORDER BY created_at ASC, id", GoalOrder(models.GoalFilter{SortBy: "title; DROP TABLE goals"}))
	assert.Equal(t, " ORDER BY unlocked_at DESC, id", AchievementOrder(models.AchievementFilter{Desc: true}))
}

func TestSQLiteTimestampIsSortable(t *testing.T) {
	a := SQLite.Timestamp(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)).(string)
	b := SQLite.Timestamp(time.Date(2025, 1, 1, 10, 0, 0, 500, time.UTC)).(string)
	assert.Less(t, a, b)
	assert.Len(t, a, len(b))
}
