// Package query builds the WHERE, ORDER BY and paging clauses shared by the
// Postgres and SQLite stores. Each dialect decides how placeholders are
// spelled and how dates and timestamps are bound.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

// TimestampLayout is the fixed-width UTC layout used where timestamps are stored as text,
// so that lexical order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

type Dialect struct {
	Placeholder func(n int) string
	Date        func(t time.Time) any
	Timestamp   func(t time.Time) any
}

var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Date:        func(t time.Time) any { return progress.Day(t) },
	Timestamp:   func(t time.Time) any { return t.UTC() },
}

var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Date:        func(t time.Time) any { return progress.Day(t).Format(progress.DateLayout) },
	Timestamp:   func(t time.Time) any { return t.UTC().Format(TimestampLayout) },
}

// Where accumulates AND-ed conditions. A "?" in a condition is replaced by
// the dialect's placeholder for the bound argument.
type Where struct {
	d     Dialect
	conds []string
	Args  []any
}

func (d Dialect) Where() *Where {
	return &Where{d: d}
}

// Arg binds v and returns its placeholder.
func (w *Where) Arg(v any) string {
	w.Args = append(w.Args, v)
	return w.d.Placeholder(len(w.Args))
}

func (w *Where) Add(cond string, v any) {
	w.conds = append(w.conds, strings.Replace(cond, "?", w.Arg(v), 1))
}

func (w *Where) AddDate(cond string, t time.Time) {
	w.Add(cond, w.d.Date(t))
}

func (w *Where) AddTimestamp(cond string, t time.Time) {
	w.Add(cond, w.d.Timestamp(t))
}

func (w *Where) Raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *Where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Page renders LIMIT/OFFSET, binding both values. A non-positive limit means no limit.
func (w *Where) Page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		b.WriteString(" LIMIT " + w.Arg(limit))
		if offset > 0 {
			b.WriteString(" OFFSET " + w.Arg(offset))
		}
	}
	return b.String()
}

func Completions(d Dialect, f models.CompletionFilter) *Where {
	w := d.Where()
	w.Add("user_id = ?", f.UserID)
	if f.HabitID != "" {
		w.Add("habit_id = ?", f.HabitID)
	}
	if !f.From.IsZero() {
		w.AddDate("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.AddDate("date <= ?", f.To)
	}
	if f.OnlyCompleted {
		w.Raw("completed_count > 0")
	}
	return w
}

func Goals(d Dialect, userID string, f models.GoalFilter) *Where {
	w := d.Where()
	w.Add("user_id = ?", userID)
	if f.GoalType != "" {
		w.Add("goal_type = ?", string(f.GoalType))
	}
	switch models.GoalStatus(f.Status) {
	case models.GoalActive:
		w.Raw("completed_at IS NULL")
		w.AddDate("end_date >= ?", f.Today)
	case models.GoalExpired:
		w.Raw("completed_at IS NULL")
		w.AddDate("end_date < ?", f.Today)
	case models.GoalCompleted:
		w.Raw("completed_at IS NOT NULL")
	}
	if !f.StartFrom.IsZero() {
		w.AddDate("start_date >= ?", f.StartFrom)
	}
	if !f.EndUntil.IsZero() {
		w.AddDate("end_date <= ?", f.EndUntil)
	}
	return w
}

var goalSortColumns = map[string]string{
	"created_at":   "created_at",
	"start_date":   "start_date",
	"end_date":     "end_date",
	"priority":     "priority",
	"target_value": "target_value",
}

// GoalOrder falls back to created_at for unknown sort keys.
func GoalOrder(f models.GoalFilter) string {
	col, ok := goalSortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	return " ORDER BY " + col + direction(f.Desc) + ", id"
}

func Achievements(d Dialect, userID string, f models.AchievementFilter) *Where {
	w := d.Where()
	w.Add("user_id = ?", userID)
	if f.AchievementType != "" {
		w.Add("achievement_type = ?", f.AchievementType)
	}
	if !f.From.IsZero() {
		w.AddTimestamp("unlocked_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.AddTimestamp("unlocked_at <= ?", f.To)
	}
	return w
}

func AchievementOrder(f models.AchievementFilter) string {
	return " ORDER BY unlocked_at" + direction(f.Desc) + ", id"
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}
