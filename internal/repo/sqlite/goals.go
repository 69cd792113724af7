package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

const goalColumns = `id, user_id, goal_type, target_value, start_date, end_date, habit_id, title, description, priority, completed_at, created_at, updated_at`

func scanGoal(row scanner) (models.Goal, error) {
	var g models.Goal
	var goalType, start, end, createdAt, updatedAt string
	var habitID, title, description, completedAt sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &goalType, &g.TargetValue, &start, &end,
		&habitID, &title, &description, &g.Priority, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return models.Goal{}, err
	}
	g.GoalType = models.GoalType(goalType)
	g.HabitID = nullable(habitID)
	g.Title = nullable(title)
	g.Description = nullable(description)
	if g.StartDate, err = parseDate(start); err != nil {
		return models.Goal{}, err
	}
	if g.EndDate, err = parseDate(end); err != nil {
		return models.Goal{}, err
	}
	if completedAt.Valid {
		t, err := parseTimestamp(completedAt.String)
		if err != nil {
			return models.Goal{}, err
		}
		g.CompletedAt = &t
	}
	if g.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Goal{}, err
	}
	if g.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// CreateGoalIfNoOverlap inserts g unless a goal of the same type overlaps its
// date range; the check and the insert are a single statement.
func (s *Store) CreateGoalIfNoOverlap(ctx context.Context, g models.Goal) (models.Goal, error) {
	id := uuid.NewString()
	start, end := formatDate(g.StartDate), formatDate(g.EndDate)
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, `INSERT INTO goals (id, user_id, goal_type, target_value, start_date, end_date,
			habit_id, title, description, priority, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM goals WHERE user_id = ? AND goal_type = ? AND start_date <= ? AND end_date >= ?
		)`,
		id, g.UserID, string(g.GoalType), g.TargetValue, start, end,
		g.HabitID, g.Title, g.Description, g.Priority, now, now,
		g.UserID, string(g.GoalType), end, start)
	if err != nil {
		return models.Goal{}, translate(err, "goal")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Goal{}, err
	}
	if n == 0 {
		return models.Goal{}, fmt.Errorf("%w: a %s goal already exists for this period", models.ErrConflict, g.GoalType)
	}
	return s.GetGoal(ctx, g.UserID, id)
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (models.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	return g, translate(err, "goal")
}

func (s *Store) UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE goals SET goal_type = ?, target_value = ?, start_date = ?, end_date = ?,
		habit_id = ?, title = ?, description = ?, priority = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		string(g.GoalType), g.TargetValue, formatDate(g.StartDate), formatDate(g.EndDate),
		g.HabitID, g.Title, g.Description, g.Priority, s.timestamp(), g.ID, g.UserID)
	if err != nil {
		return models.Goal{}, translate(err, "goal")
	}
	if err := expectOne(res, "goal"); err != nil {
		return models.Goal{}, err
	}
	return s.GetGoal(ctx, g.UserID, g.ID)
}

func (s *Store) MarkGoalCompleted(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE goals SET completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND completed_at IS NULL`, formatTimestamp(at), s.timestamp(), id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := s.GetGoal(ctx, userID, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string, f models.GoalFilter) ([]models.Goal, error) {
	w := query.Goals(query.SQLite, userID, f)
	page := w.Page(f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals`+w.String()+query.GoalOrder(f)+page, w.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveGoals(ctx context.Context, userID string, today time.Time) ([]models.Goal, error) {
	return s.ListGoals(ctx, userID, models.GoalFilter{Status: string(models.GoalActive), Today: today, SortBy: "start_date"})
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return expectOne(res, "goal")
}
