package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

const goalColumns = `id, user_id, goal_type, target_value, start_date, end_date, habit_id, title, description, priority, completed_at, created_at, updated_at`

func scanGoal(row pgx.Row) (models.Goal, error) {
	var g models.Goal
	var goalType string
	err := row.Scan(&g.ID, &g.UserID, &goalType, &g.TargetValue, &g.StartDate, &g.EndDate,
		&g.HabitID, &g.Title, &g.Description, &g.Priority, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt)
	g.GoalType = models.GoalType(goalType)
	return g, err
}

func collectGoals(rows pgx.Rows) ([]models.Goal, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Goal, error) {
		return scanGoal(row)
	})
}

// CreateGoalIfNoOverlap inserts g unless the user already has a goal of the
// same type whose date range overlaps it, in which case it fails with
// models.ErrConflict. Check and insert are one statement.
func (r *Repo) CreateGoalIfNoOverlap(ctx context.Context, g models.Goal) (models.Goal, error) {
	row := r.Pool.QueryRow(ctx, `INSERT INTO goals (user_id, goal_type, target_value, start_date, end_date, habit_id, title, description, priority)
		SELECT $1::uuid, $2::text, $3::int, $4::date, $5::date, $6::uuid, $7::text, $8::text, $9::int
		WHERE NOT EXISTS (
			SELECT 1 FROM goals
			WHERE user_id = $1::uuid AND goal_type = $2::text AND start_date <= $5::date AND end_date >= $4::date
		)
		RETURNING `+goalColumns,
		g.UserID, string(g.GoalType), g.TargetValue, progress.Day(g.StartDate), progress.Day(g.EndDate),
		g.HabitID, g.Title, g.Description, g.Priority)
	created, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Goal{}, fmt.Errorf("%w: a %s goal already exists for this period", models.ErrConflict, g.GoalType)
	}
	return created, translate(err, "goal")
}

func (r *Repo) GetGoal(ctx context.Context, userID, id string) (models.Goal, error) {
	g, err := scanGoal(r.Pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id=$1 AND user_id=$2`, id, userID))
	return g, translate(err, "goal")
}

func (r *Repo) UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	row := r.Pool.QueryRow(ctx, `UPDATE goals SET goal_type=$1, target_value=$2, start_date=$3, end_date=$4,
		habit_id=$5, title=$6, description=$7, priority=$8, updated_at=now()
		WHERE id=$9 AND user_id=$10 RETURNING `+goalColumns,
		string(g.GoalType), g.TargetValue, progress.Day(g.StartDate), progress.Day(g.EndDate),
		g.HabitID, g.Title, g.Description, g.Priority, g.ID, g.UserID)
	updated, err := scanGoal(row)
	return updated, translate(err, "goal")
}

// MarkGoalCompleted sets completed_at once. It reports false when the goal
// was already completed.
func (r *Repo) MarkGoalCompleted(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	cmd, err := r.Pool.Exec(ctx, `UPDATE goals SET completed_at=$1, updated_at=now()
		WHERE id=$2 AND user_id=$3 AND completed_at IS NULL`, at.UTC(), id, userID)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.GetGoal(ctx, userID, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *Repo) ListGoals(ctx context.Context, userID string, f models.GoalFilter) ([]models.Goal, error) {
	w := query.Goals(query.Postgres, userID, f)
	sql := `SELECT ` + goalColumns + ` FROM goals` + w.String() + query.GoalOrder(f) + w.Page(f.Limit, f.Offset)
	rows, err := r.Pool.Query(ctx, sql, w.Args...)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

// ListActiveGoals returns uncompleted goals whose end date is not before today.
func (r *Repo) ListActiveGoals(ctx context.Context, userID string, today time.Time) ([]models.Goal, error) {
	return r.ListGoals(ctx, userID, models.GoalFilter{Status: string(models.GoalActive), Today: today, SortBy: "start_date"})
}

func (r *Repo) DeleteGoal(ctx context.Context, userID, id string) error {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM goals WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: goal", models.ErrNotFound)
	}
	return nil
}
