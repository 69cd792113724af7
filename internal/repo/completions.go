package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

// UpsertCompletion stores the day's count for a habit; a second write for the
// same (habit, date) replaces the count.
func (r *Repo) UpsertCompletion(ctx context.Context, c models.CompletionRecord) (models.CompletionRecord, error) {
	var out models.CompletionRecord
	err := r.Pool.QueryRow(ctx, `INSERT INTO completions (user_id, habit_id, date, completed_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (habit_id, date) DO UPDATE SET completed_count = EXCLUDED.completed_count
		RETURNING id, user_id, habit_id, date, completed_count, created_at`,
		c.UserID, c.HabitID, progress.Day(c.Date), c.CompletedCount).
		Scan(&out.ID, &out.UserID, &out.HabitID, &out.Date, &out.CompletedCount, &out.CreatedAt)
	return out, translate(err, "completion")
}

func (r *Repo) ListCompletions(ctx context.Context, f models.CompletionFilter) ([]models.CompletionRecord, error) {
	w := query.Completions(query.Postgres, f)
	sql := `SELECT id, user_id, habit_id, date, completed_count, created_at FROM completions` +
		w.String() + ` ORDER BY date DESC, id` + w.Page(f.Limit, 0)
	rows, err := r.Pool.Query(ctx, sql, w.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CompletionRecord, error) {
		var c models.CompletionRecord
		err := row.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.CompletedCount, &c.CreatedAt)
		return c, err
	})
}

func (r *Repo) CountCompletions(ctx context.Context, f models.CompletionFilter) (int, error) {
	return r.scalar(ctx, `SELECT count(*) FROM completions`, f)
}

func (r *Repo) SumCompletedCount(ctx context.Context, f models.CompletionFilter) (int, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(completed_count), 0) FROM completions`, f)
}

// CountActiveDays counts distinct dates with at least one completion, across habits.
func (r *Repo) CountActiveDays(ctx context.Context, f models.CompletionFilter) (int, error) {
	f.OnlyCompleted = true
	return r.scalar(ctx, `SELECT count(DISTINCT date) FROM completions`, f)
}

func (r *Repo) scalar(ctx context.Context, selectFrom string, f models.CompletionFilter) (int, error) {
	w := query.Completions(query.Postgres, f)
	var n int64
	err := r.Pool.QueryRow(ctx, selectFrom+w.String(), w.Args...).Scan(&n)
	return int(n), err
}

// FindLatestStreakRecord returns the record with the latest end date, the
// longest one on ties, or nil when the user has none.
func (r *Repo) FindLatestStreakRecord(ctx context.Context, userID string) (*models.StreakRecord, error) {
	var s models.StreakRecord
	err := r.Pool.QueryRow(ctx, `SELECT id, user_id, habit_id, start_date, end_date FROM streak_records
		WHERE user_id=$1 ORDER BY end_date DESC, start_date ASC LIMIT 1`, userID).
		Scan(&s.ID, &s.UserID, &s.HabitID, &s.StartDate, &s.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertStreakRecord extends the habit's run that began on s.StartDate, or starts a new one.
func (r *Repo) UpsertStreakRecord(ctx context.Context, s models.StreakRecord) (models.StreakRecord, error) {
	var out models.StreakRecord
	err := r.Pool.QueryRow(ctx, `INSERT INTO streak_records (user_id, habit_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (habit_id, start_date) DO UPDATE SET end_date = EXCLUDED.end_date
		RETURNING id, user_id, habit_id, start_date, end_date`,
		s.UserID, s.HabitID, progress.Day(s.StartDate), progress.Day(s.EndDate)).
		Scan(&out.ID, &out.UserID, &out.HabitID, &out.StartDate, &out.EndDate)
	return out, translate(err, "streak record")
}
