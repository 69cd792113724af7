package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

const completionColumns = `id, user_id, habit_id, date, completed_count, created_at`

func scanCompletion(row scanner) (models.CompletionRecord, error) {
	var c models.CompletionRecord
	var date, createdAt string
	if err := row.Scan(&c.ID, &c.UserID, &c.HabitID, &date, &c.CompletedCount, &createdAt); err != nil {
		return models.CompletionRecord{}, err
	}
	var err error
	if c.Date, err = parseDate(date); err != nil {
		return models.CompletionRecord{}, err
	}
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.CompletionRecord{}, err
	}
	return c, nil
}

func (s *Store) UpsertCompletion(ctx context.Context, c models.CompletionRecord) (models.CompletionRecord, error) {
	date := formatDate(c.Date)
	_, err := s.db.ExecContext(ctx, `INSERT INTO completions (id, user_id, habit_id, date, completed_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, date) DO UPDATE SET completed_count = excluded.completed_count`,
		uuid.NewString(), c.UserID, c.HabitID, date, c.CompletedCount, s.timestamp())
	if err != nil {
		return models.CompletionRecord{}, translate(err, "completion")
	}
	out, err := scanCompletion(s.db.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM completions
		WHERE habit_id = ? AND date = ?`, c.HabitID, date))
	return out, translate(err, "completion")
}

func (s *Store) ListCompletions(ctx context.Context, f models.CompletionFilter) ([]models.CompletionRecord, error) {
	w := query.Completions(query.SQLite, f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+completionColumns+` FROM completions`+
		w.String()+` ORDER BY date DESC, id`+w.Page(f.Limit, 0), w.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.CompletionRecord{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountCompletions(ctx context.Context, f models.CompletionFilter) (int, error) {
	return s.scalar(ctx, `SELECT count(*) FROM completions`, f)
}

func (s *Store) SumCompletedCount(ctx context.Context, f models.CompletionFilter) (int, error) {
	return s.scalar(ctx, `SELECT COALESCE(SUM(completed_count), 0) FROM completions`, f)
}

func (s *Store) CountActiveDays(ctx context.Context, f models.CompletionFilter) (int, error) {
	f.OnlyCompleted = true
	return s.scalar(ctx, `SELECT count(DISTINCT date) FROM completions`, f)
}

func (s *Store) scalar(ctx context.Context, selectFrom string, f models.CompletionFilter) (int, error) {
	w := query.Completions(query.SQLite, f)
	var n int
	err := s.db.QueryRowContext(ctx, selectFrom+w.String(), w.Args...).Scan(&n)
	return n, err
}

func scanStreak(row scanner) (models.StreakRecord, error) {
	var r models.StreakRecord
	var start, end string
	if err := row.Scan(&r.ID, &r.UserID, &r.HabitID, &start, &end); err != nil {
		return models.StreakRecord{}, err
	}
	var err error
	if r.StartDate, err = parseDate(start); err != nil {
		return models.StreakRecord{}, err
	}
	if r.EndDate, err = parseDate(end); err != nil {
		return models.StreakRecord{}, err
	}
	return r, nil
}

func (s *Store) FindLatestStreakRecord(ctx context.Context, userID string) (*models.StreakRecord, error) {
	r, err := scanStreak(s.db.QueryRowContext(ctx, `SELECT id, user_id, habit_id, start_date, end_date FROM streak_records
		WHERE user_id = ? ORDER BY end_date DESC, start_date ASC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpsertStreakRecord(ctx context.Context, r models.StreakRecord) (models.StreakRecord, error) {
	start := formatDate(r.StartDate)
	_, err := s.db.ExecContext(ctx, `INSERT INTO streak_records (id, user_id, habit_id, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, start_date) DO UPDATE SET end_date = excluded.end_date`,
		uuid.NewString(), r.UserID, r.HabitID, start, formatDate(r.EndDate))
	if err != nil {
		return models.StreakRecord{}, translate(err, "streak record")
	}
	out, err := scanStreak(s.db.QueryRowContext(ctx, `SELECT id, user_id, habit_id, start_date, end_date FROM streak_records
		WHERE habit_id = ? AND start_date = ?`, r.HabitID, start))
	return out, translate(err, "streak record")
}
