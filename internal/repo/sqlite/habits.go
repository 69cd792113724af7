package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

const habitColumns = `id, user_id, title, frequency, week_days, moment, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var days, createdAt, updatedAt string
	var moment sql.NullString
	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Frequency, &days, &moment, &createdAt, &updatedAt); err != nil {
		return models.Habit{}, err
	}
	h.WeekDays = []int{}
	if err := json.Unmarshal([]byte(days), &h.WeekDays); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse week_days: %w", err)
	}
	h.Moment = nullable(moment)
	var err error
	if h.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func encodeWeekDays(days []int) string {
	if days == nil {
		days = []int{}
	}
	b, _ := json.Marshal(days)
	return string(b)
}

func (s *Store) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	h.ID = uuid.NewString()
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, `INSERT INTO habits (id, user_id, title, frequency, week_days, moment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Title, h.Frequency, encodeWeekDays(h.WeekDays), h.Moment, now, now)
	if err != nil {
		return models.Habit{}, translate(err, "habit")
	}
	return s.GetHabit(ctx, h.UserID, h.ID)
}

func (s *Store) GetHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	h, err := scanHabit(s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ? AND user_id = ?`, id, userID))
	return h, translate(err, "habit")
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE habits SET title = ?, frequency = ?, week_days = ?, moment = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		h.Title, h.Frequency, encodeWeekDays(h.WeekDays), h.Moment, s.timestamp(), h.ID, h.UserID)
	if err != nil {
		return models.Habit{}, translate(err, "habit")
	}
	if err := expectOne(res, "habit"); err != nil {
		return models.Habit{}, err
	}
	return s.GetHabit(ctx, h.UserID, h.ID)
}

func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return expectOne(res, "habit")
}

func (s *Store) CountHabits(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM habits WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	}
	return nil
}
