package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

const habitColumns = `id, user_id, title, frequency, week_days, moment, created_at, updated_at`

func scanHabit(row pgx.Row) (models.Habit, error) {
	var h models.Habit
	var days []int32
	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Frequency, &days, &h.Moment, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return models.Habit{}, err
	}
	h.WeekDays = make([]int, len(days))
	for i, d := range days {
		h.WeekDays[i] = int(d)
	}
	return h, nil
}

func weekDays(days []int) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func (r *Repo) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	row := r.Pool.QueryRow(ctx, `INSERT INTO habits (user_id, title, frequency, week_days, moment)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+habitColumns,
		h.UserID, h.Title, h.Frequency, weekDays(h.WeekDays), h.Moment)
	created, err := scanHabit(row)
	return created, translate(err, "habit")
}

func (r *Repo) GetHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	h, err := scanHabit(r.Pool.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id=$1 AND user_id=$2`, id, userID))
	return h, translate(err, "habit")
}

func (r *Repo) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id=$1 ORDER BY created_at, id`, userID)
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

func (r *Repo) UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	row := r.Pool.QueryRow(ctx, `UPDATE habits SET title=$1, frequency=$2, week_days=$3, moment=$4, updated_at=now()
		WHERE id=$5 AND user_id=$6 RETURNING `+habitColumns,
		h.Title, h.Frequency, weekDays(h.WeekDays), h.Moment, h.ID, h.UserID)
	updated, err := scanHabit(row)
	return updated, translate(err, "habit")
}

func (r *Repo) DeleteHabit(ctx context.Context, userID, id string) error {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM habits WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: habit", models.ErrNotFound)
	}
	return nil
}

func (r *Repo) CountHabits(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM habits WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}
