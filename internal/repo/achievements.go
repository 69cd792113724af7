package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

const achievementColumns = `id, user_id, achievement_type, unlocked_at, details`

func scanAchievement(row pgx.Row) (models.Achievement, error) {
	var a models.Achievement
	var details string
	err := row.Scan(&a.ID, &a.UserID, &a.AchievementType, &a.Timestamp, &details)
	a.Details = models.ParseAchievementDetails(details)
	return a, err
}

// InsertAchievement fails with models.ErrConflict when the user already holds the type.
func (r *Repo) InsertAchievement(ctx context.Context, a models.Achievement) (models.Achievement, error) {
	row := r.Pool.QueryRow(ctx, `INSERT INTO achievements (user_id, achievement_type, unlocked_at, details)
		VALUES ($1, $2, $3, $4) RETURNING `+achievementColumns,
		a.UserID, a.AchievementType, a.Timestamp.UTC(), a.Details.Encode())
	created, err := scanAchievement(row)
	return created, translate(err, "achievement "+a.AchievementType)
}

// FindAchievement returns nil when the user has not unlocked the type.
func (r *Repo) FindAchievement(ctx context.Context, userID, achievementType string) (*models.Achievement, error) {
	a, err := scanAchievement(r.Pool.QueryRow(ctx, `SELECT `+achievementColumns+` FROM achievements
		WHERE user_id=$1 AND achievement_type=$2`, userID, achievementType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) GetAchievement(ctx context.Context, userID, id string) (models.Achievement, error) {
	a, err := scanAchievement(r.Pool.QueryRow(ctx, `SELECT `+achievementColumns+` FROM achievements
		WHERE id=$1 AND user_id=$2`, id, userID))
	return a, translate(err, "achievement")
}

func (r *Repo) ListAchievements(ctx context.Context, userID string, f models.AchievementFilter) ([]models.Achievement, error) {
	w := query.Achievements(query.Postgres, userID, f)
	sql := `SELECT ` + achievementColumns + ` FROM achievements` + w.String() + query.AchievementOrder(f) + w.Page(f.Limit, f.Offset)
	rows, err := r.Pool.Query(ctx, sql, w.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Achievement, error) {
		return scanAchievement(row)
	})
}
