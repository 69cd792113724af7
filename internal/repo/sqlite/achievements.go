package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/repo/query"
)

const achievementColumns = `id, user_id, achievement_type, unlocked_at, details`

func scanAchievement(row scanner) (models.Achievement, error) {
	var a models.Achievement
	var ts, details string
	if err := row.Scan(&a.ID, &a.UserID, &a.AchievementType, &ts, &details); err != nil {
		return models.Achievement{}, err
	}
	var err error
	if a.Timestamp, err = parseTimestamp(ts); err != nil {
		return models.Achievement{}, err
	}
	a.Details = models.ParseAchievementDetails(details)
	return a, nil
}

func (s *Store) InsertAchievement(ctx context.Context, a models.Achievement) (models.Achievement, error) {
	a.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO achievements (id, user_id, achievement_type, unlocked_at, details)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.AchievementType, formatTimestamp(a.Timestamp), a.Details.Encode())
	if err != nil {
		return models.Achievement{}, translate(err, "achievement "+a.AchievementType)
	}
	return s.GetAchievement(ctx, a.UserID, a.ID)
}

func (s *Store) FindAchievement(ctx context.Context, userID, achievementType string) (*models.Achievement, error) {
	a, err := scanAchievement(s.db.QueryRowContext(ctx, `SELECT `+achievementColumns+` FROM achievements
		WHERE user_id = ? AND achievement_type = ?`, userID, achievementType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAchievement(ctx context.Context, userID, id string) (models.Achievement, error) {
	a, err := scanAchievement(s.db.QueryRowContext(ctx, `SELECT `+achievementColumns+` FROM achievements
		WHERE id = ? AND user_id = ?`, id, userID))
	return a, translate(err, "achievement")
}

func (s *Store) ListAchievements(ctx context.Context, userID string, f models.AchievementFilter) ([]models.Achievement, error) {
	w := query.Achievements(query.SQLite, userID, f)
	page := w.Page(f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+achievementColumns+` FROM achievements`+
		w.String()+query.AchievementOrder(f)+page, w.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Achievement{}
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
