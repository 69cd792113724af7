package service

import (
	"context"
	"fmt"

	"github.com/JeffyMesquita/habit-tracker-api/internal/achievements"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

const maxAchievementPage = 100

func (s *Service) UnlockAchievement(ctx context.Context, userID string, req achievements.UnlockRequest) (achievements.Enriched, error) {
	if req.HabitID != nil {
		if _, err := s.Store.GetHabit(ctx, userID, *req.HabitID); err != nil {
			return achievements.Enriched{}, err
		}
	}
	if req.GoalID != nil {
		if _, err := s.Store.GetGoal(ctx, userID, *req.GoalID); err != nil {
			return achievements.Enriched{}, err
		}
	}
	a, err := s.Engine.Unlock(ctx, userID, req)
	if err != nil {
		return achievements.Enriched{}, err
	}
	return s.Engine.Catalog.Enrich(a), nil
}

func (s *Service) ListAchievements(ctx context.Context, userID string, f models.AchievementFilter) ([]achievements.Enriched, error) {
	if f.Limit < 0 || f.Limit > maxAchievementPage || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d and offset not negative", models.ErrValidation, maxAchievementPage)
	}
	list, err := s.Store.ListAchievements(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	out := make([]achievements.Enriched, 0, len(list))
	for _, a := range list {
		out = append(out, s.Engine.Catalog.Enrich(a))
	}
	return out, nil
}

func (s *Service) GetAchievement(ctx context.Context, userID, id string) (achievements.Enriched, error) {
	a, err := s.Store.GetAchievement(ctx, userID, id)
	if err != nil {
		return achievements.Enriched{}, err
	}
	return s.Engine.Catalog.Enrich(a), nil
}

func (s *Service) AchievementStats(ctx context.Context, userID string) (achievements.Stats, error) {
	list, err := s.Store.ListAchievements(ctx, userID, models.AchievementFilter{})
	if err != nil {
		return achievements.Stats{}, err
	}
	return s.Engine.Catalog.Summarize(list), nil
}
