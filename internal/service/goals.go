package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/events"
	"github.com/JeffyMesquita/habit-tracker-api/internal/goals"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

type GoalInput struct {
	GoalType    models.GoalType
	TargetValue int
	StartDate   time.Time
	EndDate     time.Time
	HabitID     *string
	Title       *string
	Description *string
	Priority    *int
}

type GoalWithProgress struct {
	models.Goal
	Progress models.GoalProgress `json:"progress"`
}

func (s *Service) CreateGoal(ctx context.Context, userID string, in GoalInput) (GoalWithProgress, error) {
	g := models.Goal{
		UserID:      userID,
		GoalType:    in.GoalType,
		TargetValue: in.TargetValue,
		StartDate:   progress.Day(in.StartDate),
		EndDate:     progress.Day(in.EndDate),
		HabitID:     in.HabitID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    goals.DefaultPriority,
	}
	if in.Priority != nil {
		g.Priority = *in.Priority
	}
	if in.StartDate.IsZero() {
		g.StartDate = time.Time{}
	}
	if in.EndDate.IsZero() {
		g.EndDate = time.Time{}
	}
	if err := goals.ValidateNew(g, s.Now()); err != nil {
		return GoalWithProgress{}, err
	}
	if err := s.checkHabit(ctx, userID, g.HabitID); err != nil {
		return GoalWithProgress{}, err
	}
	created, err := s.Store.CreateGoalIfNoOverlap(ctx, g)
	if err != nil {
		return GoalWithProgress{}, err
	}
	return s.withProgress(ctx, created)
}

func (s *Service) checkHabit(ctx context.Context, userID string, habitID *string) error {
	if habitID == nil {
		return nil
	}
	_, err := s.Store.GetHabit(ctx, userID, *habitID)
	return err
}

func (s *Service) withProgress(ctx context.Context, g models.Goal) (GoalWithProgress, error) {
	p, err := s.Evaluator.Evaluate(ctx, g, s.Now())
	if err != nil {
		return GoalWithProgress{}, err
	}
	return GoalWithProgress{Goal: g, Progress: p}, nil
}

func (s *Service) GetGoal(ctx context.Context, userID, id string) (GoalWithProgress, error) {
	g, err := s.Store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalWithProgress{}, err
	}
	return s.withProgress(ctx, g)
}

func (s *Service) GoalProgress(ctx context.Context, userID, id string) (models.GoalProgress, error) {
	g, err := s.Store.GetGoal(ctx, userID, id)
	if err != nil {
		return models.GoalProgress{}, err
	}
	return s.Evaluator.Evaluate(ctx, g, s.Now())
}

var goalStatuses = map[string]bool{"": true, "all": true, "active": true, "expired": true, "completed": true}

func (s *Service) ListGoals(ctx context.Context, userID string, f models.GoalFilter) ([]GoalWithProgress, error) {
	if !goalStatuses[f.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, f.Status)
	}
	if f.GoalType != "" && !f.GoalType.Valid() {
		return nil, fmt.Errorf("%w: unknown goal_type %q", models.ErrValidation, f.GoalType)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", models.ErrValidation)
	}
	f.Today = progress.Day(s.Now())
	list, err := s.Store.ListGoals(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	out := make([]GoalWithProgress, 0, len(list))
	for _, g := range list {
		gp, err := s.withProgress(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, gp)
	}
	return out, nil
}

func (s *Service) UpdateGoal(ctx context.Context, userID, id string, p models.GoalPatch) (GoalWithProgress, error) {
	g, err := s.Store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalWithProgress{}, err
	}
	if p.GoalType != nil {
		g.GoalType = *p.GoalType
	}
	if p.TargetValue != nil {
		g.TargetValue = *p.TargetValue
	}
	if p.StartDate != nil {
		g.StartDate = progress.Day(*p.StartDate)
	}
	if p.EndDate != nil {
		g.EndDate = progress.Day(*p.EndDate)
	}
	if p.HabitID != nil {
		g.HabitID = p.HabitID
	}
	if p.Title != nil {
		g.Title = p.Title
	}
	if p.Description != nil {
		g.Description = p.Description
	}
	if p.Priority != nil {
		g.Priority = *p.Priority
	}
	if err := goals.Validate(g); err != nil {
		return GoalWithProgress{}, err
	}
	if err := s.checkHabit(ctx, userID, p.HabitID); err != nil {
		return GoalWithProgress{}, err
	}
	updated, err := s.Store.UpdateGoal(ctx, g)
	if err != nil {
		return GoalWithProgress{}, err
	}
	return s.withProgress(ctx, updated)
}

func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.Store.DeleteGoal(ctx, userID, id)
}

// CompleteGoal marks a goal completed by hand. A goal that already carries a
// completion fails with models.ErrConflict.
func (s *Service) CompleteGoal(ctx context.Context, userID, id string) (GoalWithProgress, error) {
	ok, err := s.Store.MarkGoalCompleted(ctx, userID, id, s.Now())
	if err != nil {
		return GoalWithProgress{}, err
	}
	if !ok {
		return GoalWithProgress{}, fmt.Errorf("%w: goal is already completed", models.ErrConflict)
	}
	g, err := s.Store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalWithProgress{}, err
	}
	s.goalCompleted(ctx, g)
	return s.withProgress(ctx, g)
}

// CheckGoalCompletions scores every active goal of the user and records the
// ones that reached their target. Goals that fail to evaluate are skipped and
// reported in the joined error.
func (s *Service) CheckGoalCompletions(ctx context.Context, userID string) ([]models.Goal, error) {
	active, err := s.Store.ListActiveGoals(ctx, userID, progress.Day(s.Now()))
	if err != nil {
		return nil, err
	}
	var (
		completed []models.Goal
		errs      []error
	)
	for _, g := range active {
		p, err := s.Evaluator.Evaluate(ctx, g, s.Now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !goals.NewlyCompleted(g, p) {
			continue
		}
		ok, err := s.Store.MarkGoalCompleted(ctx, userID, g.ID, s.Now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		at := s.Now().UTC()
		g.CompletedAt = &at
		completed = append(completed, g)
		s.logInfo("goal completed", "user", userID, "goal", g.ID, "type", g.GoalType, "value", p.CurrentValue, "target", g.TargetValue)
		s.goalCompleted(ctx, g)
	}
	return completed, errors.Join(errs...)
}

func (s *Service) goalCompleted(ctx context.Context, g models.Goal) {
	s.Metrics.GoalCompleted(string(g.GoalType))
	s.publish(ctx, events.GoalCompleted, g.UserID, map[string]string{"goal_id": g.ID, "goal_type": string(g.GoalType)})
	if _, err := s.Engine.HandleGoalCompletion(ctx, g.UserID, g.ID); err != nil {
		s.logWarn("goal completion achievements failed", "user", g.UserID, "goal", g.ID, "err", err)
	}
}
