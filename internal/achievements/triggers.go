package achievements

import (
	"context"
	"errors"
	"fmt"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

type Trigger string

const (
	TriggerHabitCreated   Trigger = "habit_created"
	TriggerHabitProgress  Trigger = "habit_progress"
	TriggerStreakAchieved Trigger = "streak_achieved"
	TriggerGoalCompleted  Trigger = "goal_completed"
)

// Milestones fire on exact hits only: a count that jumps past a milestone
// (bulk import, backfill) does not unlock it later.
var (
	CompletionMilestones = []int{10, 50, 100}
	StreakMilestones     = []int{7, 30, 100}
)

const (
	weeklyConsistencyDays  = 5
	monthlyConsistencyDays = 20
)

type TriggerData struct {
	HabitID      string
	GoalID       string
	StreakLength int
}

// CheckAndUnlock attempts every candidate the trigger yields. Already
// unlocked candidates are skipped; other failures are joined and returned
// after all candidates were tried.
func (e *Engine) CheckAndUnlock(ctx context.Context, userID string, trigger Trigger, data TriggerData) ([]models.Achievement, error) {
	candidates, err := e.candidates(ctx, userID, trigger, data)
	if err != nil {
		return nil, err
	}
	return e.unlockAll(ctx, userID, candidates)
}

func (e *Engine) unlockAll(ctx context.Context, userID string, candidates []UnlockRequest) ([]models.Achievement, error) {
	var (
		unlocked []models.Achievement
		errs     []error
	)
	for _, c := range candidates {
		a, err := e.Unlock(ctx, userID, c)
		switch {
		case err == nil:
			unlocked = append(unlocked, a)
		case IsAlreadyUnlocked(err):
		default:
			errs = append(errs, err)
		}
	}
	return unlocked, errors.Join(errs...)
}

func (e *Engine) candidates(ctx context.Context, userID string, trigger Trigger, data TriggerData) ([]UnlockRequest, error) {
	switch trigger {
	case TriggerHabitCreated:
		n, err := e.Store.CountHabits(ctx, userID)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			return []UnlockRequest{{Type: FirstHabitCreated, Description: "Created your first habit!"}}, nil
		}
	case TriggerHabitProgress:
		n, err := e.Store.CountCompletions(ctx, models.CompletionFilter{UserID: userID})
		if err != nil {
			return nil, err
		}
		for _, m := range CompletionMilestones {
			if n == m {
				return []UnlockRequest{{
					Type:        CompletionType(m),
					Description: fmt.Sprintf("Completed %d habit sessions!", m),
				}}, nil
			}
		}
	case TriggerStreakAchieved:
		for _, m := range StreakMilestones {
			if data.StreakLength == m {
				return []UnlockRequest{{
					Type:        StreakType(m),
					Description: fmt.Sprintf("Achieved a %d-day streak!", m),
					HabitID:     optional(data.HabitID),
				}}, nil
			}
		}
	case TriggerGoalCompleted:
		return []UnlockRequest{{
			Type:        GoalAchiever,
			Description: "Completed your first goal!",
			GoalID:      optional(data.GoalID),
		}}, nil
	}
	return nil, nil
}

// HandleHabitCreation runs the habit_created trigger.
func (e *Engine) HandleHabitCreation(ctx context.Context, userID, habitID string) ([]models.Achievement, error) {
	return e.CheckAndUnlock(ctx, userID, TriggerHabitCreated, TriggerData{HabitID: habitID})
}

// HandleGoalCompletion runs the goal_completed trigger.
func (e *Engine) HandleGoalCompletion(ctx context.Context, userID, goalID string) ([]models.Achievement, error) {
	return e.CheckAndUnlock(ctx, userID, TriggerGoalCompleted, TriggerData{GoalID: goalID})
}

// HandleProgressUpdate runs after a completion was recorded: milestone
// counts, the habit's current streak, then the rolling consistency windows.
func (e *Engine) HandleProgressUpdate(ctx context.Context, userID, habitID string, currentStreak int) ([]models.Achievement, error) {
	var (
		unlocked []models.Achievement
		errs     []error
	)
	collect := func(as []models.Achievement, err error) {
		unlocked = append(unlocked, as...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(e.CheckAndUnlock(ctx, userID, TriggerHabitProgress, TriggerData{HabitID: habitID}))
	if currentStreak > 0 {
		collect(e.CheckAndUnlock(ctx, userID, TriggerStreakAchieved, TriggerData{HabitID: habitID, StreakLength: currentStreak}))
	}
	collect(e.checkConsistency(ctx, userID))

	return unlocked, errors.Join(errs...)
}

// checkConsistency looks at week-to-date and month-to-date active days.
func (e *Engine) checkConsistency(ctx context.Context, userID string) ([]models.Achievement, error) {
	today := progress.Day(e.Now())

	weekly, err := e.Store.CountActiveDays(ctx, models.CompletionFilter{
		UserID: userID, From: progress.WeekStart(today), To: today, OnlyCompleted: true,
	})
	if err != nil {
		return nil, err
	}
	monthly, err := e.Store.CountActiveDays(ctx, models.CompletionFilter{
		UserID: userID, From: progress.MonthStart(today), To: today, OnlyCompleted: true,
	})
	if err != nil {
		return nil, err
	}

	var candidates []UnlockRequest
	if weekly >= weeklyConsistencyDays {
		candidates = append(candidates, UnlockRequest{Type: WeeklyConsistency, Description: "Maintained weekly consistency!"})
	}
	if monthly >= monthlyConsistencyDays {
		candidates = append(candidates, UnlockRequest{Type: MonthlyConsistency, Description: "Maintained monthly consistency!"})
	}
	return e.unlockAll(ctx, userID, candidates)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
