package goals

import (
	"fmt"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

const (
	MinTarget       = 1
	MaxTarget       = 1000
	DefaultPriority = 3
)

// ValidateNew checks a goal about to be created. Overlap with existing goals
// is enforced by the store.
func ValidateNew(g models.Goal, now time.Time) error {
	if err := Validate(g); err != nil {
		return err
	}
	if progress.Day(g.StartDate).Before(progress.Day(now)) {
		return fmt.Errorf("%w: start_date cannot be in the past", models.ErrValidation)
	}
	return nil
}

// Validate checks the shape of a goal.
func Validate(g models.Goal) error {
	if !g.GoalType.Valid() {
		return fmt.Errorf("%w: unknown goal_type %q", models.ErrValidation, g.GoalType)
	}
	if g.TargetValue < MinTarget || g.TargetValue > MaxTarget {
		return fmt.Errorf("%w: target_value must be between %d and %d", models.ErrValidation, MinTarget, MaxTarget)
	}
	if g.StartDate.IsZero() || g.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", models.ErrValidation)
	}
	if progress.Day(g.EndDate).Before(progress.Day(g.StartDate)) {
		return fmt.Errorf("%w: end_date must not be before start_date", models.ErrValidation)
	}
	if g.Priority < 1 || g.Priority > 5 {
		return fmt.Errorf("%w: priority must be between 1 and 5", models.ErrValidation)
	}
	return nil
}
