// Package goals scores a goal against the completion log. Each goal type has
// its own strategy for the current value; status and percentage are derived
// the same way for all of them.
package goals

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

// ConsistentWeekDays is how many active days make a week count as consistent.
const ConsistentWeekDays = 5

// Metrics is the read side of the store that strategies consult.
type Metrics interface {
	ListCompletions(ctx context.Context, f models.CompletionFilter) ([]models.CompletionRecord, error)
	CountCompletions(ctx context.Context, f models.CompletionFilter) (int, error)
	SumCompletedCount(ctx context.Context, f models.CompletionFilter) (int, error)
	CountActiveDays(ctx context.Context, f models.CompletionFilter) (int, error)
	FindLatestStreakRecord(ctx context.Context, userID string) (*models.StreakRecord, error)
}

// Strategy computes the current value for one goal type.
type Strategy interface {
	CurrentValue(ctx context.Context, m Metrics, g models.Goal) (int, error)
}

type StrategyFunc func(ctx context.Context, m Metrics, g models.Goal) (int, error)

func (f StrategyFunc) CurrentValue(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	return f(ctx, m, g)
}

// DefaultStrategies covers every goal type with a defined metric.
func DefaultStrategies() map[models.GoalType]Strategy {
	return map[models.GoalType]Strategy{
		models.GoalHabitCompletion:   StrategyFunc(habitCompletion),
		models.GoalStreakAchievement: StrategyFunc(streakAchievement),
		models.GoalWeeklyConsistency: StrategyFunc(weeklyConsistency),
		models.GoalMonthlyTarget:     StrategyFunc(monthlyTarget),
		models.GoalTotalDaysActive:   StrategyFunc(totalDaysActive),
	}
}

type Evaluator struct {
	Metrics    Metrics
	Strategies map[models.GoalType]Strategy
}

func NewEvaluator(m Metrics) *Evaluator {
	return &Evaluator{Metrics: m, Strategies: DefaultStrategies()}
}

// CurrentValue returns 0 for goal types without a strategy.
func (e *Evaluator) CurrentValue(ctx context.Context, g models.Goal) (int, error) {
	s, ok := e.Strategies[g.GoalType]
	if !ok {
		return 0, nil
	}
	v, err := s.CurrentValue(ctx, e.Metrics, g)
	if err != nil {
		return 0, fmt.Errorf("goal %s (%s): %w", g.ID, g.GoalType, err)
	}
	return v, nil
}

// Evaluate scores g as of now.
func (e *Evaluator) Evaluate(ctx context.Context, g models.Goal, now time.Time) (models.GoalProgress, error) {
	current, err := e.CurrentValue(ctx, g)
	if err != nil {
		return models.GoalProgress{}, err
	}
	return Score(g, current, now), nil
}

// Score classifies a goal given its current value. A recorded completion is
// final; otherwise an elapsed end date wins over a reached target.
func Score(g models.Goal, current int, now time.Time) models.GoalProgress {
	today := progress.Day(now)
	end := progress.Day(g.EndDate)

	p := models.GoalProgress{
		GoalID:          g.ID,
		CurrentValue:    current,
		TargetValue:     g.TargetValue,
		ProgressPercent: Percent(current, g.TargetValue),
		DaysRemaining:   max(0, progress.DaysBetween(today, end)),
	}

	switch {
	case g.CompletedAt != nil:
		p.Status = models.GoalCompleted
		completed := *g.CompletedAt
		p.CompletionDate = &completed
	case today.After(end):
		p.Status = models.GoalExpired
	case current >= g.TargetValue:
		p.Status = models.GoalCompleted
		detected := now
		p.CompletionDate = &detected
	default:
		p.Status = models.GoalActive
	}
	return p
}

// Percent is current/target in percent, two decimals, clamped to [0, 100].
func Percent(current, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(current) / float64(target) * 100
	pct = math.Max(0, math.Min(pct, 100))
	return progress.RoundTo(pct, 2)
}

// NewlyCompleted reports whether the score detected a completion that is not yet recorded.
func NewlyCompleted(g models.Goal, p models.GoalProgress) bool {
	return g.CompletedAt == nil && p.Status == models.GoalCompleted && p.CurrentValue >= g.TargetValue
}

func rangeFilter(g models.Goal, withHabit bool) models.CompletionFilter {
	f := models.CompletionFilter{
		UserID: g.UserID,
		From:   progress.Day(g.StartDate),
		To:     progress.Day(g.EndDate),
	}
	if withHabit && g.HabitID != nil {
		f.HabitID = *g.HabitID
	}
	return f
}

func habitCompletion(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	return m.CountCompletions(ctx, rangeFilter(g, true))
}

func streakAchievement(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	rec, err := m.FindLatestStreakRecord(ctx, g.UserID)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Length(), nil
}

func weeklyConsistency(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	f := rangeFilter(g, true)
	f.OnlyCompleted = true
	records, err := m.ListCompletions(ctx, f)
	if err != nil {
		return 0, err
	}
	period := progress.NewPeriod(g.StartDate, g.EndDate)
	return progress.ConsistentWeeks(records, period, ConsistentWeekDays), nil
}

func monthlyTarget(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	return m.SumCompletedCount(ctx, rangeFilter(g, true))
}

func totalDaysActive(ctx context.Context, m Metrics, g models.Goal) (int, error) {
	return m.CountActiveDays(ctx, rangeFilter(g, false))
}
