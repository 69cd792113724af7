// Package achievements decides which achievements a user has earned and
// records each unlock at most once per user and type.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JeffyMesquita/habit-tracker-api/internal/events"
	"github.com/JeffyMesquita/habit-tracker-api/internal/metrics"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

// Store is what the engine needs from persistence. InsertAchievement must
// fail with models.ErrConflict when the (user, type) pair already exists.
type Store interface {
	CountHabits(ctx context.Context, userID string) (int, error)
	CountCompletions(ctx context.Context, f models.CompletionFilter) (int, error)
	CountActiveDays(ctx context.Context, f models.CompletionFilter) (int, error)
	FindLatestStreakRecord(ctx context.Context, userID string) (*models.StreakRecord, error)
	FindAchievement(ctx context.Context, userID, achievementType string) (*models.Achievement, error)
	InsertAchievement(ctx context.Context, a models.Achievement) (models.Achievement, error)
}

type UnlockRequest struct {
	Type        string
	Description string
	HabitID     *string
	GoalID      *string
}

type Engine struct {
	Store   Store
	Catalog *Catalog
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *log.Logger
	Now     func() time.Time
}

func NewEngine(store Store, publisher events.Publisher, m *metrics.Metrics, logger *log.Logger) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{
		Store:   store,
		Catalog: DefaultCatalog(),
		Events:  publisher,
		Metrics: m,
		Log:     logger,
		Now:     time.Now,
	}
}

// Unlock records achievement req.Type for userID. It fails with
// models.ErrConflict when already unlocked and models.ErrConditionsNotMet
// when the type has a rule the user does not satisfy. Types without a rule
// are always granted.
func (e *Engine) Unlock(ctx context.Context, userID string, req UnlockRequest) (models.Achievement, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		return models.Achievement{}, fmt.Errorf("%w: achievement_type required", models.ErrValidation)
	}

	existing, err := e.Store.FindAchievement(ctx, userID, req.Type)
	if err != nil {
		return models.Achievement{}, err
	}
	if existing != nil {
		return models.Achievement{}, fmt.Errorf("%w: achievement %s already unlocked", models.ErrConflict, req.Type)
	}

	ok, err := e.conditionsMet(ctx, userID, req.Type)
	if err != nil {
		return models.Achievement{}, err
	}
	if !ok {
		return models.Achievement{}, fmt.Errorf("%w: %s", models.ErrConditionsNotMet, req.Type)
	}

	a, err := e.Store.InsertAchievement(ctx, models.Achievement{
		UserID:          userID,
		AchievementType: req.Type,
		Timestamp:       e.Now().UTC(),
		Details: models.AchievementDetails{
			Description: req.Description,
			HabitID:     req.HabitID,
			GoalID:      req.GoalID,
		},
	})
	if err != nil {
		return models.Achievement{}, err
	}

	e.Metrics.AchievementUnlocked(a.AchievementType)
	if e.Log != nil {
		e.Log.Info("achievement unlocked", "user", userID, "type", a.AchievementType)
	}
	e.publish(ctx, events.Event{
		Type:       events.AchievementUnlocked,
		UserID:     userID,
		OccurredAt: a.Timestamp,
		Payload:    map[string]string{"achievement_id": a.ID, "achievement_type": a.AchievementType},
	})
	return a, nil
}

func (e *Engine) conditionsMet(ctx context.Context, userID, achievementType string) (bool, error) {
	if achievementType == FirstHabitCreated {
		n, err := e.Store.CountHabits(ctx, userID)
		if err != nil {
			return false, err
		}
		return n >= 1, nil
	}

	if days, ok := threshold(achievementType, streakPrefix, StreakMilestones); ok {
		rec, err := e.Store.FindLatestStreakRecord(ctx, userID)
		if err != nil {
			return false, err
		}
		return rec != nil && rec.Length() >= days, nil
	}

	if count, ok := threshold(achievementType, completionPrefix, CompletionMilestones); ok {
		n, err := e.Store.CountCompletions(ctx, models.CompletionFilter{UserID: userID})
		if err != nil {
			return false, err
		}
		return n >= count, nil
	}

	return true, nil
}

// threshold parses the numeric suffix of types such as habit_streak_30. Only
// suffixes listed in milestones carry a precondition.
func threshold(achievementType, prefix string, milestones []int) (int, bool) {
	rest, found := strings.CutPrefix(achievementType, prefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || !slices.Contains(milestones, n) {
		return 0, false
	}
	return n, true
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if err := e.Events.Publish(ctx, ev); err != nil && e.Log != nil {
		e.Log.Warn("publish event failed", "type", ev.Type, "err", err)
	}
}

// IsAlreadyUnlocked reports whether err is the conflict returned for a repeated unlock.
func IsAlreadyUnlocked(err error) bool {
	return errors.Is(err, models.ErrConflict)
}
