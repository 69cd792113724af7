package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/events"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

const (
	MinFrequency       = 1
	MaxFrequency       = 10
	maxTitleLength     = 100
	momentLayout       = "15:04"
	defaultHistoryDays = 30
)

type HabitInput struct {
	Title     string
	Frequency int
	WeekDays  []int
	Moment    *string
}

// HabitPatch leaves nil fields unchanged.
type HabitPatch struct {
	Title     *string
	Frequency *int
	WeekDays  *[]int
	Moment    *string
}

func normalizeHabit(h *models.Habit) error {
	h.Title = strings.TrimSpace(h.Title)
	if h.Title == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if len(h.Title) > maxTitleLength {
		return fmt.Errorf("%w: title must have at most %d characters", models.ErrValidation, maxTitleLength)
	}
	if h.Frequency < MinFrequency || h.Frequency > MaxFrequency {
		return fmt.Errorf("%w: frequency must be between %d and %d", models.ErrValidation, MinFrequency, MaxFrequency)
	}
	seen := make(map[int]bool, len(h.WeekDays))
	days := make([]int, 0, len(h.WeekDays))
	for _, d := range h.WeekDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: week day %d out of range 0-6", models.ErrValidation, d)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)
	h.WeekDays = days
	if h.Moment != nil {
		m := strings.TrimSpace(*h.Moment)
		if m == "" {
			h.Moment = nil
		} else if _, err := time.Parse(momentLayout, m); err != nil {
			return fmt.Errorf("%w: moment must be HH:MM", models.ErrValidation)
		} else {
			h.Moment = &m
		}
	}
	return nil
}

func (s *Service) CreateHabit(ctx context.Context, userID string, in HabitInput) (models.Habit, error) {
	h := models.Habit{UserID: userID, Title: in.Title, Frequency: in.Frequency, WeekDays: in.WeekDays, Moment: in.Moment}
	if h.Frequency == 0 {
		h.Frequency = MinFrequency
	}
	if err := normalizeHabit(&h); err != nil {
		return models.Habit{}, err
	}
	created, err := s.Store.CreateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, err
	}

	s.publish(ctx, events.HabitCreated, userID, map[string]string{"habit_id": created.ID})
	if _, err := s.Engine.HandleHabitCreation(ctx, userID, created.ID); err != nil {
		s.logWarn("habit creation achievements failed", "user", userID, "habit", created.ID, "err", err)
	}
	return created, nil
}

// ListHabits returns every habit, or only those scheduled on day when it is set.
func (s *Service) ListHabits(ctx context.Context, userID string, day *time.Time) ([]models.Habit, error) {
	habits, err := s.Store.ListHabits(ctx, userID)
	if err != nil || day == nil {
		return habits, err
	}
	weekday := progress.Day(*day).Weekday()
	scheduled := []models.Habit{}
	for _, h := range habits {
		if h.ScheduledOn(weekday) {
			scheduled = append(scheduled, h)
		}
	}
	return scheduled, nil
}

func (s *Service) GetHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	return s.Store.GetHabit(ctx, userID, id)
}

func (s *Service) UpdateHabit(ctx context.Context, userID, id string, p HabitPatch) (models.Habit, error) {
	h, err := s.Store.GetHabit(ctx, userID, id)
	if err != nil {
		return models.Habit{}, err
	}
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.WeekDays != nil {
		h.WeekDays = *p.WeekDays
	}
	if p.Moment != nil {
		h.Moment = p.Moment
	}
	if err := normalizeHabit(&h); err != nil {
		return models.Habit{}, err
	}
	return s.Store.UpdateHabit(ctx, h)
}

func (s *Service) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.Store.DeleteHabit(ctx, userID, id)
}

type CompletionResult struct {
	Completion     models.CompletionRecord `json:"progress"`
	Streak         progress.StreakResult   `json:"streak"`
	Unlocked       []models.Achievement    `json:"unlocked_achievements"`
	CompletedGoals []models.Goal           `json:"completed_goals"`
}

// RecordCompletion upserts the day's count for a habit, then maintains the
// habit's streak record, runs the progress achievement triggers and checks
// active goals. Only the upsert can fail the call; the follow-ups are logged.
func (s *Service) RecordCompletion(ctx context.Context, userID, habitID string, date time.Time, count int) (CompletionResult, error) {
	if count < 0 {
		return CompletionResult{}, fmt.Errorf("%w: completed_count must not be negative", models.ErrValidation)
	}
	habit, err := s.Store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return CompletionResult{}, err
	}
	if date.IsZero() {
		date = s.Now()
	}
	day := progress.Day(date)
	if day.After(progress.Day(s.Now())) {
		return CompletionResult{}, fmt.Errorf("%w: date cannot be in the future", models.ErrValidation)
	}

	rec, err := s.Store.UpsertCompletion(ctx, models.CompletionRecord{
		UserID: userID, HabitID: habit.ID, Date: day, CompletedCount: count,
	})
	if err != nil {
		return CompletionResult{}, err
	}
	s.Metrics.CompletionRecorded()
	s.publish(ctx, events.ProgressRecorded, userID, map[string]any{
		"habit_id": habit.ID, "date": day.Format(progress.DateLayout), "completed_count": count,
	})

	res := CompletionResult{Completion: rec, Unlocked: []models.Achievement{}, CompletedGoals: []models.Goal{}}

	res.Streak, err = s.refreshStreak(ctx, userID, habit.ID)
	if err != nil {
		s.logWarn("streak update failed", "user", userID, "habit", habit.ID, "err", err)
	}

	unlocked, err := s.Engine.HandleProgressUpdate(ctx, userID, habit.ID, res.Streak.CurrentStreak)
	res.Unlocked = append(res.Unlocked, unlocked...)
	if err != nil {
		s.logWarn("progress achievements failed", "user", userID, "habit", habit.ID, "err", err)
	}

	completed, err := s.CheckGoalCompletions(ctx, userID)
	res.CompletedGoals = append(res.CompletedGoals, completed...)
	if err != nil {
		s.logWarn("goal completion check failed", "user", userID, "err", err)
	}
	return res, nil
}

// refreshStreak recomputes the habit's streaks and persists the current run.
func (s *Service) refreshStreak(ctx context.Context, userID, habitID string) (progress.StreakResult, error) {
	records, err := s.Store.ListCompletions(ctx, models.CompletionFilter{UserID: userID, HabitID: habitID, OnlyCompleted: true})
	if err != nil {
		return progress.StreakResult{History: []time.Time{}}, err
	}
	streak := progress.ComputeStreaks(progress.CompletedDates(records), s.Now())
	if streak.CurrentStreak == 0 {
		return streak, nil
	}
	_, err = s.Store.UpsertStreakRecord(ctx, models.StreakRecord{
		UserID:    userID,
		HabitID:   habitID,
		StartDate: streak.CurrentStart,
		EndDate:   streak.CurrentStart.AddDate(0, 0, streak.CurrentStreak-1),
	})
	return streak, err
}

type HabitProgress struct {
	Habit      models.Habit              `json:"habit"`
	Progress   []models.CompletionRecord `json:"progress"`
	Statistics progress.Summary          `json:"statistics"`
	Period     progress.Period           `json:"period"`
	Streak     progress.StreakResult     `json:"streak"`
}

// HabitProgress reports a habit's records and statistics for [start, end].
// A zero end means today; a zero start means 30 days before end.
func (s *Service) HabitProgress(ctx context.Context, userID, habitID string, start, end time.Time) (HabitProgress, error) {
	habit, err := s.Store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return HabitProgress{}, err
	}
	if end.IsZero() {
		end = s.Now()
	}
	if start.IsZero() {
		start = progress.Day(end).AddDate(0, 0, -defaultHistoryDays)
	}
	period := progress.NewPeriod(start, end)
	if period.Days() == 0 {
		return HabitProgress{}, fmt.Errorf("%w: start must not be after end", models.ErrValidation)
	}

	records, err := s.Store.ListCompletions(ctx, models.CompletionFilter{
		UserID: userID, HabitID: habit.ID, From: period.Start, To: period.End,
	})
	if err != nil {
		return HabitProgress{}, err
	}
	all, err := s.Store.ListCompletions(ctx, models.CompletionFilter{UserID: userID, HabitID: habit.ID, OnlyCompleted: true})
	if err != nil {
		return HabitProgress{}, err
	}

	return HabitProgress{
		Habit:      habit,
		Progress:   records,
		Statistics: progress.AggregateProgress(records, habit.Frequency, period),
		Period:     period,
		Streak:     progress.ComputeStreaks(progress.CompletedDates(all), s.Now()),
	}, nil
}
