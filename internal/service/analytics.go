package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
)

const defaultStreakLimit = 10

type DashboardFilter struct {
	Period  progress.PeriodKind
	Start   time.Time
	End     time.Time
	Details bool
	Trends  bool
}

type DashboardPeriod struct {
	Type  progress.PeriodKind `json:"type"`
	Start string              `json:"start_date"`
	End   string              `json:"end_date"`
}

type StreakStats struct {
	CurrentStreaks int `json:"current_streaks"`
	LongestOverall int `json:"longest_overall"`
	AverageCurrent int `json:"average_current"`
}

type DashboardSummary struct {
	TotalHabits           int         `json:"total_habits"`
	ActiveHabits          int         `json:"active_habits"`
	TotalProgress         int         `json:"total_progress"`
	OverallCompletionRate float64     `json:"overall_completion_rate"`
	Streaks               StreakStats `json:"streaks"`
}

type HabitDetail struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Frequency      int        `json:"frequency"`
	CompletionRate float64    `json:"completion_rate"`
	TotalDays      int        `json:"total_days"`
	CompletedCount int        `json:"completed_count"`
	LastActivity   *time.Time `json:"last_activity"`
	Streak         int        `json:"streak"`
}

type Trends struct {
	Weekly    []progress.WeekBucket   `json:"weekly_progress"`
	Direction progress.TrendDirection `json:"trend"`
}

type Dashboard struct {
	Period       DashboardPeriod  `json:"period"`
	Summary      DashboardSummary `json:"summary"`
	HabitDetails []HabitDetail    `json:"habit_details,omitempty"`
	Trends       *Trends          `json:"trends,omitempty"`
}

// dashboardPeriod resolves the reporting window. A custom range needs both ends.
func (s *Service) dashboardPeriod(f DashboardFilter) (progress.Period, progress.PeriodKind, error) {
	kind := f.Period
	if kind == "" {
		kind = progress.PeriodMonth
	}
	if !f.Start.IsZero() && !f.End.IsZero() {
		p := progress.NewPeriod(f.Start, f.End)
		if p.Days() == 0 {
			return progress.Period{}, "", fmt.Errorf("%w: start must not be after end", models.ErrValidation)
		}
		return p, kind, nil
	}
	p, err := progress.PeriodRange(kind, s.Now())
	if err != nil {
		return progress.Period{}, "", fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return p, kind, nil
}

// Dashboard summarises the user's habits over a calendar period.
func (s *Service) Dashboard(ctx context.Context, userID string, f DashboardFilter) (Dashboard, error) {
	period, kind, err := s.dashboardPeriod(f)
	if err != nil {
		return Dashboard{}, err
	}
	habits, err := s.Store.ListHabits(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	inPeriod, err := s.Store.ListCompletions(ctx, models.CompletionFilter{UserID: userID, From: period.Start, To: period.End})
	if err != nil {
		return Dashboard{}, err
	}
	completed, err := s.Store.ListCompletions(ctx, models.CompletionFilter{UserID: userID, OnlyCompleted: true})
	if err != nil {
		return Dashboard{}, err
	}

	byHabit := groupByHabit(inPeriod)
	streaks := s.habitStreaks(habits, groupByHabit(completed))
	frequency := make(map[string]int, len(habits))
	for _, h := range habits {
		frequency[h.ID] = h.Frequency
	}

	summary := DashboardSummary{TotalHabits: len(habits), ActiveHabits: len(byHabit)}
	possible := 0
	for _, r := range inPeriod {
		summary.TotalProgress += r.CompletedCount
		possible += frequency[r.HabitID]
	}
	summary.OverallCompletionRate = progress.CompletionRate(summary.TotalProgress, possible)
	summary.Streaks = streakStats(streaks)

	d := Dashboard{
		Period: DashboardPeriod{
			Type:  kind,
			Start: period.Start.Format(progress.DateLayout),
			End:   period.End.Format(progress.DateLayout),
		},
		Summary: summary,
	}
	if f.Details {
		d.HabitDetails = make([]HabitDetail, 0, len(habits))
		for _, h := range habits {
			d.HabitDetails = append(d.HabitDetails, habitDetail(h, byHabit[h.ID], streaks[h.ID].CurrentStreak))
		}
	}
	if f.Trends {
		buckets := progress.WeeklyBuckets(inPeriod, period)
		d.Trends = &Trends{Weekly: buckets, Direction: progress.Trend(buckets)}
	}
	return d, nil
}

// habitDetail measures records (newest first) against one possible
// completion set per logged day.
func habitDetail(h models.Habit, records []models.CompletionRecord, streak int) HabitDetail {
	d := HabitDetail{ID: h.ID, Title: h.Title, Frequency: h.Frequency, TotalDays: len(records), Streak: streak}
	for _, r := range records {
		d.CompletedCount += r.CompletedCount
	}
	d.CompletionRate = progress.CompletionRate(d.CompletedCount, d.TotalDays*h.Frequency)
	if len(records) > 0 {
		last := records[0].Date
		d.LastActivity = &last
	}
	return d
}

func groupByHabit(records []models.CompletionRecord) map[string][]models.CompletionRecord {
	out := make(map[string][]models.CompletionRecord)
	for _, r := range records {
		out[r.HabitID] = append(out[r.HabitID], r)
	}
	return out
}

func (s *Service) habitStreaks(habits []models.Habit, completed map[string][]models.CompletionRecord) map[string]progress.StreakResult {
	out := make(map[string]progress.StreakResult, len(habits))
	for _, h := range habits {
		out[h.ID] = progress.ComputeStreaks(progress.CompletedDates(completed[h.ID]), s.Now())
	}
	return out
}

func streakStats(streaks map[string]progress.StreakResult) StreakStats {
	var st StreakStats
	total := 0
	for _, r := range streaks {
		if r.CurrentStreak > 0 {
			st.CurrentStreaks++
		}
		st.LongestOverall = max(st.LongestOverall, r.LongestStreak)
		total += r.CurrentStreak
	}
	st.AverageCurrent = average(total, len(streaks))
	return st
}

func average(total, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(n)))
}

type StreakKind string

const (
	StreaksAll     StreakKind = "all"
	StreaksCurrent StreakKind = "current"
	StreaksLongest StreakKind = "longest"
)

type StreaksFilter struct {
	HabitID    string
	Type       StreakKind
	Limit      int
	ActiveOnly bool
}

type HabitStreak struct {
	HabitID          string      `json:"habit_id"`
	HabitTitle       string      `json:"habit_title"`
	CurrentStreak    int         `json:"current_streak"`
	LongestStreak    int         `json:"longest_streak"`
	TotalCompletions int         `json:"total_completions"`
	LastActivity     *time.Time  `json:"last_activity"`
	IsActive         bool        `json:"is_active"`
	History          []time.Time `json:"streak_history"`
}

type StreaksSummary struct {
	TotalHabits   int `json:"total_habits"`
	ActiveStreaks int `json:"active_streaks"`
	LongestStreak int `json:"longest_streak"`
	AverageStreak int `json:"average_streak"`
}

type StreaksReport struct {
	Streaks []HabitStreak  `json:"streaks"`
	Summary StreaksSummary `json:"summary"`
}

// Streaks lists per-habit streaks. At most Limit habits are considered; the
// summary covers them after the active filter and before the type filter.
func (s *Service) Streaks(ctx context.Context, userID string, f StreaksFilter) (StreaksReport, error) {
	switch f.Type {
	case "":
		f.Type = StreaksAll
	case StreaksAll, StreaksCurrent, StreaksLongest:
	default:
		return StreaksReport{}, fmt.Errorf("%w: unknown streak type %q", models.ErrValidation, f.Type)
	}
	if f.Limit == 0 {
		f.Limit = defaultStreakLimit
	}
	if f.Limit < 1 {
		return StreaksReport{}, fmt.Errorf("%w: limit must be at least 1", models.ErrValidation)
	}

	var habits []models.Habit
	if f.HabitID != "" {
		h, err := s.Store.GetHabit(ctx, userID, f.HabitID)
		if err != nil {
			return StreaksReport{}, err
		}
		habits = []models.Habit{h}
	} else {
		all, err := s.Store.ListHabits(ctx, userID)
		if err != nil {
			return StreaksReport{}, err
		}
		habits = all[:min(f.Limit, len(all))]
	}

	entries := make([]HabitStreak, 0, len(habits))
	for _, h := range habits {
		records, err := s.Store.ListCompletions(ctx, models.CompletionFilter{UserID: userID, HabitID: h.ID})
		if err != nil {
			return StreaksReport{}, err
		}
		streak := progress.ComputeStreaks(progress.CompletedDates(records), s.Now())
		e := HabitStreak{
			HabitID:          h.ID,
			HabitTitle:       h.Title,
			CurrentStreak:    streak.CurrentStreak,
			LongestStreak:    streak.LongestStreak,
			TotalCompletions: len(records),
			IsActive:         streak.CurrentStreak > 0,
			History:          streak.History,
		}
		if len(records) > 0 {
			last := records[0].Date
			e.LastActivity = &last
		}
		if f.ActiveOnly && !e.IsActive {
			continue
		}
		entries = append(entries, e)
	}

	report := StreaksReport{Summary: StreaksSummary{TotalHabits: len(habits)}}
	current := 0
	for _, e := range entries {
		if e.IsActive {
			report.Summary.ActiveStreaks++
		}
		report.Summary.LongestStreak = max(report.Summary.LongestStreak, e.LongestStreak)
		current += e.CurrentStreak
	}
	report.Summary.AverageStreak = average(current, len(entries))

	switch f.Type {
	case StreaksCurrent:
		active := make([]HabitStreak, 0, len(entries))
		for _, e := range entries {
			if e.CurrentStreak > 0 {
				active = append(active, e)
			}
		}
		entries = active
	case StreaksLongest:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].LongestStreak > entries[j].LongestStreak })
		entries = entries[:min(f.Limit, len(entries))]
	}
	report.Streaks = entries
	return report, nil
}
