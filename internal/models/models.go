package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Frequency int       `json:"frequency"`
	WeekDays  []int     `json:"week_days"`
	Moment    *string   `json:"moment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduledOn reports whether the habit is due on the given weekday.
// A habit without a weekday schedule is due every day.
func (h Habit) ScheduledOn(day time.Weekday) bool {
	if len(h.WeekDays) == 0 {
		return true
	}
	for _, d := range h.WeekDays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// CompletionRecord is one day's logged count for a habit. Date is a UTC calendar day.
type CompletionRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	HabitID        string    `json:"habit_id"`
	Date           time.Time `json:"date"`
	CompletedCount int       `json:"completed_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// CompletionFilter selects completion records. Zero From/To leave that side open.
type CompletionFilter struct {
	UserID        string
	HabitID       string
	From          time.Time
	To            time.Time
	OnlyCompleted bool
	Limit         int
}

type StreakRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	HabitID   string    `json:"habit_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Length is the inclusive number of days covered by the record.
func (s StreakRecord) Length() int {
	return int(s.EndDate.Sub(s.StartDate).Hours()/24) + 1
}

type GoalType string

const (
	GoalHabitCompletion   GoalType = "habit_completion"
	GoalStreakAchievement GoalType = "streak_achievement"
	GoalWeeklyConsistency GoalType = "weekly_consistency"
	GoalMonthlyTarget     GoalType = "monthly_target"
	GoalHabitFrequency    GoalType = "habit_frequency"
	GoalTotalDaysActive   GoalType = "total_days_active"
)

// Valid reports whether t is accepted on goal creation.
func (t GoalType) Valid() bool {
	switch t {
	case GoalHabitCompletion, GoalStreakAchievement, GoalWeeklyConsistency,
		GoalMonthlyTarget, GoalHabitFrequency, GoalTotalDaysActive:
		return true
	}
	return false
}

type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	GoalType    GoalType   `json:"goal_type"`
	TargetValue int        `json:"target_value"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	HabitID     *string    `json:"habit_id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    int        `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalExpired   GoalStatus = "expired"
)

type GoalProgress struct {
	GoalID          string     `json:"goal_id"`
	CurrentValue    int        `json:"current_value"`
	TargetValue     int        `json:"target_value"`
	ProgressPercent float64    `json:"progress"`
	Status          GoalStatus `json:"status"`
	DaysRemaining   int        `json:"days_remaining"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
}

// GoalFilter narrows goal listings. Status is one of active, expired, completed or empty/all;
// Today decides which uncompleted goals have expired.
type GoalFilter struct {
	Today     time.Time
	GoalType  GoalType
	Status    string
	StartFrom time.Time
	EndUntil  time.Time
	SortBy    string
	Desc      bool
	Limit     int
	Offset    int
}

type GoalPatch struct {
	GoalType    *GoalType
	TargetValue *int
	StartDate   *time.Time
	EndDate     *time.Time
	HabitID     *string
	Title       *string
	Description *string
	Priority    *int
}

type Achievement struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	AchievementType string             `json:"achievement_type"`
	Timestamp       time.Time          `json:"timestamp"`
	Details         AchievementDetails `json:"details"`
}

type AchievementFilter struct {
	AchievementType string
	From            time.Time
	To              time.Time
	Desc            bool
	Limit           int
	Offset          int
}
