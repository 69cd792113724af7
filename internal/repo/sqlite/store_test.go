package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedHabit(t *testing.T, s *Store) (userID, habitID string) {
	t.Helper()
	ctx := context.Background()
	userID, err := s.CreateUser(ctx, "a@b.com", "hash")
	require.NoError(t, err)
	h, err := s.CreateHabit(ctx, models.Habit{UserID: userID, Title: "Read", Frequency: 1, WeekDays: []int{1, 3, 5}})
	require.NoError(t, err)
	return userID, h.ID
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "a@b.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "a@b.com", "other")
	require.ErrorIs(t, err, models.ErrConflict)

	u, err := s.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = s.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.CreateSession(ctx, id, "token", time.Now().Add(time.Hour)))
}

func TestHabitCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)

	h, err := s.GetHabit(ctx, userID, habitID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, h.WeekDays)
	assert.Nil(t, h.Moment)

	_, err = s.CreateHabit(ctx, models.Habit{UserID: userID, Title: "Read", Frequency: 1})
	require.ErrorIs(t, err, models.ErrConflict)

	moment := "07:30"
	h.Title = "Read more"
	h.Moment = &moment
	updated, err := s.UpdateHabit(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Title)
	require.NotNil(t, updated.Moment)
	assert.Equal(t, "07:30", *updated.Moment)

	n, err := s.CountHabits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteHabit(ctx, userID, habitID))
	require.ErrorIs(t, s.DeleteHabit(ctx, userID, habitID), models.ErrNotFound)

	list, err := s.ListHabits(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCompletionUpsertLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)

	first, err := s.UpsertCompletion(ctx, models.CompletionRecord{UserID: userID, HabitID: habitID, Date: day("2025-01-01"), CompletedCount: 1})
	require.NoError(t, err)
	second, err := s.UpsertCompletion(ctx, models.CompletionRecord{UserID: userID, HabitID: habitID, Date: day("2025-01-01"), CompletedCount: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.CompletedCount)
	assert.Equal(t, day("2025-01-01"), second.Date)

	n, err := s.CountCompletions(ctx, models.CompletionFilter{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompletionAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)
	other, err := s.CreateHabit(ctx, models.Habit{UserID: userID, Title: "Run", Frequency: 2})
	require.NoError(t, err)

	for _, c := range []models.CompletionRecord{
		{HabitID: habitID, Date: day("2025-01-01"), CompletedCount: 1},
		{HabitID: habitID, Date: day("2025-01-02"), CompletedCount: 2},
		{HabitID: habitID, Date: day("2025-01-03"), CompletedCount: 0},
		{HabitID: other.ID, Date: day("2025-01-02"), CompletedCount: 1},
		{HabitID: other.ID, Date: day("2025-02-01"), CompletedCount: 1},
	} {
		c.UserID = userID
		_, err := s.UpsertCompletion(ctx, c)
		require.NoError(t, err)
	}

	jan := models.CompletionFilter{UserID: userID, From: day("2025-01-01"), To: day("2025-01-31")}

	n, err := s.CountCompletions(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	sum, err := s.SumCompletedCount(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, 4, sum)

	active, err := s.CountActiveDays(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, 2, active)

	habitOnly := jan
	habitOnly.HabitID = habitID
	habitOnly.OnlyCompleted = true
	list, err := s.ListCompletions(ctx, habitOnly)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, day("2025-01-02"), list[0].Date, "newest first")

	empty, err := s.SumCompletedCount(ctx, models.CompletionFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestStreakRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)

	rec, err := s.FindLatestStreakRecord(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.UpsertStreakRecord(ctx, models.StreakRecord{UserID: userID, HabitID: habitID, StartDate: day("2025-01-01"), EndDate: day("2025-01-02")})
	require.NoError(t, err)
	extended, err := s.UpsertStreakRecord(ctx, models.StreakRecord{UserID: userID, HabitID: habitID, StartDate: day("2025-01-01"), EndDate: day("2025-01-07")})
	require.NoError(t, err)
	assert.Equal(t, 7, extended.Length())

	_, err = s.UpsertStreakRecord(ctx, models.StreakRecord{UserID: userID, HabitID: habitID, StartDate: day("2024-12-01"), EndDate: day("2024-12-20")})
	require.NoError(t, err)

	rec, err = s.FindLatestStreakRecord(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, day("2025-01-07"), rec.EndDate)
	assert.Equal(t, 7, rec.Length())
}

func TestGoalOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)

	g := models.Goal{UserID: userID, GoalType: models.GoalHabitCompletion, TargetValue: 10,
		StartDate: day("2025-01-01"), EndDate: day("2025-01-31"), HabitID: &habitID, Priority: 3}
	created, err := s.CreateGoalIfNoOverlap(ctx, g)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.HabitID)
	assert.Equal(t, habitID, *created.HabitID)

	overlapping := g
	overlapping.StartDate, overlapping.EndDate = day("2025-01-31"), day("2025-02-10")
	_, err = s.CreateGoalIfNoOverlap(ctx, overlapping)
	require.ErrorIs(t, err, models.ErrConflict)

	otherType := overlapping
	otherType.GoalType = models.GoalMonthlyTarget
	_, err = s.CreateGoalIfNoOverlap(ctx, otherType)
	require.NoError(t, err)

	after := g
	after.StartDate, after.EndDate = day("2025-02-01"), day("2025-02-28")
	_, err = s.CreateGoalIfNoOverlap(ctx, after)
	require.NoError(t, err)
}

func TestGoalLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, _ := seedHabit(t, s)
	today := day("2025-01-15")

	mk := func(goalType models.GoalType, start, end string, priority int) models.Goal {
		g, err := s.CreateGoalIfNoOverlap(ctx, models.Goal{UserID: userID, GoalType: goalType, TargetValue: 5,
			StartDate: day(start), EndDate: day(end), Priority: priority})
		require.NoError(t, err)
		return g
	}
	active := mk(models.GoalHabitCompletion, "2025-01-10", "2025-01-31", 1)
	expired := mk(models.GoalMonthlyTarget, "2024-12-01", "2024-12-31", 5)
	done := mk(models.GoalTotalDaysActive, "2025-01-01", "2025-01-31", 3)

	ok, err := s.MarkGoalCompleted(ctx, userID, done.ID, today)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.MarkGoalCompleted(ctx, userID, done.ID, today.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "completed_at is set once")
	_, err = s.MarkGoalCompleted(ctx, userID, "missing", today)
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.GetGoal(ctx, userID, done.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, today, *got.CompletedAt)

	ids := func(goals []models.Goal) []string {
		var out []string
		for _, g := range goals {
			out = append(out, g.ID)
		}
		return out
	}

	list, err := s.ListActiveGoals(ctx, userID, today)
	require.NoError(t, err)
	assert.Equal(t, []string{active.ID}, ids(list))

	list, err = s.ListGoals(ctx, userID, models.GoalFilter{Status: "expired", Today: today})
	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID}, ids(list))

	list, err = s.ListGoals(ctx, userID, models.GoalFilter{Status: "completed", Today: today})
	require.NoError(t, err)
	assert.Equal(t, []string{done.ID}, ids(list))

	list, err = s.ListGoals(ctx, userID, models.GoalFilter{SortBy: "priority", Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID, done.ID}, ids(list))

	list, err = s.ListGoals(ctx, userID, models.GoalFilter{SortBy: "priority", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID}, ids(list))

	title := "January reading"
	active.Title = &title
	active.TargetValue = 20
	updated, err := s.UpdateGoal(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, 20, updated.TargetValue)
	require.NotNil(t, updated.Title)
	assert.Equal(t, title, *updated.Title)

	require.NoError(t, s.DeleteGoal(ctx, userID, active.ID))
	require.ErrorIs(t, s.DeleteGoal(ctx, userID, active.ID), models.ErrNotFound)
}

func TestAchievements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, habitID := seedHabit(t, s)
	at := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	found, err := s.FindAchievement(ctx, userID, "habit_streak_7")
	require.NoError(t, err)
	assert.Nil(t, found)

	a, err := s.InsertAchievement(ctx, models.Achievement{UserID: userID, AchievementType: "habit_streak_7", Timestamp: at,
		Details: models.AchievementDetails{Description: "seven", HabitID: &habitID}})
	require.NoError(t, err)
	assert.Equal(t, at, a.Timestamp)
	assert.Equal(t, "seven", a.Details.Description)
	require.NotNil(t, a.Details.HabitID)

	_, err = s.InsertAchievement(ctx, models.Achievement{UserID: userID, AchievementType: "habit_streak_7", Timestamp: at})
	require.ErrorIs(t, err, models.ErrConflict)

	_, err = s.InsertAchievement(ctx, models.Achievement{UserID: userID, AchievementType: "early_adopter", Timestamp: at.Add(time.Hour)})
	require.NoError(t, err)

	found, err = s.FindAchievement(ctx, userID, "habit_streak_7")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.ID, found.ID)

	list, err := s.ListAchievements(ctx, userID, models.AchievementFilter{Desc: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early_adopter", list[0].AchievementType)

	list, err = s.ListAchievements(ctx, userID, models.AchievementFilter{From: at.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.GetAchievement(ctx, userID, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLegacyDetailsDegrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, _ := seedHabit(t, s)

	_, err := s.db.ExecContext(ctx, `INSERT INTO achievements (id, user_id, achievement_type, unlocked_at, details)
		VALUES ('x1', ?, 'early_adopter', ?, 'joined in beta')`, userID, formatTimestamp(time.Now()))
	require.NoError(t, err)

	a, err := s.GetAchievement(ctx, userID, "x1")
	require.NoError(t, err)
	assert.Equal(t, "joined in beta", a.Details.Description)
}
