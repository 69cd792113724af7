package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/JeffyMesquita/habit-tracker-api/internal/achievements"
	"github.com/JeffyMesquita/habit-tracker-api/internal/auth"
	"github.com/JeffyMesquita/habit-tracker-api/internal/events"
	"github.com/JeffyMesquita/habit-tracker-api/internal/goals"
	"github.com/JeffyMesquita/habit-tracker-api/internal/metrics"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 6

// Store is implemented by both the Postgres and the SQLite store.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error

	CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	GetHabit(ctx context.Context, userID, id string) (models.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error)
	DeleteHabit(ctx context.Context, userID, id string) error
	CountHabits(ctx context.Context, userID string) (int, error)

	UpsertCompletion(ctx context.Context, c models.CompletionRecord) (models.CompletionRecord, error)
	ListCompletions(ctx context.Context, f models.CompletionFilter) ([]models.CompletionRecord, error)
	CountCompletions(ctx context.Context, f models.CompletionFilter) (int, error)
	SumCompletedCount(ctx context.Context, f models.CompletionFilter) (int, error)
	CountActiveDays(ctx context.Context, f models.CompletionFilter) (int, error)
	FindLatestStreakRecord(ctx context.Context, userID string) (*models.StreakRecord, error)
	UpsertStreakRecord(ctx context.Context, s models.StreakRecord) (models.StreakRecord, error)

	CreateGoalIfNoOverlap(ctx context.Context, g models.Goal) (models.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (models.Goal, error)
	UpdateGoal(ctx context.Context, g models.Goal) (models.Goal, error)
	MarkGoalCompleted(ctx context.Context, userID, id string, at time.Time) (bool, error)
	ListGoals(ctx context.Context, userID string, f models.GoalFilter) ([]models.Goal, error)
	ListActiveGoals(ctx context.Context, userID string, today time.Time) ([]models.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error

	FindAchievement(ctx context.Context, userID, achievementType string) (*models.Achievement, error)
	InsertAchievement(ctx context.Context, a models.Achievement) (models.Achievement, error)
	GetAchievement(ctx context.Context, userID, id string) (models.Achievement, error)
	ListAchievements(ctx context.Context, userID string, f models.AchievementFilter) ([]models.Achievement, error)
}

type Service struct {
	Store     Store
	Auth      *auth.Manager
	Engine    *achievements.Engine
	Evaluator *goals.Evaluator
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Log       *log.Logger

	TokenTTL   time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

func New(store Store, authManager *auth.Manager, publisher events.Publisher, m *metrics.Metrics, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		Store:      store,
		Auth:       authManager,
		Engine:     achievements.NewEngine(store, publisher, m, logger),
		Evaluator:  goals.NewEvaluator(store),
		Events:     publisher,
		Metrics:    m,
		Log:        logger,
		TokenTTL:   time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	s.SetClock(time.Now)
	return s
}

// SetClock replaces the reference time for the service, its engine and token checks.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.Engine.Now = now
	if s.Auth != nil {
		s.Auth.Now = now
	}
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", models.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must have at least %d characters", models.ErrValidation, minPasswordLength)
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	userID, err := s.Store.CreateUser(ctx, email, hash)
	if err != nil {
		return "", err
	}
	s.logInfo("user registered", "user", userID)
	return userID, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if err := s.Auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", "", ErrInvalidCredentials
	}
	accessToken, err := s.Auth.GenerateToken(user.ID, s.TokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.Store.CreateSession(ctx, user.ID, refreshToken, s.Now().Add(s.RefreshTTL)); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *Service) Me(ctx context.Context, userID string) (models.User, error) {
	return s.Store.GetUserByID(ctx, userID)
}

func (s *Service) generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *Service) publish(ctx context.Context, eventType, userID string, payload any) {
	err := s.Events.Publish(ctx, events.Event{Type: eventType, UserID: userID, OccurredAt: s.Now().UTC(), Payload: payload})
	if err != nil {
		s.logWarn("publish event failed", "type", eventType, "err", err)
	}
}

func (s *Service) logInfo(msg string, kv ...any) {
	if s.Log != nil {
		s.Log.Info(msg, kv...)
	}
}

func (s *Service) logWarn(msg string, kv ...any) {
	if s.Log != nil {
		s.Log.Warn(msg, kv...)
	}
}
