package http

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JeffyMesquita/habit-tracker-api/internal/auth"
	"github.com/JeffyMesquita/habit-tracker-api/internal/metrics"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

type API struct {
	Service *service.Service
	Auth    *auth.Manager
	Metrics *metrics.Metrics
	Log     *log.Logger
	Origins []string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(a.instrument)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)
	if a.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Get("/me", a.handleMe)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", a.handleListHabits)
			r.Post("/", a.handleCreateHabit)
			r.Get("/{id}", a.handleGetHabit)
			r.Put("/{id}", a.handleUpdateHabit)
			r.Delete("/{id}", a.handleDeleteHabit)
			r.Post("/{id}/progress", a.handleRecordProgress)
			r.Get("/{id}/progress", a.handleHabitProgress)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", a.handleListGoals)
			r.Post("/", a.handleCreateGoal)
			r.Get("/{id}", a.handleGetGoal)
			r.Put("/{id}", a.handleUpdateGoal)
			r.Delete("/{id}", a.handleDeleteGoal)
			r.Get("/{id}/progress", a.handleGoalProgress)
			r.Post("/{id}/complete", a.handleCompleteGoal)
		})
		r.Route("/achievements", func(r chi.Router) {
			r.Get("/", a.handleListAchievements)
			r.Post("/", a.handleUnlockAchievement)
			r.Get("/stats", a.handleAchievementStats)
			r.Get("/{id}", a.handleGetAchievement)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", a.handleDashboard)
			r.Get("/streaks", a.handleStreaks)
		})
	})

	return r
}
