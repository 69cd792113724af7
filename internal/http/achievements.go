package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/achievements"
	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

type unlockRequest struct {
	AchievementType string  `json:"achievement_type"`
	Description     string  `json:"description"`
	HabitID         *string `json:"habit_id"`
	GoalID          *string `json:"goal_id"`
}

func (a *API) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	f := models.AchievementFilter{
		AchievementType: q.String("achievement_type"),
		From:            q.Date("start_date"),
		To:              q.Date("end_date"),
		Desc:            q.Desc(),
		Limit:           q.Int("limit"),
		Offset:          q.Int("offset"),
	}
	if !q.Valid(w) {
		return
	}
	if !f.To.IsZero() {
		// end_date is a whole day.
		f.To = f.To.AddDate(0, 0, 1).Add(-1)
	}
	list, err := a.Service.ListAchievements(r.Context(), userID, f)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": list})
}

func (a *API) handleUnlockAchievement(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req unlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	unlocked, err := a.Service.UnlockAchievement(r.Context(), userID, achievements.UnlockRequest{
		Type:        req.AchievementType,
		Description: req.Description,
		HabitID:     req.HabitID,
		GoalID:      req.GoalID,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, unlocked)
}

func (a *API) handleAchievementStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	stats, err := a.Service.AchievementStats(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	got, err := a.Service.GetAchievement(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}
