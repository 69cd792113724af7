package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

type goalRequest struct {
	GoalType    *models.GoalType `json:"goal_type"`
	TargetValue *int             `json:"target_value"`
	StartDate   *FlexTime        `json:"start_date"`
	EndDate     *FlexTime        `json:"end_date"`
	HabitID     *string          `json:"habit_id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *int             `json:"priority"`
}

func (a *API) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	f := models.GoalFilter{
		GoalType:  models.GoalType(q.String("goal_type")),
		Status:    q.String("status"),
		StartFrom: q.Date("start_date"),
		EndUntil:  q.Date("end_date"),
		SortBy:    q.String("sort_by"),
		Desc:      q.Desc(),
		Limit:     q.Int("limit"),
		Offset:    q.Int("offset"),
	}
	if !q.Valid(w) {
		return
	}
	goals, err := a.Service.ListGoals(r.Context(), userID, f)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (a *API) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.GoalInput{
		StartDate:   req.StartDate.Value(),
		EndDate:     req.EndDate.Value(),
		HabitID:     req.HabitID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if req.GoalType != nil {
		in.GoalType = *req.GoalType
	}
	if req.TargetValue != nil {
		in.TargetValue = *req.TargetValue
	}
	goal, err := a.Service.CreateGoal(r.Context(), userID, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (a *API) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goal, err := a.Service.GetGoal(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (a *API) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := a.Service.UpdateGoal(r.Context(), userID, chi.URLParam(r, "id"), models.GoalPatch{
		GoalType:    req.GoalType,
		TargetValue: req.TargetValue,
		StartDate:   req.StartDate.ToTimePtr(),
		EndDate:     req.EndDate.ToTimePtr(),
		HabitID:     req.HabitID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (a *API) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Service.DeleteGoal(r.Context(), userID, id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := a.Service.GoalProgress(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goal, err := a.Service.CompleteGoal(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}
