package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

type habitRequest struct {
	Title     *string `json:"title"`
	Frequency *int    `json:"frequency"`
	WeekDays  *[]int  `json:"week_days"`
	Moment    *string `json:"moment"`
}

type progressRequest struct {
	Date           *FlexTime `json:"date"`
	CompletedCount *int      `json:"completed_count"`
}

func (a *API) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	var day *time.Time
	if d := q.Date("day"); !d.IsZero() {
		day = &d
	} else if q.Bool("today", false) {
		today := progress.Day(a.Service.Now())
		day = &today
	}
	if !q.Valid(w) {
		return
	}
	habits, err := a.Service.ListHabits(r.Context(), userID, day)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

func (a *API) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req habitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.HabitInput{Moment: req.Moment}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Frequency != nil {
		in.Frequency = *req.Frequency
		if in.Frequency == 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "frequency must be at least 1")
			return
		}
	}
	if req.WeekDays != nil {
		in.WeekDays = *req.WeekDays
	}
	habit, err := a.Service.CreateHabit(r.Context(), userID, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (a *API) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	habit, err := a.Service.GetHabit(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (a *API) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req habitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	habit, err := a.Service.UpdateHabit(r.Context(), userID, chi.URLParam(r, "id"), service.HabitPatch{
		Title:     req.Title,
		Frequency: req.Frequency,
		WeekDays:  req.WeekDays,
		Moment:    req.Moment,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (a *API) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Service.DeleteHabit(r.Context(), userID, id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}

func (a *API) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req progressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count := 1
	if req.CompletedCount != nil {
		count = *req.CompletedCount
	}
	res, err := a.Service.RecordCompletion(r.Context(), userID, chi.URLParam(r, "id"), req.Date.Value(), count)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) handleHabitProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	start, end := q.Date("start"), q.Date("end")
	if !q.Valid(w) {
		return
	}
	hp, err := a.Service.HabitProgress(r.Context(), userID, chi.URLParam(r, "id"), start, end)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hp)
}
