package http

import (
	"net/http"

	"github.com/JeffyMesquita/habit-tracker-api/internal/progress"
	"github.com/JeffyMesquita/habit-tracker-api/internal/service"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	f := service.DashboardFilter{
		Period:  progress.PeriodKind(q.String("period")),
		Start:   q.Date("start"),
		End:     q.Date("end"),
		Details: q.Bool("details", true),
		Trends:  q.Bool("trends", false),
	}
	if !q.Valid(w) {
		return
	}
	d, err := a.Service.Dashboard(r.Context(), userID, f)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) handleStreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := newQueryParams(r)
	f := service.StreaksFilter{
		HabitID:    q.String("habit_id"),
		Type:       service.StreakKind(q.String("type")),
		Limit:      q.Int("limit"),
		ActiveOnly: q.Bool("active_only", false),
	}
	if !q.Valid(w) {
		return
	}
	report, err := a.Service.Streaks(r.Context(), userID, f)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
