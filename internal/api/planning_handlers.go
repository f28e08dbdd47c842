package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/cognivia/internal/models"
)

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var plan models.StudyPlan
	if err := decodeJSON(r, &plan); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.Plans.CreatePlan(ctx, userIDFromContext(ctx), plan)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := s.Plans.ListPlans(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, plans)
}

func (s *Server) handlePlanSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	occurrences, err := s.Plans.PlanSchedule(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"), q.Get("from"), q.Get("to"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, occurrences)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var reminder models.Reminder
	if err := decodeJSON(r, &reminder); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.Reminders.CreateReminder(ctx, userIDFromContext(ctx), reminder)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminders, err := s.Reminders.ListReminders(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reminders)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var goal models.StudyGoal
	if err := decodeJSON(r, &goal); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.Goals.CreateGoal(ctx, userIDFromContext(ctx), goal)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	goals, err := s.Goals.ListGoals(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, goals)
}
