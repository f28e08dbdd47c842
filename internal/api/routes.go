package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/cognivia/internal/metrics"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.Auth.Middleware)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Get("/upcoming", s.handleUpcomingSessions)
			r.Get("/past", s.handlePastSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Patch("/", s.handleUpdateSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/start", s.handleStartSession)
				r.Post("/complete", s.handleCompleteSession)
				r.Post("/cancel", s.handleCancelSession)
				r.Get("/status", s.handleSessionStatus)
			})
		})

		r.Get("/streak", s.handleStreak)
		r.Get("/analytics", s.handleAnalytics)

		r.Get("/plans", s.handleListPlans)
		r.Post("/plans", s.handleCreatePlan)
		r.Get("/plans/{id}/schedule", s.handlePlanSchedule)

		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders", s.handleCreateReminder)

		r.Get("/goals", s.handleListGoals)
		r.Post("/goals", s.handleCreateGoal)

		r.Get("/events", s.handleEvents)
	})

	return r
}
