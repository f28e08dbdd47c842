package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.NewSessionInput
	if err := decodeJSON(r, &in); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.Calendar.CreateSession(ctx, userIDFromContext(ctx), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(ctx).Info("created session %s", session.ID)
	writeJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := models.SessionFilter{
		Subject:  q.Get("subject"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
	}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.SessionStatus(strings.TrimSpace(part))
			if !status.Valid() {
				handleError(w, r, errors.NewValidationError("status", "unknown status "+string(status)))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	sessions, err := s.Calendar.ListSessions(ctx, userIDFromContext(ctx), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handleUpcomingSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.Calendar.UpcomingSessions(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handlePastSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.Calendar.PastSessions(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.Calendar.GetSession(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var patch models.SessionPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.Calendar.UpdateSession(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	deleted, err := s.Calendar.DeleteSession(ctx, userIDFromContext(ctx), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !deleted {
		handleError(w, r, errors.NewNotFoundError("session", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.Calendar.StartSession(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

type completeRequest struct {
	Score *int    `json:"score"`
	Notes *string `json:"notes"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req completeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.Calendar.CompleteSession(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"), req.Score, req.Notes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.Calendar.CancelSession(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := s.Calendar.SessionStatus(ctx, userIDFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	streak, err := s.Calendar.Streak(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, streak)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	analytics, err := s.Calendar.Analytics(ctx, userIDFromContext(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, analytics)
}
