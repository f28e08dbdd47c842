// Package lifecycle holds the session state machine. Every function is pure:
// callers pass the wall-clock instant and the calendar location, so the same
// rules serve the background poller and lazy evaluation on read.
package lifecycle

import (
	"fmt"
	"math"
	"time"

	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/models"
)

// NextStatus returns the status a session should have at now. Sessions whose
// window cannot be parsed keep their status.
func NextStatus(s models.StudySession, now time.Time, loc *time.Location) models.SessionStatus {
	if s.Status.Terminal() {
		return s.Status
	}
	start, end, err := s.Window(loc)
	if err != nil {
		return s.Status
	}

	switch s.Status {
	case models.StatusScheduled:
		if !now.Before(end) {
			return models.StatusMissed
		}
		if !now.Before(start) {
			return models.StatusInProgress
		}
	case models.StatusInProgress:
		if !now.Before(end) {
			return models.StatusCompleted
		}
	}
	return s.Status
}

// Advance applies NextStatus and its side effects. The bool reports whether
// the session changed.
func Advance(s models.StudySession, now time.Time, loc *time.Location) (models.StudySession, bool) {
	next := NextStatus(s, now, loc)
	if next == s.Status {
		return s, false
	}

	switch next {
	case models.StatusInProgress:
		s = markStarted(s, now)
	case models.StatusCompleted:
		s = markCompleted(s, now)
	}
	s.Status = next
	s.UpdatedAt = now
	return s, true
}

// Start forces a scheduled session into progress.
func Start(s models.StudySession, now time.Time) (models.StudySession, error) {
	if s.Status != models.StatusScheduled {
		return s, invalidTransition(s.Status, models.StatusInProgress)
	}
	s = markStarted(s, now)
	s.Status = models.StatusInProgress
	s.UpdatedAt = now
	return s, nil
}

// Complete forces a scheduled or running session to completed, recording the
// optional score and notes.
func Complete(s models.StudySession, now time.Time, score *int, notes *string) (models.StudySession, error) {
	if s.Status.Terminal() {
		return s, invalidTransition(s.Status, models.StatusCompleted)
	}
	if score != nil {
		if err := models.ValidateScore(*score); err != nil {
			return s, err
		}
		v := *score
		s.Score = &v
	}
	if notes != nil {
		s.Notes = *notes
	}
	s = markCompleted(s, now)
	s.Status = models.StatusCompleted
	s.UpdatedAt = now
	return s, nil
}

// Cancel moves any non-terminal session to cancelled.
func Cancel(s models.StudySession, now time.Time) (models.StudySession, error) {
	if s.Status.Terminal() {
		return s, invalidTransition(s.Status, models.StatusCancelled)
	}
	s.Status = models.StatusCancelled
	s.UpdatedAt = now
	return s, nil
}

func markStarted(s models.StudySession, now time.Time) models.StudySession {
	t := now
	s.ActualStartTime = &t
	return s
}

// markCompleted stamps the actual end and derives the actual duration from the
// actual start when present, falling back to the planned duration.
func markCompleted(s models.StudySession, now time.Time) models.StudySession {
	t := now
	s.ActualEndTime = &t

	minutes := s.DurationMinutes
	if s.ActualStartTime != nil {
		minutes = int(math.Round(now.Sub(*s.ActualStartTime).Minutes()))
		if minutes < 0 {
			minutes = 0
		}
	}
	s.ActualDurationMinutes = &minutes
	return s
}

func invalidTransition(from, to models.SessionStatus) error {
	return errors.NewValidationError("status", fmt.Sprintf("cannot move session from %s to %s", from, to))
}
