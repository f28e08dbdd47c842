package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/vytor/cognivia/internal/errors"
)

// Validate checks the descriptive and scheduling fields of a session.
func (s StudySession) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	if strings.TrimSpace(s.Subject) == "" {
		return errors.NewValidationError("subject", "cannot be empty")
	}
	if !s.Type.Valid() {
		return errors.NewValidationError("type", "must be one of study, quiz, review, practice, lab, exam")
	}
	if !s.Priority.Valid() {
		return errors.NewValidationError("priority", "must be one of low, medium, high")
	}
	if !s.Status.Valid() {
		return errors.NewValidationError("status", "unknown status")
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return errors.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if _, err := time.Parse(ClockLayout, s.StartTime); err != nil {
		return errors.NewValidationError("start_time", "must be HH:MM")
	}
	if _, err := time.Parse(ClockLayout, s.EndTime); err != nil {
		return errors.NewValidationError("end_time", "must be HH:MM")
	}
	if m, _ := PlannedMinutes(s.StartTime, s.EndTime); m <= 0 {
		return errors.NewValidationError("end_time", "must be after start_time")
	}
	if s.Score != nil {
		if err := ValidateScore(*s.Score); err != nil {
			return err
		}
	}
	return nil
}

// ValidateScore enforces the 0-100 score range.
func ValidateScore(score int) error {
	if score < 0 || score > 100 {
		return errors.NewValidationError("score", "must be between 0 and 100")
	}
	return nil
}

// Validate checks the plan range and every weekly slot.
func (p StudyPlan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	start, err := time.Parse(DateLayout, p.StartDate)
	if err != nil {
		return errors.NewValidationError("start_date", "must be YYYY-MM-DD")
	}
	end, err := time.Parse(DateLayout, p.EndDate)
	if err != nil {
		return errors.NewValidationError("end_date", "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return errors.NewValidationError("end_date", "must not be before start_date")
	}
	if end.Sub(start) >= MaxPlanSpanDays*24*time.Hour {
		return errors.NewValidationError("end_date", fmt.Sprintf("plan must not span more than %d days", MaxPlanSpanDays))
	}
	for i, slot := range p.Sessions {
		field := fmt.Sprintf("sessions[%d]", i)
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			return errors.NewValidationError(field+".day_of_week", "must be between 0 and 6")
		}
		if _, err := time.Parse(ClockLayout, slot.Time); err != nil {
			return errors.NewValidationError(field+".time", "must be HH:MM")
		}
		if strings.TrimSpace(slot.Subject) == "" {
			return errors.NewValidationError(field+".subject", "cannot be empty")
		}
		if slot.DurationMinutes <= 0 {
			return errors.NewValidationError(field+".duration_minutes", "must be positive")
		}
	}
	return nil
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	if r.RemindAt.IsZero() {
		return errors.NewValidationError("remind_at", "is required")
	}
	return nil
}

func (g StudyGoal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	if g.TargetHours <= 0 {
		return errors.NewValidationError("target_hours", "must be positive")
	}
	if g.Deadline != "" {
		if _, err := time.Parse(DateLayout, g.Deadline); err != nil {
			return errors.NewValidationError("deadline", "must be YYYY-MM-DD")
		}
	}
	return nil
}
