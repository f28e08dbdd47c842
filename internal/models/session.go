package models

import (
	"fmt"
	"time"
)

// Layouts used for the calendar fields of a session.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
	StatusMissed     SessionStatus = "missed"
)

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusMissed
}

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

type SessionType string

const (
	TypeStudy    SessionType = "study"
	TypeQuiz     SessionType = "quiz"
	TypeReview   SessionType = "review"
	TypePractice SessionType = "practice"
	TypeLab      SessionType = "lab"
	TypeExam     SessionType = "exam"
)

func (t SessionType) Valid() bool {
	switch t {
	case TypeStudy, TypeQuiz, TypeReview, TypePractice, TypeLab, TypeExam:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type StudySession struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"user_id"`
	Title                 string        `json:"title"`
	Subject               string        `json:"subject"`
	Topic                 string        `json:"topic,omitempty"`
	Type                  SessionType   `json:"type"`
	Priority              Priority      `json:"priority"`
	Date                  string        `json:"date"`
	StartTime             string        `json:"start_time"`
	EndTime               string        `json:"end_time"`
	DurationMinutes       int           `json:"duration_minutes"`
	Status                SessionStatus `json:"status"`
	ActualStartTime       *time.Time    `json:"actual_start_time,omitempty"`
	ActualEndTime         *time.Time    `json:"actual_end_time,omitempty"`
	ActualDurationMinutes *int          `json:"actual_duration_minutes,omitempty"`
	Score                 *int          `json:"score,omitempty"`
	Notes                 string        `json:"notes,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// Window returns the planned [start, end) instants of the session in loc.
func (s StudySession) Window(loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", s.Date, err)
	}
	start, err := atClock(day, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atClock(day, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// EffectiveMinutes is the actual duration when known, else the planned one.
func (s StudySession) EffectiveMinutes() int {
	if s.ActualDurationMinutes != nil {
		return *s.ActualDurationMinutes
	}
	return s.DurationMinutes
}

// StartHour is the hour of the planned start time, or -1 when unparsable.
func (s StudySession) StartHour() int {
	t, err := time.Parse(ClockLayout, s.StartTime)
	if err != nil {
		return -1
	}
	return t.Hour()
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// PlannedMinutes returns end-start in minutes for two HH:MM clock strings.
func PlannedMinutes(start, end string) (int, error) {
	s, err := time.Parse(ClockLayout, start)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", start, err)
	}
	e, err := time.Parse(ClockLayout, end)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", end, err)
	}
	return int(e.Sub(s).Minutes()), nil
}

// NewSessionInput is the caller-supplied part of a session.
type NewSessionInput struct {
	Title     string      `json:"title"`
	Subject   string      `json:"subject"`
	Topic     string      `json:"topic,omitempty"`
	Type      SessionType `json:"type"`
	Priority  Priority    `json:"priority"`
	Date      string      `json:"date"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	Notes     string      `json:"notes,omitempty"`
}

// SessionPatch is a partial update; nil fields are left unchanged.
type SessionPatch struct {
	Title     *string        `json:"title,omitempty"`
	Subject   *string        `json:"subject,omitempty"`
	Topic     *string        `json:"topic,omitempty"`
	Type      *SessionType   `json:"type,omitempty"`
	Priority  *Priority      `json:"priority,omitempty"`
	Date      *string        `json:"date,omitempty"`
	StartTime *string        `json:"start_time,omitempty"`
	EndTime   *string        `json:"end_time,omitempty"`
	Status    *SessionStatus `json:"status,omitempty"`
	Score     *int           `json:"score,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// TouchesSchedule reports whether the patch moves the session in time.
func (p SessionPatch) TouchesSchedule() bool {
	return p.Date != nil || p.StartTime != nil || p.EndTime != nil
}

// Apply copies the non-nil fields onto s and recomputes DurationMinutes.
func (p SessionPatch) Apply(s StudySession) StudySession {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Subject != nil {
		s.Subject = *p.Subject
	}
	if p.Topic != nil {
		s.Topic = *p.Topic
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Priority != nil {
		s.Priority = *p.Priority
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Score != nil {
		score := *p.Score
		s.Score = &score
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if m, err := PlannedMinutes(s.StartTime, s.EndTime); err == nil {
		s.DurationMinutes = m
	}
	return s
}

// SessionFilter narrows a session listing. Zero values mean "any".
type SessionFilter struct {
	UserID   string
	Statuses []SessionStatus
	Subject  string
	FromDate string
	ToDate   string
}
