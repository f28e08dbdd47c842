package events

import (
	"context"
	"time"
)

type Type string

const (
	SessionCreated      Type = "session.created"
	SessionUpdated      Type = "session.updated"
	SessionDeleted      Type = "session.deleted"
	SessionTransitioned Type = "session.transitioned"
	AnalyticsUpdated    Type = "analytics.updated"
	ReminderDue         Type = "reminder.due"
)

// Event is a change notification scoped to one user.
type Event struct {
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers events to subscribers. Publish never blocks on slow
// consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
