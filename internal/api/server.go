package api

import (
	"context"

	"github.com/vytor/cognivia/internal/events"
	"github.com/vytor/cognivia/internal/services"
)

// Pinger reports storage health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Calendar  services.CalendarService
	Plans     services.PlanService
	Reminders services.ReminderService
	Goals     services.GoalService
	Broker    *events.Broker
	Auth      *Authenticator
	DB        Pinger
}
