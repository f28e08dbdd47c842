package worker

import (
	"context"

	"github.com/vytor/cognivia/internal/metrics"
)

// Sweeper advances one user's sessions against the clock. Defined here so
// the worker package does not import services.
type Sweeper interface {
	SweepUser(ctx context.Context, userID string) (int, error)
}

// ReminderDispatcher emits events for reminders that are due.
type ReminderDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// SweepUserJob re-evaluates every open session of a single user.
type SweepUserJob struct {
	Sweeper Sweeper
	UserID  string
}

func (j *SweepUserJob) Name() string { return "sweep_user" }

func (j *SweepUserJob) Run(ctx context.Context) error {
	changed, err := j.Sweeper.SweepUser(ctx, j.UserID)
	switch {
	case err != nil:
		metrics.PollerSweeps.WithLabelValues("error").Inc()
		return err
	case changed > 0:
		metrics.PollerSweeps.WithLabelValues("changed").Inc()
	default:
		metrics.PollerSweeps.WithLabelValues("unchanged").Inc()
	}
	return nil
}

type DispatchRemindersJob struct {
	Dispatcher ReminderDispatcher
}

func (j *DispatchRemindersJob) Name() string { return "dispatch_reminders" }

func (j *DispatchRemindersJob) Run(ctx context.Context) error {
	_, err := j.Dispatcher.DispatchDue(ctx)
	return err
}
