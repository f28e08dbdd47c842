package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/cognivia/internal/jobs"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/worker"
)

// UserLister returns the users that still have sessions the clock can move.
type UserLister interface {
	UserIDsWithOpenSessions(ctx context.Context) ([]string, error)
}

// Poller periodically enqueues a lifecycle sweep for every user with open
// sessions, plus one reminder dispatch.
type Poller struct {
	users    UserLister
	queue    jobs.JobQueue
	interval time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(users UserLister, queue jobs.JobQueue, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		users:    users,
		queue:    queue,
		interval: interval,
		log:      logger.Default().WithPrefix("poller"),
	}
}

// Start runs one tick immediately and then one per interval until Stop or
// ctx is cancelled. Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	ctx = logger.NewContext(ctx, p.log)

	p.log.Info("starting clock poller (interval=%s)", p.interval)
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				p.log.Info("clock poller stopped")
				return
			case <-ticker.C:
				p.Tick(ctx)
			}
		}
	}()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick enqueues one sweep per user and returns how many were accepted.
// A full queue skips the remaining users until the next tick.
func (p *Poller) Tick(ctx context.Context) int {
	log := logger.FromContext(ctx).WithPrefix("poller")

	userIDs, err := p.users.UserIDsWithOpenSessions(ctx)
	if err != nil {
		log.Error("failed to list users with open sessions: %v", err)
		return 0
	}

	queued := 0
	for _, userID := range userIDs {
		if err := p.queue.EnqueueSweep(userID); err != nil {
			if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrPoolStopped) {
				log.Warn("sweep queue unavailable, deferring %d users: %v", len(userIDs)-queued, err)
				break
			}
			log.Error("failed to enqueue sweep for user %s: %v", userID, err)
			continue
		}
		queued++
	}

	if err := p.queue.EnqueueReminderDispatch(); err != nil {
		log.Warn("failed to enqueue reminder dispatch: %v", err)
	}

	log.Debug("tick queued %d of %d user sweeps", queued, len(userIDs))
	return queued
}
