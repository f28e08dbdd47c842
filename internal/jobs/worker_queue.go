package jobs

import (
	"github.com/vytor/cognivia/internal/worker"
)

// WorkerQueue implements JobQueue on top of a worker pool
type WorkerQueue struct {
	pool       *worker.Pool
	sweeper    worker.Sweeper
	dispatcher worker.ReminderDispatcher
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, sweeper worker.Sweeper, dispatcher worker.ReminderDispatcher) JobQueue {
	return &WorkerQueue{
		pool:       pool,
		sweeper:    sweeper,
		dispatcher: dispatcher,
	}
}

func (q *WorkerQueue) EnqueueSweep(userID string) error {
	return q.pool.Submit(&worker.SweepUserJob{
		Sweeper: q.sweeper,
		UserID:  userID,
	})
}

func (q *WorkerQueue) EnqueueReminderDispatch() error {
	if q.dispatcher == nil {
		return nil
	}
	return q.pool.Submit(&worker.DispatchRemindersJob{Dispatcher: q.dispatcher})
}
