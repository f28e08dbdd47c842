package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueSweep(userID string) error
	EnqueueReminderDispatch() error
}
