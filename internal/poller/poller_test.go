package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vytor/cognivia/internal/testutil/mocks"
	"github.com/vytor/cognivia/internal/worker"
)

func TestTick_EnqueuesEveryUser(t *testing.T) {
	repo := new(mocks.MockSessionRepository)
	queue := new(mocks.MockJobQueue)

	repo.On("UserIDsWithOpenSessions", mock.Anything).Return([]string{"u-1", "u-2"}, nil)
	queue.On("EnqueueSweep", "u-1").Return(nil)
	queue.On("EnqueueSweep", "u-2").Return(nil)
	queue.On("EnqueueReminderDispatch").Return(nil)

	p := New(repo, queue, time.Minute)
	assert.Equal(t, 2, p.Tick(context.Background()))

	repo.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestTick_StopsAtFullQueue(t *testing.T) {
	repo := new(mocks.MockSessionRepository)
	queue := new(mocks.MockJobQueue)

	repo.On("UserIDsWithOpenSessions", mock.Anything).Return([]string{"u-1", "u-2", "u-3"}, nil)
	queue.On("EnqueueSweep", "u-1").Return(nil)
	queue.On("EnqueueSweep", "u-2").Return(worker.ErrQueueFull)
	queue.On("EnqueueReminderDispatch").Return(worker.ErrQueueFull)

	p := New(repo, queue, time.Minute)
	assert.Equal(t, 1, p.Tick(context.Background()))
	queue.AssertNotCalled(t, "EnqueueSweep", "u-3")
}

func TestTick_ListFailure(t *testing.T) {
	repo := new(mocks.MockSessionRepository)
	queue := new(mocks.MockJobQueue)
	repo.On("UserIDsWithOpenSessions", mock.Anything).Return(nil, errors.New("db closed"))

	p := New(repo, queue, time.Minute)
	assert.Equal(t, 0, p.Tick(context.Background()))
	queue.AssertNotCalled(t, "EnqueueReminderDispatch")
}

func TestStartStop_TicksImmediately(t *testing.T) {
	repo := new(mocks.MockSessionRepository)
	queue := new(mocks.MockJobQueue)

	ticked := make(chan struct{}, 1)
	repo.On("UserIDsWithOpenSessions", mock.Anything).Return([]string{}, nil)
	queue.On("EnqueueReminderDispatch").Return(nil).Run(func(mock.Arguments) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	p := New(repo, queue, time.Hour)
	p.Start(context.Background())
	p.Start(context.Background())

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not tick on start")
	}
	p.Stop()
	p.Stop()
}
