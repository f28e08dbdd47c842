package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLocks_ReleasedEntriesAreDropped(t *testing.T) {
	locks := newUserLocks()

	for _, id := range []string{"a", "b", "c"} {
		unlock := locks.lock(id)
		assert.Equal(t, 1, locks.size())
		unlock()
	}
	assert.Equal(t, 0, locks.size())
}

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := newUserLocks()

	unlock := locks.lock("a")
	acquired := make(chan struct{})
	go func() {
		release := locks.lock("a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}
	// The waiter keeps the entry alive after the first holder releases.
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	require.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestUserLocks_ConcurrentUsers(t *testing.T) {
	locks := newUserLocks()
	counts := map[string]int{}
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, id := range []string{"a", "b"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				unlock := locks.lock(id)
				defer unlock()
				mu.Lock()
				counts[id]++
				mu.Unlock()
			}(id)
		}
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"a": 50, "b": 50}, counts)
	assert.Equal(t, 0, locks.size())
}
