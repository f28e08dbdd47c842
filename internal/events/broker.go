package events

import (
	"context"
	"sync"

	"github.com/vytor/cognivia/internal/logger"
)

const defaultBuffer = 32

// Broker fans events out to in-process subscribers keyed by user.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		subs:   make(map[string]map[uint64]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a listener for userID. The returned cancel func
// unregisters it and closes the channel; calling it twice is safe.
func (b *Broker) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, b.buffer)
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan Event)
	}
	b.subs[userID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber of e.UserID. Subscribers whose
// buffer is full miss the event.
func (b *Broker) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[e.UserID] {
		select {
		case ch <- e:
		default:
			logger.FromContext(ctx).WithPrefix("events").
				Warn("dropping %s for user %s: subscriber %d is full", e.Type, e.UserID, id)
		}
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (b *Broker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
