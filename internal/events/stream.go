package events

import (
	"context"
	"sync"
	"time"
)

// Kind labels a task lifecycle transition.
type Kind string

const (
	TaskCreated Kind = "task.created"
	TaskUpdated Kind = "task.updated"
	TaskDeleted Kind = "task.deleted"
)

// TaskEvent describes one task transition for the activity feed.
type TaskEvent struct {
	Kind      Kind      `json:"kind"`
	TaskID    int64     `json:"task_id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	ownerID string
	ch      chan TaskEvent
}

// Stream fan-outs task events to active SSE subscribers. Each subscription
// is bound to one owner and only receives that owner's events.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for ownerID and returns a channel which
// will receive that owner's events. The channel is closed when the provided
// context ends.
func (s *Stream) Subscribe(ctx context.Context, ownerID string) <-chan TaskEvent {
	ch := make(chan TaskEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{ownerID: ownerID, ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to the owner's subscribers.
func (s *Stream) Publish(evt TaskEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.ownerID != evt.OwnerID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
