package events

import (
	"sync"
	"time"

	"focustrack/internal/core"
)

// Type identifies what changed
type Type string

const (
	SessionCreated Type = "session.created"
	SessionUpdated Type = "session.updated"
	SessionDeleted Type = "session.deleted"
	TaskChanged    Type = "task.changed"
	Tick           Type = "tick"
)

// Event is a change notification. Snapshot is only set for Tick events.
type Event struct {
	Type      Type                `json:"type"`
	SessionID string              `json:"session_id,omitempty"`
	TaskID    string              `json:"task_id,omitempty"`
	Snapshot  *core.TimerSnapshot `json:"snapshot,omitempty"`
	At        time.Time           `json:"at"`
}

// Publisher is the write side of the broker, used by stores and the ticker
type Publisher interface {
	Publish(event Event)
}

// Broker fans events out to every subscriber. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Publish delivers event to all current subscribers
func (b *Broker) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once. Subscribing
// to a closed broker yields an already closed channel.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close closes every subscriber channel so long-lived readers such as event
// streams return. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers reports how many subscribers are registered
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var _ Publisher = (*Broker)(nil)
