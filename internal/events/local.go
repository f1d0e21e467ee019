package events

import (
	"sync"
)

// LocalBus is an in-process bus for tests and single-binary runs.
// Subscribers get buffered channels; a full buffer drops the event for
// that subscriber instead of blocking the publisher.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[int]chan DecisionEvent
	nextID int
	closed bool
}

// NewLocalBus creates an empty local bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan DecisionEvent)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (b *LocalBus) Subscribe(buffer int) (<-chan DecisionEvent, func()) {
	if buffer < 1 {
		buffer = 64
	}
	ch := make(chan DecisionEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish fans the event out to every subscriber, dropping it for
// subscribers whose buffer is full.
func (b *LocalBus) Publish(ev DecisionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Close closes all subscriber channels.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
