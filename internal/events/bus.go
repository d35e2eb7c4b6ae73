package events

import (
	"sync"

	"github.com/justyntemme/filespanel/internal/debug"
)

// Handler receives one event
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and publishing.
//
// Handlers run on the publisher's goroutine. They may publish or subscribe
// from inside a handler; a subscription added during a publish sees the
// next event, not the current one.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	all         []subscription
	nextID      uint64
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[EventType][]subscription)}
}

// Subscribe registers h for events of type t and returns a function that
// removes the subscription.
func (b *Bus) Subscribe(t EventType, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[t] = append(b.subscribers[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		b.subscribers[t] = remove(b.subscribers[t], id)
		b.mu.Unlock()
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		b.all = remove(b.all, id)
		b.mu.Unlock()
	}
}

// Publish delivers e to the subscribers of its type, then to the
// subscribers of all events.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	typed := b.subscribers[e.Type()]
	handlers := make([]Handler, 0, len(typed)+len(b.all))
	for _, s := range typed {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.all {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	debug.Log(debug.BUS, "publish %s to %d handlers", e.Type(), len(handlers))
	for _, h := range handlers {
		h(e)
	}
}

// SubscriberCount returns the number of handlers for t, excluding
// subscribers of all events.
func (b *Bus) SubscriberCount(t EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[t])
}

func remove(subs []subscription, id uint64) []subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
