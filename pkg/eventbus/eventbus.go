// Package eventbus provides the in-process change-notification channel used
// to keep independent UI surfaces holding cached vehicle data consistent.
// Delivery is synchronous, on the emitting goroutine, in registration order.
// Events carry only the action and the affected ids; subscribers re-fetch
// through the repository for current state.
package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of mutation an event describes.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionBulkDelete Action = "bulk_delete"
	ActionRefresh    Action = "refresh"
)

// Event is the payload delivered to subscribers. It never owns vehicle data.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	VehicleID string    `json:"vehicle_id"` // empty for bulk_delete and refresh
	DealerID  string    `json:"dealer_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler processes a delivered event.
type Handler func(Event)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is an explicit publish/subscribe channel instance. Each repository owns
// one; there is no package-level singleton and no cross-process delivery.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns a function that removes exactly
// this registration. Unsubscribing twice is a no-op. Every subscriber
// receives every event (broadcast, not single-consumer).
func (b *Bus) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers an event to every currently-registered subscriber, in
// registration order, synchronously on the calling goroutine. There is no
// queue: by the time Emit returns, every subscriber has run.
func (b *Bus) Emit(action Action, vehicleID, dealerID string) {
	event := Event{
		ID:        uuid.New(),
		Action:    action,
		VehicleID: vehicleID,
		DealerID:  dealerID,
		Timestamp: time.Now().UTC(),
	}

	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.fn(event)
	}
}

// SubscriberCount reports the number of active registrations.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
