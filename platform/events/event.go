// Package events provides the in-process event bus the domain modules
// use to react to each other's lifecycle changes without importing each
// other. Event payloads live with the modules; only the contracts are
// defined here.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. EventName doubles as the
// subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publication timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to a published event. A returned error is logged by
// the bus, never surfaced to the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus dispatches events to their subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously; the publisher never blocks on
	// or fails with its subscribers.
	Publish(ctx context.Context, event Event)

	// PublishSync waits for every handler. Used in tests and anywhere
	// ordering matters.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an Event's EventName.
	Subscribe(eventName string, handler Handler)
}
