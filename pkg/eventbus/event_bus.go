// Package eventbus provides publish/subscribe messaging for workflow
// lifecycle events.
package eventbus

import (
	"context"

	"github.com/dukex/queryflow/pkg/events"
)

// Event is any payload with a declared event type.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes a decoded event.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	// Publish emits an event keyed by workflow identifier. Publishing is
	// best-effort from the engine's perspective; delivery failures never
	// fail a workflow.
	Publish(ctx context.Context, key string, event Event) error

	// Subscribe starts consuming the event topic, dispatching to handlers
	// registered via Handle.
	Subscribe(ctx context.Context) error

	// Handle registers a handler for one event type.
	Handle(eventType events.EventType, handler EventHandler)

	GenerateID() string

	Close() error
}
