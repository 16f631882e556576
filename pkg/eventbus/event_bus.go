// Package eventbus carries workflow lifecycle events between the API and its subscribers.
package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcsuite/arcflow/pkg/events"
)

var ErrUnexpectedEvent = errors.New("unexpected event payload")

// Event is anything the bus can route. The type doubles as the message's event_type metadata.
type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	// Publish sends event partitioned by key, normally the workflow id.
	Publish(ctx context.Context, key string, event Event) error
	GenerateID() string
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g. *events.WorkflowCreated.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}

// On adapts a typed callback to an EventHandler. Payloads of any other type
// fail with ErrUnexpectedEvent.
func On[T any](fn func(ctx context.Context, event *T) error) EventHandler {
	return func(ctx context.Context, event any) error {
		typed, ok := event.(*T)
		if !ok {
			return fmt.Errorf("%w: got %T, want %T", ErrUnexpectedEvent, event, typed)
		}

		return fn(ctx, typed)
	}
}
