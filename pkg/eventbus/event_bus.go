// Package eventbus provides event-driven communication for the job
// orchestration lifecycle.
package eventbus

import (
	"context"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	// Publish sends one event. The key selects the partition, so events
	// sharing a key keep their relative order; use the job id.
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event interface{}) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
