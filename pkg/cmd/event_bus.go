package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
)

// auditedEvents are logged by the bus returned from NewEventBus.
var auditedEvents = []events.EventType{
	events.WorkflowSavedEvent,
	events.FileUploadedEvent,
	events.FileDeletedEvent,
	events.ExecutionStartedEvent,
	events.ExecutionStatusChangedEvent,
}

// NewEventBus creates the event bus for provider and subscribes an audit
// logger to it. Close the bus to stop the subscription.
func NewEventBus(ctx context.Context, provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	var bus eventbus.EventBus

	switch provider {
	case "", "memory", "gochannel":
		bus = eventbus.NewInMemoryEventBus(logger)
	case "none":
		return eventbus.Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}

	audit := logger.With("module", "audit")

	for _, eventType := range auditedEvents {
		err := bus.Handle(eventType, func(ctx context.Context, event any) error {
			audit.InfoContext(ctx, "Event", "type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	return bus, nil
}
