package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dukex/flowcanvas/pkg/events"
)

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger

	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		logger:        logger.With("module", "eventbus"),
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

// NewInMemoryEventBus creates a bus backed by a watermill GoChannel. Events
// published while nobody is subscribed are dropped.
func NewInMemoryEventBus(logger *slog.Logger) *WatermillEventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            1000,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewSlogLogger(logger),
	)

	return NewWatermillEventBus(pubSub, pubSub, logger)
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	eb.logger.DebugContext(ctx, "Publishing event", "type", event.GetType(), "key", key)

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, exists := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	event := newEvent(eventType)
	if event == nil {
		eb.logger.Warn("Unknown event type", "type", eventType, "message_id", msg.UUID)
		msg.Nack()

		return
	}

	if err := json.Unmarshal(msg.Payload, event); err != nil {
		eb.logger.Error("Failed to decode event", "type", eventType, "error", err)
		msg.Nack()

		return
	}

	if err := handler(ctx, event); err != nil {
		eb.logger.Error("Event handler failed", "type", eventType, "error", err)
		msg.Nack()

		return
	}

	msg.Ack()
}

func newEvent(eventType events.EventType) any {
	switch eventType {
	case events.WorkflowLoadedEvent:
		return &events.WorkflowLoaded{}
	case events.GraphChangedEvent:
		return &events.GraphChanged{}
	case events.WorkflowImportedEvent:
		return &events.WorkflowImported{}
	case events.SaveStateChangedEvent:
		return &events.SaveStateChanged{}
	case events.WorkflowSavedEvent:
		return &events.WorkflowSaved{}
	case events.FileUploadedEvent:
		return &events.FileUploaded{}
	case events.FileDeletedEvent:
		return &events.FileDeleted{}
	case events.ExecutionStartedEvent:
		return &events.ExecutionStarted{}
	case events.ExecutionStatusChangedEvent:
		return &events.ExecutionStatusChanged{}
	case events.ExecutionPollFailedEvent:
		return &events.ExecutionPollFailed{}
	default:
		return nil
	}
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
