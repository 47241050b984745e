package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_DeliversTypedEvents(t *testing.T) {
	bus := NewInMemoryEventBus(slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan any, 2)

	require.NoError(t, bus.Handle(events.ExecutionStatusChangedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.GraphChanged{
		BaseEvent: events.NewBaseEvent(events.GraphChangedEvent, "wf-1"),
		Command:   "add_node",
	}))

	require.NoError(t, bus.Publish(ctx, "wf-1", events.ExecutionStatusChanged{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStatusChangedEvent, "wf-1"),
		ExecutionID: "ex-1",
		Status:      models.ExecutionStatusSuccess,
	}))

	select {
	case event := <-received:
		changed, ok := event.(*events.ExecutionStatusChanged)
		require.True(t, ok)
		assert.Equal(t, "ex-1", changed.ExecutionID)
		assert.Equal(t, models.ExecutionStatusSuccess, changed.Status)
		assert.Equal(t, "wf-1", changed.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case event := <-received:
		t.Fatalf("unexpected event %T", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryEventBus_HandlerErrorRedelivers(t *testing.T) {
	bus := NewInMemoryEventBus(slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	calls := make(chan struct{}, 4)

	var attempts atomic.Int32

	require.NoError(t, bus.Handle(events.WorkflowSavedEvent, func(context.Context, any) error {
		calls <- struct{}{}
		if attempts.Add(1) == 1 {
			return errors.New("try again")
		}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))
	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, "wf-1"),
	}))

	for range 2 {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("event not redelivered after nack")
		}
	}
}

func TestNewEvent_CoversEveryType(t *testing.T) {
	for _, eventType := range []events.EventType{
		events.WorkflowLoadedEvent,
		events.GraphChangedEvent,
		events.WorkflowImportedEvent,
		events.SaveStateChangedEvent,
		events.WorkflowSavedEvent,
		events.FileUploadedEvent,
		events.FileDeletedEvent,
		events.ExecutionStartedEvent,
		events.ExecutionStatusChangedEvent,
		events.ExecutionPollFailedEvent,
	} {
		event := newEvent(eventType)
		require.NotNil(t, event, eventType)
		assert.Equal(t, eventType, event.(Event).GetType())
	}

	assert.Nil(t, newEvent("unknown"))
}

func TestDiscard(t *testing.T) {
	var bus EventBus = Discard{}

	require.NoError(t, bus.Publish(context.Background(), "k", events.WorkflowLoaded{}))
	require.NoError(t, bus.Subscribe(context.Background()))
	require.NoError(t, bus.Close())
}
