package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// SaveState tells whether local edits reached the backend.
type SaveState string

const (
	// StateClean means nothing was edited since the workflow was loaded.
	StateClean SaveState = "clean"
	// StateDirty means local edits are not saved.
	StateDirty SaveState = "dirty"
	// StatePending means a save is in flight.
	StatePending SaveState = "pending"
	// StateCommitted means the backend holds the current local graph.
	StateCommitted SaveState = "committed"
	// StateFailed means the last save failed. Local edits are kept.
	StateFailed SaveState = "failed"
)

// Synced reports whether the backend holds the local state.
func (s SaveState) Synced() bool {
	return s == StateClean || s == StateCommitted
}

type saveStatus struct {
	state   SaveState
	err     error
	savedAt time.Time
	outbox  []events.SaveStateChanged
}

// SaveStatus is a snapshot of the save state machine.
type SaveStatus struct {
	State     SaveState
	LastError error
	SavedAt   time.Time
}

// State returns the current save state.
func (s *Session) State() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save.state
}

// Status returns the save state with the last error and save time.
func (s *Session) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SaveStatus{State: s.save.state, LastError: s.save.err, SavedAt: s.save.savedAt}
}

// transition moves the save state machine. Callers hold s.mu and call
// flush once unlocked.
func (s *Session) transition(to SaveState, err error) {
	from := s.save.state
	s.save.err = err

	if from == to {
		return
	}

	s.save.state = to

	event := events.SaveStateChanged{
		BaseEvent: events.NewBaseEvent(events.SaveStateChangedEvent, s.meta.ID),
		From:      string(from),
		State:     string(to),
	}
	if err != nil {
		event.Error = err.Error()
	}

	s.save.outbox = append(s.save.outbox, event)
}

func (s *Session) flush(ctx context.Context) {
	s.mu.Lock()
	outbox := s.save.outbox
	s.save.outbox = nil
	s.mu.Unlock()

	for _, event := range outbox {
		s.publish(ctx, event)
	}
}

// Save sends the current workflow to the backend. Concurrent calls share a
// single request. A caller joining a save that snapshotted an older revision
// than its own waits for it and then saves again, so a nil return means every
// edit made before the call reached the backend. Local state is never rolled
// back: on failure the session stays on its edited graph in StateFailed.
// Edits made while the save is in flight leave the session dirty once it
// completes.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	want := s.revision
	s.mu.Unlock()

	for {
		saved, err, _ := s.saves.Do(s.meta.ID, func() (any, error) {
			return s.doSave(ctx)
		})
		if err != nil {
			return err
		}

		if saved.(uint64) >= want {
			return nil
		}
	}
}

// doSave returns the revision the backend now holds.
func (s *Session) doSave(ctx context.Context) (uint64, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "session.save",
		attribute.String(otelhelper.WorkflowIDKey, s.meta.ID))
	defer span.End()

	s.mu.Lock()
	workflow := s.snapshot()
	revision := s.revision
	s.transition(StatePending, nil)
	s.mu.Unlock()
	s.flush(ctx)

	span.SetAttributes(attribute.String(otelhelper.WorkflowNameKey, workflow.Name))

	saved, err := s.backend.SaveWorkflow(ctx, workflow)

	s.mu.Lock()
	switch {
	case err != nil:
		s.transition(StateFailed, err)
	case s.revision != revision:
		s.save.savedAt = s.now()
		s.transition(StateDirty, nil)
	default:
		s.save.savedAt = s.now()
		if saved != nil && !saved.UpdatedAt.IsZero() {
			s.meta.UpdatedAt = saved.UpdatedAt
		}
		s.transition(StateCommitted, nil)
	}
	s.mu.Unlock()
	s.flush(ctx)

	if err != nil {
		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "Failed to save workflow", "error", err)

		return 0, fmt.Errorf("save workflow %s: %w", s.meta.ID, err)
	}

	s.logger.InfoContext(ctx, "Workflow saved", "nodes", len(workflow.Nodes), "connections", len(workflow.Connections))

	return revision, nil
}
