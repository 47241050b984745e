package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultPollInterval is used by Watch when no interval is given.
const DefaultPollInterval = 2 * time.Second

// ErrNoExecution indicates the backend accepted an execution without an id.
var ErrNoExecution = errors.New("backend returned no execution")

// Execute saves the workflow and starts a run with input. Nothing is run when
// the save fails.
func (s *Session) Execute(ctx context.Context, input any) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "session.execute",
		attribute.String(otelhelper.WorkflowIDKey, s.meta.ID))
	defer span.End()

	if err := s.Save(ctx); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	execution, err := s.backend.ExecuteWorkflow(ctx, s.meta.ID, input)
	if err == nil && (execution == nil || execution.ID == "") {
		err = ErrNoExecution
	}

	if err != nil {
		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "Failed to start execution", "error", err)

		return nil, fmt.Errorf("execute workflow %s: %w", s.meta.ID, err)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))
	s.logger.InfoContext(ctx, "Execution started", "execution_id", execution.ID, "status", execution.Status)

	s.publish(ctx, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, s.meta.ID),
		ExecutionID: execution.ID,
		Input:       input,
	})

	return execution, nil
}

// PollFunc observes every poll of Watch. Exactly one of execution and err is
// set.
type PollFunc func(execution *models.Execution, err error)

// Watch polls an execution at a fixed interval until it reaches a terminal
// status or ctx ends. The first poll happens immediately. A failed poll is
// reported to fn and the next attempt waits for the following tick.
func (s *Session) Watch(ctx context.Context, executionID string, interval time.Duration, fn PollFunc) (*models.Execution, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if fn == nil {
		fn = func(*models.Execution, error) {}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last     models.ExecutionStatus
		failures int
	)

	for {
		execution, err := s.backend.GetExecution(ctx, executionID)
		if err == nil && execution == nil {
			err = ErrNoExecution
		}

		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			failures++
			s.logger.WarnContext(ctx, "Execution poll failed", "execution_id", executionID, "attempt", failures, "error", err)
			s.publish(ctx, events.ExecutionPollFailed{
				BaseEvent:   events.NewBaseEvent(events.ExecutionPollFailedEvent, s.meta.ID),
				ExecutionID: executionID,
				Error:       err.Error(),
				Attempt:     failures,
			})
			fn(nil, err)
		default:
			failures = 0
			fn(execution, nil)

			if execution.Status != last {
				last = execution.Status
				s.statusChanged(ctx, execution)
			}

			if execution.Status.IsTerminal() {
				return execution, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) statusChanged(ctx context.Context, execution *models.Execution) {
	event := events.ExecutionStatusChanged{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStatusChangedEvent, s.meta.ID),
		ExecutionID: execution.ID,
		Status:      execution.Status,
		DurationMs:  execution.Duration().Milliseconds(),
	}

	if execution.Error != nil {
		event.Error = execution.Error.Message
	}

	s.logger.InfoContext(ctx, "Execution status", "execution_id", execution.ID, "status", execution.Status)
	s.publish(ctx, event)
}
