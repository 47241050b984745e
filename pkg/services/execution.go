package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/google/uuid"
)

// Execution records workflow runs. It runs nothing itself: a run is created
// waiting and progressed by whichever runner reports through Update.
type Execution struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewExecution creates a new execution service. A nil bus drops events.
func NewExecution(persistence persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger) *Execution {
	if bus == nil {
		bus = eventbus.Discard{}
	}

	return &Execution{
		persistence: persistence,
		bus:         bus,
		logger:      logger.With("module", "execution_service"),
		now:         time.Now,
	}
}

// Execute records a new waiting run of a stored workflow.
func (e *Execution) Execute(ctx context.Context, workflowID string, input any) (*models.Execution, error) {
	if _, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	if input == nil {
		input = map[string]any{}
	}

	execution := &models.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Status:     models.ExecutionStatusWaiting,
		StartedAt:  e.now().UTC(),
		Input:      input,
		Data: models.ExecutionData{
			ResultData: models.ResultData{RunData: map[string]models.NodeRunResult{}},
		},
	}

	if err := e.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	e.logger.InfoContext(ctx, "Execution created", "execution_id", execution.ID, "workflow_id", workflowID)
	e.publish(ctx, execution.WorkflowID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflowID),
		ExecutionID: execution.ID,
		Input:       input,
	})

	return execution, nil
}

// Get returns an execution by its ID.
func (e *Execution) Get(ctx context.Context, id string) (*models.Execution, error) {
	return e.persistence.ExecutionRepository().GetByID(ctx, id)
}

// ListByWorkflow returns the runs of a workflow, most recent first.
func (e *Execution) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	if _, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	return e.persistence.ExecutionRepository().GetByWorkflow(ctx, workflowID)
}

// UpdateExecutionRequest is a progress report from a runner. Zero fields are
// left unchanged.
type UpdateExecutionRequest struct {
	Status  models.ExecutionStatus
	Error   *models.ExecutionError
	RunData map[string]models.NodeRunResult
}

// Update applies a progress report. Finished runs cannot change anymore.
// Reaching a terminal status stamps FinishedAt.
func (e *Execution) Update(ctx context.Context, id string, req *UpdateExecutionRequest) (*models.Execution, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	if req.Status != "" && !req.Status.Valid() {
		return nil, NewValidationError("Update", "INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", req.Status), ErrInvalidStatus)
	}

	execution, err := e.persistence.ExecutionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if execution.Status.IsTerminal() {
		return nil, &ServiceError{
			Op:      "Update",
			Code:    "EXECUTION_FINISHED",
			Message: fmt.Sprintf("execution %s is already %s", id, execution.Status),
			Err:     ErrExecutionFinished,
		}
	}

	previous := execution.Status

	if req.Status != "" {
		execution.Status = req.Status
	}

	if req.Error != nil {
		execution.Error = req.Error
	}

	if len(req.RunData) > 0 {
		if execution.Data.ResultData.RunData == nil {
			execution.Data.ResultData.RunData = map[string]models.NodeRunResult{}
		}

		maps.Copy(execution.Data.ResultData.RunData, req.RunData)
	}

	if execution.Status.IsTerminal() {
		finished := e.now().UTC()
		execution.FinishedAt = &finished
	}

	if err := e.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}

	if execution.Status != previous {
		e.logger.InfoContext(ctx, "Execution status changed",
			"execution_id", id, "from", previous, "to", execution.Status)

		event := events.ExecutionStatusChanged{
			BaseEvent:   events.NewBaseEvent(events.ExecutionStatusChangedEvent, execution.WorkflowID),
			ExecutionID: id,
			Status:      execution.Status,
			DurationMs:  execution.Duration().Milliseconds(),
		}
		if execution.Error != nil {
			event.Error = execution.Error.Message
		}

		e.publish(ctx, execution.WorkflowID, event)
	}

	return execution, nil
}

func (e *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "type", event.GetType(), "error", err)
	}
}
