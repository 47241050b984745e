package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/google/uuid"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service. A nil bus drops events.
func NewWorkflow(persistence persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger) *Workflow {
	if bus == nil {
		bus = eventbus.Discard{}
	}

	return &Workflow{
		persistence: persistence,
		bus:         bus,
		logger:      logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	SortBy    string
	SortOrder string
}

// ListWorkflows retrieves workflows in the requested order.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().List(ctx, persistence.ListOptions{
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})

	switch {
	case errors.Is(err, persistence.ErrInvalidSortField):
		return nil, NewValidationError("ListWorkflows", "INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: created_at, updated_at, name", req.SortBy), ErrInvalidSortField)
	case errors.Is(err, persistence.ErrInvalidSortOrder):
		return nil, NewValidationError("ListWorkflows", "INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder), ErrInvalidSortOrder)
	case err != nil:
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// SaveWorkflowRequest is the editable part of a workflow.
type SaveWorkflowRequest struct {
	Name        string
	Description string
	Graph       models.Graph
}

// Create stores a new workflow under a generated id.
func (w *Workflow) Create(ctx context.Context, req *SaveWorkflowRequest) (*models.Workflow, error) {
	if err := checkWorkflow("Create", req); err != nil {
		return nil, err
	}

	workflow := &models.Workflow{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Graph:       normalizeGraph(req.Graph),
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.saved(ctx, workflow)

	return workflow, nil
}

// Save replaces the name, description and graph of a workflow. An unknown id
// creates the workflow. The graph must reference only existing nodes.
func (w *Workflow) Save(ctx context.Context, workflowID string, req *SaveWorkflowRequest) (*models.Workflow, error) {
	if err := checkWorkflow("Save", req); err != nil {
		return nil, err
	}

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)

	switch {
	case persistence.IsWorkflowNotFound(err):
		workflow = &models.Workflow{ID: workflowID}
	case err != nil:
		return nil, err
	}

	workflow.Name = strings.TrimSpace(req.Name)
	workflow.Description = req.Description
	workflow.Graph = normalizeGraph(req.Graph)

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.saved(ctx, workflow)

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	err := w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", workflowID)

	return nil
}

func (w *Workflow) saved(ctx context.Context, workflow *models.Workflow) {
	w.logger.InfoContext(ctx, "Workflow saved",
		"workflow_id", workflow.ID,
		"nodes", len(workflow.Nodes),
		"connections", len(workflow.Connections))

	err := w.bus.Publish(ctx, workflow.ID, events.WorkflowSaved{
		BaseEvent:   events.NewBaseEvent(events.WorkflowSavedEvent, workflow.ID),
		Name:        workflow.Name,
		Nodes:       len(workflow.Nodes),
		Connections: len(workflow.Connections),
		UpdatedAt:   workflow.UpdatedAt,
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to publish event", "error", err)
	}
}

func checkWorkflow(op string, req *SaveWorkflowRequest) error {
	if req == nil {
		return ErrWorkflowNil
	}

	if strings.TrimSpace(req.Name) == "" {
		return ErrWorkflowNameRequired
	}

	if err := graph.Validate(req.Graph); err != nil {
		return NewValidationError(op, "INVALID_GRAPH", err.Error(), ErrInvalidGraph)
	}

	return nil
}

func normalizeGraph(g models.Graph) models.Graph {
	if g.Nodes == nil {
		g.Nodes = []models.Node{}
	}

	if g.Connections == nil {
		g.Connections = []models.Connection{}
	}

	return g
}
