package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/validation"
)

// Activation switches workflows on and off. Only runnable workflows can be
// activated.
type Activation struct {
	persistence persistence.Persistence
	catalog     models.TemplateCatalog
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewActivation creates a new activation service. Node configs are checked
// against catalog.
func NewActivation(persistence persistence.Persistence, catalog models.TemplateCatalog, logger *slog.Logger) *Activation {
	return &Activation{
		persistence: persistence,
		catalog:     catalog,
		validator:   validation.New(),
		logger:      logger.With("module", "activation_service"),
	}
}

// Activate marks a workflow active after checking it is runnable.
func (a *Activation) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := a.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if err := a.validateForActivation(workflow); err != nil {
		return nil, err
	}

	return a.setActive(ctx, workflow, true)
}

// Deactivate marks a workflow inactive.
func (a *Activation) Deactivate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := a.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return a.setActive(ctx, workflow, false)
}

func (a *Activation) setActive(ctx context.Context, workflow *models.Workflow, active bool) (*models.Workflow, error) {
	if workflow.Active == active {
		return workflow, nil
	}

	workflow.Active = active

	if err := a.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	a.logger.InfoContext(ctx, "Workflow activation changed", "workflow_id", workflow.ID, "active", active)

	return workflow, nil
}

// validateForActivation ensures a workflow has nodes, no cycle and valid
// node configs.
func (a *Activation) validateForActivation(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	if workflow.Name == "" {
		return ErrWorkflowNameRequired
	}

	if len(workflow.Nodes) == 0 {
		return ErrNodesRequired
	}

	if _, err := graph.ExecutionOrder(workflow.Graph); err != nil {
		return NewValidationError("Activate", "INVALID_GRAPH", err.Error(), ErrInvalidGraph)
	}

	if a.catalog == nil {
		return nil
	}

	if err := a.validator.ValidateGraph(workflow.Graph, a.catalog); err != nil {
		return NewValidationError("Activate", "INVALID_CONFIG", err.Error(), ErrInvalidGraph)
	}

	return nil
}
