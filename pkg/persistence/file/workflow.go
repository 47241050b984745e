package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

const workflowsDir = "workflows"

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root string // File system root for storing workflows
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// List returns every stored workflow in the requested order.
func (wr *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) ([]*models.Workflow, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(wr.root, workflowsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := strings.TrimSuffix(file, ".json")

		workflow, err := wr.GetByID(ctx, workflowID)
		if persistence.IsWorkflowNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	persistence.SortWorkflows(workflows, opts)

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	if err := validateID(workflowID); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
	}

	var workflow models.Workflow

	err := readJSON(recordPath(wr.root, workflowsDir, workflowID, ".json"), &workflow)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, err)
	}

	return &workflow, nil
}

// Save writes a workflow, stamping CreatedAt on first save and UpdatedAt on
// every save.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if err := validateID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := writeJSON(recordPath(wr.root, workflowsDir, workflow.ID, ".json"), workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	err := os.Remove(recordPath(wr.root, workflowsDir, id, ".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
