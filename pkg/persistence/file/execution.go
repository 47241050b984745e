package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

const executionsDir = "executions"

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// GetByID retrieves an execution by its ID.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	var execution models.Execution

	err := readJSON(recordPath(er.root, executionsDir, id, ".json"), &execution)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return &execution, nil
}

// GetByWorkflow returns the executions of a workflow, most recent first.
func (er *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(er.root, executionsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, file := range jsonFiles {
		execution, err := er.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if persistence.IsExecutionNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	slices.SortFunc(executions, func(a, b *models.Execution) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return executions, nil
}

// Save writes an execution, replacing any previous record with the same ID.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	if err := validateID(execution.ID); err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	if err := writeJSON(recordPath(er.root, executionsDir, execution.ID, ".json"), execution); err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}
