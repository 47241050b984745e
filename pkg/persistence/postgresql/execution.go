package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const selectExecution = `
		SELECT id, workflow_id, status, started_at, finished_at, error, input, data
		FROM executions
`

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := r.scanExecution(r.db.QueryRowContext(ctx, selectExecution+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

// GetByWorkflow returns the executions of a workflow, most recent first.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	rows, err := r.db.QueryContext(ctx, selectExecution+` WHERE workflow_id = $1 ORDER BY started_at DESC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// Save upserts an execution.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	var errorJSON any
	if execution.Error != nil {
		raw, err := json.Marshal(execution.Error)
		if err != nil {
			return persistence.NewExecutionError("Save", execution.ID, fmt.Errorf("failed to marshal error: %w", err))
		}

		errorJSON = raw
	}

	inputJSON, err := jsonOrNull(execution.Input)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, fmt.Errorf("failed to marshal input: %w", err))
	}

	dataJSON, err := json.Marshal(execution.Data)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, fmt.Errorf("failed to marshal data: %w", err))
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, started_at, finished_at, error, input, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			error = EXCLUDED.error,
			data = EXCLUDED.data
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.Status,
		execution.StartedAt,
		execution.FinishedAt,
		errorJSON,
		inputJSON,
		dataJSON,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) scanExecution(row scanner) (*models.Execution, error) {
	var (
		execution                      models.Execution
		finishedAt                     sql.NullTime
		errorJSON, inputJSON, dataJSON []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&execution.StartedAt,
		&finishedAt,
		&errorJSON,
		&inputJSON,
		&dataJSON,
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		execution.FinishedAt = &finishedAt.Time
	}

	if errorJSON != nil {
		if err := json.Unmarshal(errorJSON, &execution.Error); err != nil {
			return nil, fmt.Errorf("failed to unmarshal error: %w", err)
		}
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &execution.Input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal input: %w", err)
		}
	}

	if err := json.Unmarshal(dataJSON, &execution.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &execution, nil
}

// jsonOrNull maps nil to SQL NULL.
func jsonOrNull(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	return json.Marshal(v)
}
