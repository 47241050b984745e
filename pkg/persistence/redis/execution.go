package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

func executionKey(id string) string {
	return keyPrefix + "execution:" + id
}

func workflowExecutionsKey(workflowID string) string {
	return keyPrefix + "workflow:" + workflowID + ":executions"
}

// ExecutionRepository stores executions as JSON documents indexed per workflow.
type ExecutionRepository struct {
	client redis.UniversalClient
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	raw, err := r.client.Get(ctx, executionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(raw, &execution); err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, fmt.Errorf("failed to unmarshal execution: %w", err))
	}

	return &execution, nil
}

// GetByWorkflow returns the executions of a workflow, most recent first.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	ids, err := r.client.SMembers(ctx, workflowExecutionsKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions of workflow %s: %w", workflowID, err)
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if persistence.IsExecutionNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	slices.SortFunc(executions, func(a, b *models.Execution) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return executions, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, fmt.Errorf("failed to marshal execution: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, executionKey(execution.ID), data, 0)
		pipe.SAdd(ctx, workflowExecutionsKey(execution.WorkflowID), execution.ID)

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}
