package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const workflowIndexKey = keyPrefix + "workflows"

func workflowKey(id string) string {
	return keyPrefix + "workflow:" + id
}

// WorkflowRepository stores workflows as JSON documents.
type WorkflowRepository struct {
	client redis.UniversalClient
}

// List loads every indexed workflow and orders it in memory.
func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) ([]*models.Workflow, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, workflowIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	if len(ids) == 0 {
		return workflows, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = workflowKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// indexed but gone
			continue
		}

		var workflow models.Workflow
		if err := json.Unmarshal([]byte(raw), &workflow); err != nil {
			return nil, persistence.NewWorkflowError("List", ids[i], err)
		}

		workflows = append(workflows, &workflow)
	}

	persistence.SortWorkflows(workflows, opts)

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	raw, err := r.client.Get(ctx, workflowKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(raw, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to unmarshal workflow: %w", err))
	}

	return &workflow, nil
}

// Save writes the document and its index entry in one transaction.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal workflow: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, workflowKey(workflow.ID), data, 0)
		pipe.SAdd(ctx, workflowIndexKey, workflow.ID)

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, workflowKey(id))
		pipe.SRem(ctx, workflowIndexKey, id)

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
