// Package redis provides Redis persistence. Records are JSON strings keyed by
// id, with sets indexing them.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flowcanvas:"

// Persistence implements persistence.Persistence on a Redis server.
type Persistence struct {
	client        redis.UniversalClient
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	fileRepo      *FileRepository
}

// NewPersistence connects to the server at url, e.g. redis://localhost:6379/0.
func NewPersistence(ctx context.Context, logger *slog.Logger, url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceFromClient(client, logger), nil
}

// NewPersistenceFromClient wraps an existing client.
func NewPersistenceFromClient(client redis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{
		client:        client,
		logger:        logger,
		workflowRepo:  &WorkflowRepository{client: client},
		executionRepo: &ExecutionRepository{client: client},
		fileRepo:      &FileRepository{client: client},
	}
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) FileRepository() persistence.FileRepository {
	return p.fileRepo
}
