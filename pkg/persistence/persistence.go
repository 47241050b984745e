// Package persistence defines the storage layer of the reference backend.
package persistence

import (
	"context"
	"slices"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	FileRepository() FileRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows with their graph.
type WorkflowRepository interface {
	List(ctx context.Context, opts ListOptions) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
	Save(ctx context.Context, execution *models.Execution) error
}

// FileRepository stores uploaded files and their metadata.
type FileRepository interface {
	Save(ctx context.Context, info *models.FileInfo, content []byte) error
	// List returns the metadata of every upload, most recent first.
	List(ctx context.Context) ([]*models.FileInfo, error)
	GetByID(ctx context.Context, id string) (*models.FileInfo, error)
	Content(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// SortFiles orders uploads most recent first, then by id.
func SortFiles(files []*models.FileInfo) {
	slices.SortStableFunc(files, func(a, b *models.FileInfo) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})
}

// Sort fields accepted by ListOptions.
const (
	SortByName      = "name"
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
)

// ListOptions orders a workflow listing.
type ListOptions struct {
	SortBy    string
	SortOrder string
}

// Normalize fills defaults and rejects unknown sort fields or orders.
func (o ListOptions) Normalize() (ListOptions, error) {
	if o.SortBy == "" {
		o.SortBy = SortByUpdatedAt
	}

	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}

	o.SortOrder = strings.ToLower(o.SortOrder)

	if !slices.Contains([]string{SortByName, SortByCreatedAt, SortByUpdatedAt}, o.SortBy) {
		return o, NewSortError(o.SortBy, ErrInvalidSortField)
	}

	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		return o, NewSortError(o.SortOrder, ErrInvalidSortOrder)
	}

	return o, nil
}

// SortWorkflows orders workflows in place. opts must be normalized.
func SortWorkflows(workflows []*models.Workflow, opts ListOptions) {
	slices.SortStableFunc(workflows, func(a, b *models.Workflow) int {
		var cmp int

		switch opts.SortBy {
		case SortByName:
			cmp = strings.Compare(a.Name, b.Name)
		case SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		default:
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		}

		if opts.SortOrder == "desc" {
			return -cmp
		}

		return cmp
	})
}
