package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const selectWorkflow = `
		SELECT
			id
		  , name
		  , description
		  , active
		  , created_at
		  , updated_at
		FROM workflows
`

// List returns all live workflows in the requested order.
func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) ([]*models.Workflow, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	// opts is allowlisted by Normalize
	query := selectWorkflow + `
		WHERE deleted_at IS NULL
		ORDER BY ` + opts.SortBy + ` ` + opts.SortOrder + `, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflowBase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	for _, workflow := range workflows {
		if err := r.loadGraph(ctx, workflow); err != nil {
			return nil, persistence.NewWorkflowError("List", workflow.ID, err)
		}
	}

	return workflows, nil
}

// GetByID returns a live workflow with its graph.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, selectWorkflow+` WHERE id = $1 AND deleted_at IS NULL`, id)

	workflow, err := r.scanWorkflowBase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to scan workflow: %w", err))
	}

	if err := r.loadGraph(ctx, workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save upserts a workflow and replaces its graph in one transaction. Saving
// a deleted workflow restores it.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) (err error) {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, name, description, active, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING created_at
	`

	err = tx.QueryRowContext(ctx, workflowQuery,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.Active,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	).Scan(&workflow.CreatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to save workflow base: %w", err))
	}

	for _, table := range []string{"workflow_connections", "workflow_nodes"} {
		_, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE workflow_id = $1", workflow.ID)
		if err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to clear %s: %w", table, err))
		}
	}

	if err = r.saveNodes(ctx, tx, workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err = r.saveConnections(ctx, tx, workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) saveNodes(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_nodes (workflow_id, id, position, node_type, label, description, icon, color, config, position_x, position_y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for i, node := range workflow.Nodes {
		configJSON, err := json.Marshal(node.Data.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal config of node %s: %w", node.ID, err)
		}

		_, err = tx.ExecContext(ctx, query,
			workflow.ID,
			node.ID,
			i,
			node.Type,
			node.Data.Label,
			node.Data.Description,
			node.Data.Icon,
			node.Data.Color,
			configJSON,
			node.Position.X,
			node.Position.Y,
		)
		if err != nil {
			return fmt.Errorf("failed to save node %s: %w", node.ID, err)
		}
	}

	return nil
}

func (r *WorkflowRepository) saveConnections(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_connections (workflow_id, position, id, source_node_id, source_handle, target_node_id, target_handle)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, connection := range workflow.Connections {
		_, err := tx.ExecContext(ctx, query,
			workflow.ID,
			i,
			connection.ID,
			connection.Source,
			connection.SourceHandle,
			connection.Target,
			connection.TargetHandle,
		)
		if err != nil {
			return fmt.Errorf("failed to save connection %s -> %s: %w", connection.Source, connection.Target, err)
		}
	}

	return nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, workflow *models.Workflow) error {
	nodeRows, err := r.db.QueryContext(ctx, `
		SELECT id, node_type, label, description, icon, color, config, position_x, position_y
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY position
	`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}

	defer closeRows(ctx, r.logger, nodeRows)

	workflow.Nodes = make([]models.Node, 0)

	for nodeRows.Next() {
		var (
			node       models.Node
			configJSON []byte
		)

		err := nodeRows.Scan(
			&node.ID,
			&node.Type,
			&node.Data.Label,
			&node.Data.Description,
			&node.Data.Icon,
			&node.Data.Color,
			&configJSON,
			&node.Position.X,
			&node.Position.Y,
		)
		if err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}

		if configJSON != nil {
			if err := json.Unmarshal(configJSON, &node.Data.Config); err != nil {
				return fmt.Errorf("failed to unmarshal config of node %s: %w", node.ID, err)
			}
		}

		workflow.Nodes = append(workflow.Nodes, node)
	}

	if err := nodeRows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	connectionRows, err := r.db.QueryContext(ctx, `
		SELECT id, source_node_id, source_handle, target_node_id, target_handle
		FROM workflow_connections
		WHERE workflow_id = $1
		ORDER BY position
	`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query connections: %w", err)
	}

	defer closeRows(ctx, r.logger, connectionRows)

	workflow.Connections = make([]models.Connection, 0)

	for connectionRows.Next() {
		var connection models.Connection

		err := connectionRows.Scan(
			&connection.ID,
			&connection.Source,
			&connection.SourceHandle,
			&connection.Target,
			&connection.TargetHandle,
		)
		if err != nil {
			return fmt.Errorf("failed to scan connection: %w", err)
		}

		workflow.Connections = append(workflow.Connections, connection)
	}

	if err := connectionRows.Err(); err != nil {
		return fmt.Errorf("error iterating connections: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) scanWorkflowBase(row scanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Active,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}
