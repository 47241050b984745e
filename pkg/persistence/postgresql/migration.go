package postgresql

import "github.com/dukex/flowcanvas/pkg/persistence/sqlbase"

func migrations() []sqlbase.Migration {
	return []sqlbase.Migration{
		{Version: 1, Description: "workflows, executions and files", SQL: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			-- position keeps the canvas order of nodes
			CREATE TABLE workflow_nodes (
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				position INT NOT NULL,
				node_type VARCHAR(255) NOT NULL,
				label VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				icon VARCHAR(255) NOT NULL DEFAULT '',
				color VARCHAR(50) NOT NULL DEFAULT '',
				config JSONB,
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, id)
			);

			-- connection order decides which predecessor is $prev
			CREATE TABLE workflow_connections (
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				position INT NOT NULL,
				id VARCHAR(255) NOT NULL DEFAULT '',
				source_node_id VARCHAR(255) NOT NULL,
				source_handle VARCHAR(255) NOT NULL DEFAULT '',
				target_node_id VARCHAR(255) NOT NULL,
				target_handle VARCHAR(255) NOT NULL DEFAULT '',
				PRIMARY KEY (workflow_id, position)
			);

			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE,
				error JSONB,
				input JSONB,
				data JSONB NOT NULL DEFAULT '{}'
			);

			CREATE INDEX idx_executions_workflow_id ON executions(workflow_id);
			CREATE INDEX idx_executions_status ON executions(status);

			CREATE TABLE files (
				id VARCHAR(255) PRIMARY KEY,
				filename VARCHAR(1024) NOT NULL,
				mimetype VARCHAR(255) NOT NULL,
				size BIGINT NOT NULL,
				uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL,
				content BYTEA NOT NULL
			);
		`},
	}
}
