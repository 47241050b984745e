// Package sqlbase provides the base functionality for SQL database persistence.
package sqlbase

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrator applies migrations that are not yet recorded in schema_migrations.
type Migrator struct {
	db         *sql.DB
	logger     *slog.Logger
	migrations []Migration
}

// NewMigrator creates a migrator. Migrations may be given in any order.
func NewMigrator(logger *slog.Logger, db *sql.DB, migrations []Migration) *Migrator {
	sorted := slices.Clone(migrations)
	slices.SortFunc(sorted, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })

	return &Migrator{
		db:         db,
		logger:     logger.With("module", "migrator"),
		migrations: sorted,
	}
}

// Migrate brings the schema up to date. Each migration runs in its own
// transaction together with its bookkeeping row.
func (m *Migrator) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}

	pending := slices.DeleteFunc(slices.Clone(m.migrations), func(mig Migration) bool {
		return slices.Contains(applied, mig.Version)
	})

	m.logger.InfoContext(ctx, "Checking schema", "applied", len(applied), "pending", len(pending))

	for _, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return err
		}

		m.logger.InfoContext(ctx, "Migration applied", "version", mig.Version, "description", mig.Description)
	}

	return nil
}

// Applied returns the recorded migration versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int

	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}

		versions = append(versions, v)
	}

	return versions, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", mig.Version, err)
	}

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Description, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)", mig.Version, mig.Description)
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("migration %d: record: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", mig.Version, err)
	}

	return nil
}
