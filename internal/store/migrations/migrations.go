// Package migrations creates and upgrades the history schema.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "batches",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS batches (
				id VARCHAR PRIMARY KEY,
				kind VARCHAR NOT NULL,
				total INTEGER NOT NULL,
				succeeded INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				cancelled INTEGER NOT NULL DEFAULT 0,
				not_started INTEGER NOT NULL DEFAULT 0,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "batch_items",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS batch_items (
				batch_id VARCHAR NOT NULL,
				idx INTEGER NOT NULL,
				input_path VARCHAR NOT NULL,
				settings VARCHAR NOT NULL,
				output_path VARCHAR NOT NULL DEFAULT '',
				outcome VARCHAR NOT NULL,
				error VARCHAR NOT NULL DEFAULT '',
				duration_ms BIGINT NOT NULL DEFAULT 0,
				finished_at TIMESTAMP NOT NULL,
				PRIMARY KEY (batch_id, idx)
			)`,
			`CREATE INDEX IF NOT EXISTS batch_items_outcome_idx ON batch_items (outcome)`,
		},
	},
}

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT now()
	)`

// Run applies every migration not yet recorded in schema_migrations.
func Run(ctx context.Context, db *sql.DB) error {
	logger := zap.S().Named("migrations")

	if _, err := db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		logger.Infow("migration applied", "version", m.version, "name", m.name)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
