package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/herald/pkg/observability"
)

// Migration is a versioned schema change for the tables herald owns. The
// content tables it reads (users, nodes, groups) belong to the CMS.
type Migration struct {
	Version     int
	Description string
	SQL         map[string]string // statement per database driver
}

// GetMigrations returns the herald schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create api_tokens table",
			SQL: map[string]string{
				"postgres": `
					CREATE TABLE IF NOT EXISTS api_tokens (
						id BIGSERIAL PRIMARY KEY,
						user_key UUID NOT NULL,
						token_hash VARCHAR(64) NOT NULL UNIQUE,
						token_prefix VARCHAR(32) NOT NULL,
						name VARCHAR(255) NOT NULL,
						expires_at TIMESTAMP,
						revoked_at TIMESTAMP,
						created_at TIMESTAMP NOT NULL DEFAULT NOW()
					);

					CREATE INDEX IF NOT EXISTS idx_api_tokens_user_key ON api_tokens(user_key);
				`,
				"sqlite3": `
					CREATE TABLE IF NOT EXISTS api_tokens (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						user_key TEXT NOT NULL,
						token_hash TEXT NOT NULL UNIQUE,
						token_prefix TEXT NOT NULL,
						name TEXT NOT NULL,
						expires_at TIMESTAMP,
						revoked_at TIMESTAMP,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					);

					CREATE INDEX IF NOT EXISTS idx_api_tokens_user_key ON api_tokens(user_key);
				`,
			},
		},
	}
}

// RunMigrations applies pending migrations for the given driver
func RunMigrations(ctx context.Context, db *sql.DB, driver string, logger *observability.Logger) error {
	logger = observability.OrNop(logger)

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS herald_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM herald_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}
		stmt, ok := migration.SQL[driver]
		if !ok {
			return fmt.Errorf("migration %d has no statement for driver %q", migration.Version, driver)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO herald_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		logger.WithField("version", migration.Version).Infof("Applied migration: %s", migration.Description)
	}

	return nil
}
