package sqlite

import (
	"database/sql"
	"fmt"
)

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	if err := createMigrationsTable(db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		sql     string
	}{
		{1, "create_executions_table", createExecutionsTable},
		{2, "create_execution_indices", createExecutionIndices},
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}
		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table.
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// isMigrationApplied checks whether a migration version is recorded.
func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records an applied migration.
func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec(`INSERT INTO migrations (version, name) VALUES (?, ?)`, version, name)
	return err
}

const createExecutionsTable = `
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		execution_id TEXT NOT NULL,
		rule_id TEXT NOT NULL,
		actor_name TEXT NOT NULL,
		day INTEGER NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		success BOOLEAN NOT NULL,
		effect_results TEXT
	)
`

const createExecutionIndices = `
	CREATE INDEX IF NOT EXISTS idx_executions_rule_id ON executions(rule_id);
	CREATE INDEX IF NOT EXISTS idx_executions_actor_name ON executions(actor_name);
	CREATE INDEX IF NOT EXISTS idx_executions_day ON executions(day)
`
