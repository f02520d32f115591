// Package sqlite provides the SQLite-backed execution-history archive. The
// in-memory history ring stays authoritative; this adapter is an audit sink
// whose failures never affect rule execution.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/rentfall/rentfall/internal/application/ports"
)

// Archive persists execution-history records to SQLite.
type Archive struct {
	db *sql.DB
}

// Open opens (creating as needed) the archive database at dbPath. The
// special path ":memory:" keeps the archive in memory for tests.
func Open(dbPath string) (*Archive, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("could not create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach archive database: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

// Append inserts one history record.
func (a *Archive) Append(ctx context.Context, rec ports.HistoryRecord) error {
	effects, err := json.Marshal(rec.EffectResults)
	if err != nil {
		return fmt.Errorf("could not encode effect results: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO executions
		(execution_id, rule_id, actor_name, day, timestamp, success, effect_results)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ExecutionID, rec.RuleID, rec.ActorName, rec.Day, rec.Timestamp, rec.Success, string(effects))
	return err
}

// ByRule returns up to limit records for one rule, newest first.
func (a *Archive) ByRule(ctx context.Context, ruleID string, limit int) ([]ports.HistoryRecord, error) {
	return a.query(ctx, `
		SELECT execution_id, rule_id, actor_name, day, timestamp, success, effect_results
		FROM executions WHERE rule_id = ?
		ORDER BY id DESC LIMIT ?
	`, ruleID, normalizeLimit(limit))
}

// ByActor returns up to limit records for one actor, newest first.
func (a *Archive) ByActor(ctx context.Context, actorName string, limit int) ([]ports.HistoryRecord, error) {
	return a.query(ctx, `
		SELECT execution_id, rule_id, actor_name, day, timestamp, success, effect_results
		FROM executions WHERE actor_name = ?
		ORDER BY id DESC LIMIT ?
	`, actorName, normalizeLimit(limit))
}

// Recent returns up to limit records across all rules, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]ports.HistoryRecord, error) {
	return a.query(ctx, `
		SELECT execution_id, rule_id, actor_name, day, timestamp, success, effect_results
		FROM executions
		ORDER BY id DESC LIMIT ?
	`, normalizeLimit(limit))
}

// Prune keeps only the newest keep records and deletes the rest, returning
// the number removed.
func (a *Archive) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := a.db.ExecContext(ctx, `
		DELETE FROM executions
		WHERE id NOT IN (SELECT id FROM executions ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the total number of archived records.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) query(ctx context.Context, q string, args ...any) ([]ports.HistoryRecord, error) {
	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.HistoryRecord
	for rows.Next() {
		var rec ports.HistoryRecord
		var effects string
		if err := rows.Scan(&rec.ExecutionID, &rec.RuleID, &rec.ActorName,
			&rec.Day, &rec.Timestamp, &rec.Success, &effects); err != nil {
			return nil, err
		}
		if effects != "" {
			if err := json.Unmarshal([]byte(effects), &rec.EffectResults); err != nil {
				return nil, fmt.Errorf("could not decode effect results: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

// Ensure Archive implements the port.
var _ ports.HistoryArchive = (*Archive)(nil)
