// Package learner persists per-learner memory state: scheduling fields
// owned by the memory model, the diffused energy signal owned by the review
// engine, a propagation audit log, and ephemeral session-resume state.
// It lives in its own database file; node ids reference the graph store by
// value only, with no cross-store integrity enforced or assumed.
package learner

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection holding learner state.
type DB struct {
	conn *sql.DB
	Path string
}

// Open opens (creating if needed) the learner database with WAL mode enabled.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening learner database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	// Serialize writers instead of failing fast: energy diffusion fans out
	// concurrent updates onto overlapping rows.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	if err := d.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating learner schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory_states (
		learner_id       TEXT NOT NULL,
		node_id          TEXT NOT NULL,
		stability        REAL NOT NULL DEFAULT 0,
		difficulty       REAL NOT NULL DEFAULT 0,
		energy           REAL NOT NULL DEFAULT 0,
		last_reviewed_at INTEGER,
		due_at           INTEGER,
		review_count     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (learner_id, node_id)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_due ON memory_states(learner_id, due_at);

	CREATE TABLE IF NOT EXISTS propagation_events (
		id         TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL,
		source_id  TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS propagation_details (
		event_id     TEXT NOT NULL REFERENCES propagation_events(id) ON DELETE CASCADE,
		target_id    TEXT NOT NULL,
		energy_delta REAL NOT NULL,
		reason       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prop_details_event ON propagation_details(event_id);

	CREATE TABLE IF NOT EXISTS session_state (
		learner_id TEXT PRIMARY KEY,
		items      TEXT NOT NULL,
		saved_at   INTEGER NOT NULL
	);
	`
	_, err := d.conn.Exec(schema)
	return err
}
