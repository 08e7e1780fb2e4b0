// Package graphstore persists the content graph: typed nodes plus directed,
// distribution-weighted edges. It is written once by the import pipeline and
// read-only afterwards. Structural relationships are answered by id
// arithmetic (see GetAdjacent); semantic relationships are explicit edge rows.
package graphstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection holding the content graph.
type DB struct {
	conn *sql.DB
	Path string
}

// Open opens (creating if needed) the graph database with WAL mode enabled.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening graph database: %w", err)
	}

	// WAL for concurrent reads during review traffic
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	if err := d.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating graph schema: %w", err)
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
	CREATE TABLE IF NOT EXISTS nodes (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS edges (
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		kind      TEXT NOT NULL,
		dist_type TEXT NOT NULL,
		param1    REAL NOT NULL,
		param2    REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (source_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
	`
	_, err := d.conn.Exec(schema)
	return err
}
