package graphstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"recall/engine/internal/ids"
)

// scanNode scans a row into a Node.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	var kind string
	err := scanner.Scan(&n.ID, &kind, &n.CreatedAt)
	n.Kind = ids.NodeKind(kind)
	return n, err
}

// GetNode returns a single node by id, or nil if not found. An absent id is
// a normal outcome, never an error.
func (d *DB) GetNode(id string) (*Node, error) {
	row := d.conn.QueryRow(`SELECT id, kind, created_at FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", id, err)
	}
	return &n, nil
}

// GetNodes returns the nodes matching the given ids. Missing ids are simply
// absent from the result; no order is guaranteed.
func (d *DB) GetNodes(nodeIDs []string) ([]Node, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(nodeIDs))
	args := make([]any, len(nodeIDs))
	for i, id := range nodeIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, kind, created_at FROM nodes WHERE id IN (%s)`,
		strings.Join(placeholders, ","),
	)
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting nodes: %w", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// CountNodesByKind returns node counts grouped by kind.
func (d *DB) CountNodesByKind() (map[ids.NodeKind]int, error) {
	rows, err := d.conn.Query(`SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("counting nodes: %w", err)
	}
	defer rows.Close()

	counts := make(map[ids.NodeKind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[ids.NodeKind(kind)] = count
	}
	return counts, rows.Err()
}

// AllNodeIDs returns every node id in the store. Used by diagnostics only.
func (d *DB) AllNodeIDs() ([]string, error) {
	rows, err := d.conn.Query(`SELECT id FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}
	defer rows.Close()

	var nodeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		nodeIDs = append(nodeIDs, id)
	}
	return nodeIDs, rows.Err()
}

// nodeIDsByPrefix returns ids starting with prefix, for bounded scans at
// verse boundaries. Limit guards against degenerate prefixes.
func (d *DB) nodeIDsByPrefix(prefix string, limit int) ([]string, error) {
	rows, err := d.conn.Query(
		`SELECT id FROM nodes WHERE id LIKE ? LIMIT ?`, prefix+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("scanning id prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var matched []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		matched = append(matched, id)
	}
	return matched, rows.Err()
}
