package graphstore

import "fmt"

// scanEdge scans a row into an Edge.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	var kind, distType string
	err := scanner.Scan(&e.SourceID, &e.TargetID, &kind, &distType, &e.Dist.Param1, &e.Dist.Param2)
	e.Kind = EdgeKind(kind)
	e.Dist.Type = DistType(distType)
	return e, err
}

// GetEdgesFrom returns all edges leaving the given node. O(out-degree);
// this is the only traversal the energy diffusion needs.
func (d *DB) GetEdgesFrom(sourceID string) ([]Edge, error) {
	rows, err := d.conn.Query(`
		SELECT source_id, target_id, kind, dist_type, param1, param2
		FROM edges WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("getting edges from %s: %w", sourceID, err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AllEdges returns every edge in the graph. Used by diagnostics only.
func (d *DB) AllEdges() ([]Edge, error) {
	rows, err := d.conn.Query(`
		SELECT source_id, target_id, kind, dist_type, param1, param2 FROM edges
	`)
	if err != nil {
		return nil, fmt.Errorf("getting all edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CountEdgesByKind returns edge counts grouped by kind.
func (d *DB) CountEdgesByKind() (map[EdgeKind]int, error) {
	rows, err := d.conn.Query(`SELECT kind, COUNT(*) FROM edges GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("counting edges: %w", err)
	}
	defer rows.Close()

	counts := make(map[EdgeKind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[EdgeKind(kind)] = count
	}
	return counts, rows.Err()
}
