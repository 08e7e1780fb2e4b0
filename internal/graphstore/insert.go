package graphstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IntegrityError reports an edge whose endpoint does not resolve to any
// node, neither in the incoming batch nor in the store. Dangling edges
// would silently break energy diffusion, so the whole batch is rejected.
type IntegrityError struct {
	SourceID string
	TargetID string
	Missing  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("edge %s -> %s references missing node %s", e.SourceID, e.TargetID, e.Missing)
}

// InsertBatch inserts nodes then edges in a single transaction with
// insert-or-ignore semantics: re-inserting an existing id or (source,
// target) pair is a no-op. Returns counts of rows actually inserted.
// Any edge endpoint that resolves neither in the batch nor in the store
// aborts the whole transaction with an IntegrityError.
func (d *DB) InsertBatch(ctx context.Context, nodes []Node, edges []Edge) (nodesInserted, edgesInserted int64, err error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	batchIDs := make(map[string]bool, len(nodes))

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO nodes (id, kind, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range nodes {
		createdAt := n.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		res, err := nodeStmt.ExecContext(ctx, n.ID, string(n.Kind), createdAt)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		nodesInserted += affected
		batchIDs[n.ID] = true
	}

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing node lookup: %w", err)
	}
	defer existsStmt.Close()

	resolves := func(id string) (bool, error) {
		if batchIDs[id] {
			return true, nil
		}
		var one int
		err := existsStmt.QueryRowContext(ctx, id).Scan(&one)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO edges (source_id, target_id, kind, dist_type, param1, param2)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range edges {
		if !e.Kind.IsValid() {
			return 0, 0, fmt.Errorf("edge %s -> %s has unknown kind %q", e.SourceID, e.TargetID, e.Kind)
		}
		if err := e.Dist.Validate(); err != nil {
			return 0, 0, fmt.Errorf("edge %s -> %s: %w", e.SourceID, e.TargetID, err)
		}
		for _, endpoint := range []string{e.SourceID, e.TargetID} {
			ok, err := resolves(endpoint)
			if err != nil {
				return 0, 0, fmt.Errorf("checking edge endpoint %s: %w", endpoint, err)
			}
			if !ok {
				return 0, 0, &IntegrityError{SourceID: e.SourceID, TargetID: e.TargetID, Missing: endpoint}
			}
		}

		res, err := edgeStmt.ExecContext(ctx,
			e.SourceID, e.TargetID, string(e.Kind), string(e.Dist.Type), e.Dist.Param1, e.Dist.Param2)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting edge %s -> %s: %w", e.SourceID, e.TargetID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		edgesInserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing import: %w", err)
	}
	return nodesInserted, edgesInserted, nil
}
