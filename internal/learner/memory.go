package learner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MemoryState is one learner's memory of one node. Stability and difficulty
// are owned by the memory model and opaque here; energy is the diffused
// mastery signal owned by the review engine. A state with ReviewCount 0 and
// nil DueAt exists only because energy was propagated into it.
type MemoryState struct {
	LearnerID      string  `json:"learner_id"`
	NodeID         string  `json:"node_id"`
	Stability      float64 `json:"stability"`
	Difficulty     float64 `json:"difficulty"`
	Energy         float64 `json:"energy"`
	LastReviewedAt *int64  `json:"last_reviewed_at"` // Unix millis
	DueAt          *int64  `json:"due_at"`           // Unix millis
	ReviewCount    int     `json:"review_count"`
}

const memoryColumns = `learner_id, node_id, stability, difficulty, energy,
	last_reviewed_at, due_at, review_count`

// scanMemoryState scans a row into a MemoryState.
func scanMemoryState(scanner interface{ Scan(dest ...any) error }) (MemoryState, error) {
	var s MemoryState
	err := scanner.Scan(
		&s.LearnerID, &s.NodeID, &s.Stability, &s.Difficulty, &s.Energy,
		&s.LastReviewedAt, &s.DueAt, &s.ReviewCount,
	)
	return s, err
}

// GetMemoryState returns the state for (learner, node), or nil if the
// learner has never touched the node.
func (d *DB) GetMemoryState(learnerID, nodeID string) (*MemoryState, error) {
	row := d.conn.QueryRow(
		`SELECT `+memoryColumns+` FROM memory_states WHERE learner_id = ? AND node_id = ?`,
		learnerID, nodeID,
	)
	s, err := scanMemoryState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting memory state %s/%s: %w", learnerID, nodeID, err)
	}
	return &s, nil
}

// SaveMemoryState upserts the state by its (learner, node) primary key.
func (d *DB) SaveMemoryState(s MemoryState) error {
	_, err := d.conn.Exec(`
		INSERT INTO memory_states
			(learner_id, node_id, stability, difficulty, energy, last_reviewed_at, due_at, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, node_id) DO UPDATE SET
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			energy = excluded.energy,
			last_reviewed_at = excluded.last_reviewed_at,
			due_at = excluded.due_at,
			review_count = excluded.review_count
	`, s.LearnerID, s.NodeID, s.Stability, s.Difficulty, s.Energy,
		s.LastReviewedAt, s.DueAt, s.ReviewCount)
	if err != nil {
		return fmt.Errorf("saving memory state %s/%s: %w", s.LearnerID, s.NodeID, err)
	}
	return nil
}

// GetDue returns up to limit states whose due_at has elapsed, earliest
// first. States without a due_at (never scheduled) are never returned.
func (d *DB) GetDue(learnerID string, now time.Time, limit int) ([]MemoryState, error) {
	rows, err := d.conn.Query(
		`SELECT `+memoryColumns+` FROM memory_states
		 WHERE learner_id = ? AND due_at IS NOT NULL AND due_at <= ?
		 ORDER BY due_at ASC LIMIT ?`,
		learnerID, now.UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("getting due states for %s: %w", learnerID, err)
	}
	defer rows.Close()

	var states []MemoryState
	for rows.Next() {
		s, err := scanMemoryState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// UpdateEnergy adds delta to the node's energy in a single atomic
// read-modify-write, clamping to [0, 1]. A row that does not exist yet is
// created with review_count 0 so it can receive propagated energy before
// any direct review. Two concurrent diffusions into the same row serialize
// on the row write; neither update is lost.
func (d *DB) UpdateEnergy(learnerID, nodeID string, delta float64) error {
	_, err := d.conn.Exec(`
		INSERT INTO memory_states (learner_id, node_id, energy, review_count)
		VALUES (?, ?, MAX(0.0, MIN(1.0, ?)), 0)
		ON CONFLICT(learner_id, node_id) DO UPDATE SET
			energy = MAX(0.0, MIN(1.0, memory_states.energy + ?))
	`, learnerID, nodeID, delta, delta)
	if err != nil {
		return fmt.Errorf("updating energy %s/%s: %w", learnerID, nodeID, err)
	}
	return nil
}

// CountStates returns the number of memory states for a learner.
func (d *DB) CountStates(learnerID string) (int, error) {
	var count int
	err := d.conn.QueryRow(
		`SELECT COUNT(*) FROM memory_states WHERE learner_id = ?`, learnerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting states for %s: %w", learnerID, err)
	}
	return count, nil
}

// AllNodeIDs returns the distinct node ids any learner holds state for.
// Used by diagnostics to find orphaned references.
func (d *DB) AllNodeIDs() ([]string, error) {
	rows, err := d.conn.Query(`SELECT DISTINCT node_id FROM memory_states`)
	if err != nil {
		return nil, fmt.Errorf("listing state node ids: %w", err)
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
