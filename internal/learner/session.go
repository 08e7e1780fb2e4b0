package learner

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionState is the ordered item list of an interrupted session, kept so
// a learner can resume with the same order. Not correctness-critical; it is
// freely replaced or cleared.
type SessionState struct {
	LearnerID string   `json:"learner_id"`
	NodeIDs   []string `json:"node_ids"`
	SavedAt   int64    `json:"saved_at"` // Unix millis
}

// SaveSessionState replaces the learner's saved session.
func (d *DB) SaveSessionState(learnerID string, nodeIDs []string) error {
	items, err := json.Marshal(nodeIDs)
	if err != nil {
		return fmt.Errorf("encoding session items: %w", err)
	}
	_, err = d.conn.Exec(`
		INSERT INTO session_state (learner_id, items, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET items = excluded.items, saved_at = excluded.saved_at
	`, learnerID, string(items), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving session state for %s: %w", learnerID, err)
	}
	return nil
}

// GetSessionState returns the learner's saved session, or nil if none.
func (d *DB) GetSessionState(learnerID string) (*SessionState, error) {
	var items string
	s := SessionState{LearnerID: learnerID}
	err := d.conn.QueryRow(
		`SELECT items, saved_at FROM session_state WHERE learner_id = ?`, learnerID,
	).Scan(&items, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session state for %s: %w", learnerID, err)
	}
	if err := json.Unmarshal([]byte(items), &s.NodeIDs); err != nil {
		// A corrupt saved session is not worth failing over; drop it.
		if clearErr := d.ClearSessionState(learnerID); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return &s, nil
}

// ClearSessionState removes the learner's saved session, if any.
func (d *DB) ClearSessionState(learnerID string) error {
	_, err := d.conn.Exec(`DELETE FROM session_state WHERE learner_id = ?`, learnerID)
	if err != nil {
		return fmt.Errorf("clearing session state for %s: %w", learnerID, err)
	}
	return nil
}
