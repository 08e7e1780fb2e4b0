package learner

import (
	"fmt"
)

// PropagationEvent records one review-triggered diffusion: which node was
// reviewed and what flowed across each of its edges. Append-only; read for
// diagnostics, never mutated or compacted here.
type PropagationEvent struct {
	ID        string              `json:"id"`
	LearnerID string              `json:"learner_id"`
	SourceID  string              `json:"source_id"`
	CreatedAt int64               `json:"created_at"` // Unix millis
	Details   []PropagationDetail `json:"details"`
}

// PropagationDetail is one affected target within an event.
type PropagationDetail struct {
	TargetID    string  `json:"target_id"`
	EnergyDelta float64 `json:"energy_delta"`
	Reason      string  `json:"reason"` // edge kind that carried the flow
}

// LogPropagation appends one event and its details atomically.
func (d *DB) LogPropagation(event PropagationEvent) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning propagation log: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO propagation_events (id, learner_id, source_id, created_at) VALUES (?, ?, ?, ?)`,
		event.ID, event.LearnerID, event.SourceID, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting propagation event %s: %w", event.ID, err)
	}

	for _, detail := range event.Details {
		_, err = tx.Exec(
			`INSERT INTO propagation_details (event_id, target_id, energy_delta, reason) VALUES (?, ?, ?, ?)`,
			event.ID, detail.TargetID, detail.EnergyDelta, detail.Reason,
		)
		if err != nil {
			return fmt.Errorf("inserting propagation detail for %s: %w", detail.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing propagation log: %w", err)
	}
	return nil
}

// GetPropagationEvents returns the most recent events for a learner, newest
// first, details included.
func (d *DB) GetPropagationEvents(learnerID string, limit int) ([]PropagationEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, learner_id, source_id, created_at FROM propagation_events
		 WHERE learner_id = ? ORDER BY created_at DESC LIMIT ?`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("getting propagation events for %s: %w", learnerID, err)
	}
	defer rows.Close()

	var events []PropagationEvent
	for rows.Next() {
		var e PropagationEvent
		if err := rows.Scan(&e.ID, &e.LearnerID, &e.SourceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		details, err := d.getPropagationDetails(events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Details = details
	}
	return events, nil
}

func (d *DB) getPropagationDetails(eventID string) ([]PropagationDetail, error) {
	rows, err := d.conn.Query(
		`SELECT target_id, energy_delta, reason FROM propagation_details WHERE event_id = ?`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting propagation details for %s: %w", eventID, err)
	}
	defer rows.Close()

	var details []PropagationDetail
	for rows.Next() {
		var detail PropagationDetail
		if err := rows.Scan(&detail.TargetID, &detail.EnergyDelta, &detail.Reason); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}
