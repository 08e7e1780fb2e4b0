// Package memorymodel defines the pluggable scheduling dependency of the
// review engine: given a node's prior memory state and a grade, produce
// updated stability, difficulty and a next due time. The engine treats
// these numbers as opaque; implementations are pure and swappable.
package memorymodel

import "time"

// Prior is the scheduling-relevant slice of a memory state before a review.
// ReviewCount 0 means the node has never been reviewed directly; Stability
// and Difficulty are then meaningless and ignored.
type Prior struct {
	Stability      float64
	Difficulty     float64
	ReviewCount    int
	LastReviewedAt *time.Time
}

// Scheduled is the model's verdict for one review.
type Scheduled struct {
	Stability  float64
	Difficulty float64
	DueAt      time.Time
}

// Model converts a graded review into updated scheduling state.
// Implementations must be pure: no side effects, no retained state per call.
type Model interface {
	Schedule(prior Prior, grade Grade, now time.Time) Scheduled
}
