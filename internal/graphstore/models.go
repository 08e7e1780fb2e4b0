package graphstore

import "recall/engine/internal/ids"

// Node represents a row in the nodes table. Nodes are immutable after import.
type Node struct {
	ID        string       `json:"id"`
	Kind      ids.NodeKind `json:"kind"`
	CreatedAt int64        `json:"created_at"` // Unix millis
}

// EdgeKind distinguishes structural prerequisites from learned-skill synergy.
type EdgeKind string

const (
	// EdgeDependency encodes a structural prerequisite, e.g. a verse
	// depends on the words it contains.
	EdgeDependency EdgeKind = "dependency"
	// EdgeKnowledge encodes cross-skill synergy, e.g. knowing the
	// translation of a verse reinforces memorizing it.
	EdgeKnowledge EdgeKind = "knowledge"
)

// IsValid reports whether k is a known edge kind.
func (k EdgeKind) IsValid() bool {
	return k == EdgeDependency || k == EdgeKnowledge
}

// Edge represents a directed, distribution-weighted edge. At most one edge
// exists per ordered (source, target) pair. Edges are immutable after import.
type Edge struct {
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Kind     EdgeKind     `json:"kind"`
	Dist     Distribution `json:"dist"`
}
