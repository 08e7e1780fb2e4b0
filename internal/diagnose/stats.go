// Package diagnose computes operational statistics over the two stores:
// content counts, knowledge-graph connectivity, and cross-store drift
// (learner states whose node left the content snapshot). Nothing in here
// is on the review path; it backs the stats command only.
package diagnose

import (
	"fmt"
	"sort"

	"recall/engine/internal/graphstore"
	"recall/engine/internal/ids"
)

// GraphSource is the slice of the graph store diagnostics read.
type GraphSource interface {
	CountNodesByKind() (map[ids.NodeKind]int, error)
	CountEdgesByKind() (map[graphstore.EdgeKind]int, error)
	AllNodeIDs() ([]string, error)
	AllEdges() ([]graphstore.Edge, error)
}

// StateSource is the slice of the learner store diagnostics read.
type StateSource interface {
	AllNodeIDs() ([]string, error)
}

// Report summarizes the health of the content graph and its relationship
// to learner state.
type Report struct {
	NodesByKind map[ids.NodeKind]int        `json:"nodes_by_kind"`
	EdgesByKind map[graphstore.EdgeKind]int `json:"edges_by_kind"`

	// Edge connectivity: how many islands the edge table splits the
	// nodes into, and the biggest one. Structural (id-derived)
	// relationships are not edge rows and do not count here.
	Components       int `json:"components"`
	LargestComponent int `json:"largest_component"`

	// DanglingEdges should always be zero; import integrity enforces it.
	// A nonzero count means the store was modified outside the pipeline.
	DanglingEdges int `json:"dangling_edges"`

	// OrphanStates counts learner-held node ids that no longer resolve in
	// the graph store. Reviews tolerate these; the count matters after a
	// content snapshot update.
	OrphanStates int `json:"orphan_states"`
}

// Run computes a full report.
func Run(graph GraphSource, states StateSource) (*Report, error) {
	report := &Report{}

	var err error
	if report.NodesByKind, err = graph.CountNodesByKind(); err != nil {
		return nil, fmt.Errorf("counting nodes: %w", err)
	}
	if report.EdgesByKind, err = graph.CountEdgesByKind(); err != nil {
		return nil, fmt.Errorf("counting edges: %w", err)
	}

	nodeIDs, err := graph.AllNodeIDs()
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	edges, err := graph.AllEdges()
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}

	known := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
	}

	uf := newUnionFind(nodeIDs)
	for _, e := range edges {
		if !known[e.SourceID] || !known[e.TargetID] {
			report.DanglingEdges++
			continue
		}
		uf.union(e.SourceID, e.TargetID)
	}

	sizes := uf.componentSizes()
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	report.Components = len(sizes)
	if len(sizes) > 0 {
		report.LargestComponent = sizes[0]
	}

	stateIDs, err := states.AllNodeIDs()
	if err != nil {
		return nil, fmt.Errorf("listing learner state ids: %w", err)
	}
	for _, id := range stateIDs {
		if !known[id] {
			report.OrphanStates++
		}
	}

	return report, nil
}
