// Package session ranks a learner's due items into a bounded review
// session. It joins the learner store against the graph store in memory;
// a due record whose node no longer resolves is quietly dropped, since the
// two stores share no integrity guarantees.
package session

import (
	"fmt"
	"math"
	"sort"
	"time"

	"recall/engine/internal/graphstore"
	"recall/engine/internal/ids"
	"recall/engine/internal/learner"
)

// GraphReader is the slice of the graph store the planner needs.
type GraphReader interface {
	GetNodes(nodeIDs []string) ([]graphstore.Node, error)
}

// StateSource is the slice of the learner store the planner needs.
type StateSource interface {
	GetDue(learnerID string, now time.Time, limit int) ([]learner.MemoryState, error)
	SaveSessionState(learnerID string, nodeIDs []string) error
	GetSessionState(learnerID string) (*learner.SessionState, error)
	ClearSessionState(learnerID string) error
}

// SessionItem is one planned review, ordered most urgent first.
type SessionItem struct {
	NodeID   string       `json:"node_id"`
	Kind     ids.NodeKind `json:"kind"`
	Energy   float64      `json:"energy"`
	Priority float64      `json:"priority_score"`
}

// Weights tune the urgency score:
// priority = Due·daysOverdue + Need·(1-energy) + Yield·energy.
type Weights struct {
	Due   float64
	Need  float64
	Yield float64
}

// Config holds planner policy.
type Config struct {
	Weights Weights
	// Eligible restricts sessions to content-bearing node kinds.
	// Knowledge-axis nodes are imported into the graph but excluded here
	// until per-axis exercise targeting exists; widen the set to change
	// that policy.
	Eligible map[ids.NodeKind]bool
}

// DefaultConfig returns the reference policy.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Due: 0.5, Need: 0.3, Yield: 0.2},
		Eligible: map[ids.NodeKind]bool{
			ids.KindWord:         true,
			ids.KindWordInstance: true,
			ids.KindVerse:        true,
		},
	}
}

// Planner builds review sessions.
type Planner struct {
	graph  GraphReader
	states StateSource
	config Config
}

// New creates a Planner. A zero-value config selects DefaultConfig.
func New(graph GraphReader, states StateSource, config Config) *Planner {
	if config.Eligible == nil {
		config = DefaultConfig()
	}
	return &Planner{graph: graph, states: states, config: config}
}

// PlanSession returns up to limit items ranked by urgency, most urgent
// first. An empty result simply means nothing is due. Ties preserve the
// earliest-due-first order of the underlying due query.
func (p *Planner) PlanSession(learnerID string, limit int) ([]SessionItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now()

	// Over-fetch so eligibility filtering still fills the session.
	candidates, err := p.states.GetDue(learnerID, now, 2*limit)
	if err != nil {
		return nil, fmt.Errorf("fetching due states: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	nodeIDs := make([]string, len(candidates))
	for i, c := range candidates {
		nodeIDs[i] = c.NodeID
	}
	nodes, err := p.graph.GetNodes(nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving candidate nodes: %w", err)
	}
	byID := make(map[string]graphstore.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	items := make([]SessionItem, 0, len(candidates))
	for _, c := range candidates {
		node, ok := byID[c.NodeID]
		if !ok {
			// Orphaned reference: the node left the content snapshot.
			continue
		}
		if !p.config.Eligible[node.Kind] {
			continue
		}
		items = append(items, SessionItem{
			NodeID:   c.NodeID,
			Kind:     node.Kind,
			Energy:   c.Energy,
			Priority: p.score(c, now),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (p *Planner) score(state learner.MemoryState, now time.Time) float64 {
	daysOverdue := 0.0
	if state.DueAt != nil {
		overdue := now.Sub(time.UnixMilli(*state.DueAt)).Seconds() / 86400
		daysOverdue = math.Max(0, overdue)
	}
	w := p.config.Weights
	return w.Due*daysOverdue + w.Need*(1-state.Energy) + w.Yield*state.Energy
}

// SaveResume persists the item order of an interrupted session.
func (p *Planner) SaveResume(learnerID string, items []SessionItem) error {
	nodeIDs := make([]string, len(items))
	for i, item := range items {
		nodeIDs[i] = item.NodeID
	}
	return p.states.SaveSessionState(learnerID, nodeIDs)
}

// LoadResume returns the saved item order, or nil if none was saved.
func (p *Planner) LoadResume(learnerID string) ([]string, error) {
	state, err := p.states.GetSessionState(learnerID)
	if err != nil || state == nil {
		return nil, err
	}
	return state.NodeIDs, nil
}

// ClearResume drops the saved session, typically after it completes.
func (p *Planner) ClearResume(learnerID string) error {
	return p.states.ClearSessionState(learnerID)
}
