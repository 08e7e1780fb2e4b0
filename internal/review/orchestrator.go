// Package review orchestrates a graded review: it updates the reviewed
// node's memory state through the memory model, then diffuses energy to the
// node's graph neighbors. The scheduling update is the durable part; energy
// diffusion is best-effort and self-correcting, so its failures are logged
// and swallowed rather than rolled back.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recall/engine/internal/graphstore"
	"recall/engine/internal/learner"
	"recall/engine/internal/memorymodel"
)

// ErrReviewInFlight means a review for the same (learner, node) pair has
// not finished yet; the caller should retry after it completes.
var ErrReviewInFlight = errors.New("review already in flight for this node")

// diffusionWorkers bounds concurrent energy writes per review.
const diffusionWorkers = 4

// GraphReader is the slice of the graph store the orchestrator needs.
type GraphReader interface {
	GetEdgesFrom(sourceID string) ([]graphstore.Edge, error)
}

// StateStore is the slice of the learner store the orchestrator needs.
type StateStore interface {
	GetMemoryState(learnerID, nodeID string) (*learner.MemoryState, error)
	SaveMemoryState(s learner.MemoryState) error
	UpdateEnergy(learnerID, nodeID string, delta float64) error
	LogPropagation(event learner.PropagationEvent) error
}

// ReviewResult is what the caller needs to continue the session.
type ReviewResult struct {
	NewDueAt   time.Time `json:"new_due_at"`
	Energy     float64   `json:"energy"`
	Propagated int       `json:"propagated"` // edges energy flowed across
}

// Orchestrator wires the graph store, learner store and memory model
// together for review processing.
type Orchestrator struct {
	graph  GraphReader
	states StateStore
	model  memorymodel.Model
	policy EnergyPolicy
	logger *log.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	inflightMu sync.Mutex
	inflight   map[string]bool
}

// New creates an Orchestrator. A nil logger discards output.
func New(graph GraphReader, states StateStore, model memorymodel.Model, policy EnergyPolicy, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		graph:    graph,
		states:   states,
		model:    model,
		policy:   policy,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		inflight: make(map[string]bool),
	}
}

// ProcessReview applies one graded review of nodeID for learnerID.
// The node's own scheduling update is durable or the call fails; energy
// diffusion to neighbors is best-effort. Overlapping calls for the same
// (learner, node) pair are rejected with ErrReviewInFlight; different nodes
// may be reviewed concurrently.
func (o *Orchestrator) ProcessReview(ctx context.Context, learnerID, nodeID string, grade memorymodel.Grade) (ReviewResult, error) {
	if !grade.IsValid() {
		return ReviewResult{}, fmt.Errorf("%w: %d", memorymodel.ErrInvalidGrade, int(grade))
	}
	if !o.acquire(learnerID, nodeID) {
		return ReviewResult{}, ErrReviewInFlight
	}
	defer o.release(learnerID, nodeID)

	now := time.Now()

	state, err := o.states.GetMemoryState(learnerID, nodeID)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("loading memory state: %w", err)
	}
	if state == nil {
		state = &learner.MemoryState{LearnerID: learnerID, NodeID: nodeID}
	}

	prior := memorymodel.Prior{
		Stability:   state.Stability,
		Difficulty:  state.Difficulty,
		ReviewCount: state.ReviewCount,
	}
	if state.LastReviewedAt != nil {
		t := time.UnixMilli(*state.LastReviewedAt)
		prior.LastReviewedAt = &t
	}
	scheduled := o.model.Schedule(prior, grade, now)

	state.Stability = scheduled.Stability
	state.Difficulty = scheduled.Difficulty
	state.Energy = o.policy.Apply(state.Energy, grade)
	state.ReviewCount++
	nowMs := now.UnixMilli()
	state.LastReviewedAt = &nowMs
	dueMs := scheduled.DueAt.UnixMilli()
	state.DueAt = &dueMs

	if err := o.states.SaveMemoryState(*state); err != nil {
		return ReviewResult{}, fmt.Errorf("saving memory state: %w", err)
	}

	propagated := o.diffuse(ctx, learnerID, nodeID, state.Energy, now)

	return ReviewResult{
		NewDueAt:   scheduled.DueAt,
		Energy:     state.Energy,
		Propagated: propagated,
	}, nil
}

// diffuse pushes energy across the node's out-edges. Every failure in here
// is logged and swallowed: the signal is recomputed incrementally on every
// future review, so a lost write degrades freshness, not correctness.
func (o *Orchestrator) diffuse(ctx context.Context, learnerID, nodeID string, sourceEnergy float64, now time.Time) int {
	edges, err := o.graph.GetEdgesFrom(nodeID)
	if err != nil {
		o.logger.Error("fetching edges for diffusion", "node", nodeID, "err", err)
		return 0
	}
	if len(edges) == 0 {
		return 0
	}

	// Sample magnitudes up front; the shared rng stays off the goroutines.
	details := make([]learner.PropagationDetail, len(edges))
	o.rngMu.Lock()
	for i, e := range edges {
		details[i] = learner.PropagationDetail{
			TargetID:    e.TargetID,
			EnergyDelta: e.Dist.Sample(o.rng) * sourceEnergy,
			Reason:      string(e.Kind),
		}
	}
	o.rngMu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(diffusionWorkers)
	for _, detail := range details {
		g.Go(func() error {
			if err := o.states.UpdateEnergy(learnerID, detail.TargetID, detail.EnergyDelta); err != nil {
				o.logger.Error("energy update failed",
					"source", nodeID, "target", detail.TargetID, "err", err)
			}
			return nil
		})
	}
	g.Wait()

	event := learner.PropagationEvent{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		SourceID:  nodeID,
		CreatedAt: now.UnixMilli(),
		Details:   details,
	}
	if err := o.states.LogPropagation(event); err != nil {
		o.logger.Error("propagation audit write failed", "source", nodeID, "err", err)
	}

	return len(details)
}

func (o *Orchestrator) acquire(learnerID, nodeID string) bool {
	key := learnerID + "\x00" + nodeID
	o.inflightMu.Lock()
	defer o.inflightMu.Unlock()
	if o.inflight[key] {
		return false
	}
	o.inflight[key] = true
	return true
}

func (o *Orchestrator) release(learnerID, nodeID string) {
	key := learnerID + "\x00" + nodeID
	o.inflightMu.Lock()
	delete(o.inflight, key)
	o.inflightMu.Unlock()
}
