package learner

import (
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "learner.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func millisPtr(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

func TestGetMemoryState_Absent(t *testing.T) {
	d := openTestDB(t)
	s, err := d.GetMemoryState("alice", "VERSE:1:1")
	if err != nil {
		t.Fatalf("absent state must not error: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
}

func TestSaveMemoryState_Upsert(t *testing.T) {
	d := openTestDB(t)
	now := time.Now()
	state := MemoryState{
		LearnerID: "alice", NodeID: "VERSE:1:1",
		Stability: 2.5, Difficulty: 6.1, Energy: 0.4,
		LastReviewedAt: millisPtr(now), DueAt: millisPtr(now.Add(24 * time.Hour)),
		ReviewCount: 1,
	}
	if err := d.SaveMemoryState(state); err != nil {
		t.Fatal(err)
	}

	state.ReviewCount = 2
	state.Energy = 0.6
	if err := d.SaveMemoryState(state); err != nil {
		t.Fatal(err)
	}

	got, err := d.GetMemoryState("alice", "VERSE:1:1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("state not found after save")
	}
	if got.ReviewCount != 2 || got.Energy != 0.6 {
		t.Errorf("upsert did not replace fields: %+v", got)
	}
	if got.Stability != 2.5 || got.Difficulty != 6.1 {
		t.Errorf("scheduling fields corrupted: %+v", got)
	}
}

func TestGetDue_WindowAndOrder(t *testing.T) {
	d := openTestDB(t)
	now := time.Now()

	save := func(nodeID string, due *int64) {
		t.Helper()
		if err := d.SaveMemoryState(MemoryState{
			LearnerID: "alice", NodeID: nodeID, DueAt: due, ReviewCount: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}

	save("VERSE:1:1", millisPtr(now.Add(-2*time.Hour)))
	save("VERSE:1:2", millisPtr(now.Add(-30*time.Minute)))
	save("VERSE:1:3", millisPtr(now.Add(time.Hour))) // not yet due
	save("VERSE:1:4", nil)                           // never scheduled

	due, err := d.GetDue("alice", now, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due states, want 2", len(due))
	}
	if due[0].NodeID != "VERSE:1:1" || due[1].NodeID != "VERSE:1:2" {
		t.Errorf("due order wrong: %s, %s", due[0].NodeID, due[1].NodeID)
	}
	for _, s := range due {
		if s.DueAt == nil || *s.DueAt > now.UnixMilli() {
			t.Errorf("state %s outside the due window", s.NodeID)
		}
	}
}

func TestGetDue_RespectsLimit(t *testing.T) {
	d := openTestDB(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		due := now.Add(time.Duration(-i-1) * time.Hour).UnixMilli()
		if err := d.SaveMemoryState(MemoryState{
			LearnerID: "alice", NodeID: uuid.NewString(), DueAt: &due, ReviewCount: 1,
		}); err != nil {
			t.Fatal(err)
		}
	}
	due, err := d.GetDue("alice", now, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 3 {
		t.Errorf("got %d states, want 3", len(due))
	}
}

func TestUpdateEnergy_CreatesImplicitState(t *testing.T) {
	d := openTestDB(t)
	if err := d.UpdateEnergy("alice", "VERSE:1:1", 0.3); err != nil {
		t.Fatal(err)
	}

	s, err := d.GetMemoryState("alice", "VERSE:1:1")
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("energy update should create the row")
	}
	if s.Energy != 0.3 || s.ReviewCount != 0 || s.DueAt != nil {
		t.Errorf("implicit state wrong: %+v", s)
	}
}

func TestUpdateEnergy_AccumulatesAndClamps(t *testing.T) {
	d := openTestDB(t)
	for _, delta := range []float64{0.4, 0.5, 0.7} {
		if err := d.UpdateEnergy("alice", "VERSE:1:1", delta); err != nil {
			t.Fatal(err)
		}
	}
	s, _ := d.GetMemoryState("alice", "VERSE:1:1")
	if s.Energy != 1.0 {
		t.Errorf("energy should clamp at 1.0, got %f", s.Energy)
	}

	if err := d.UpdateEnergy("alice", "VERSE:1:1", -0.25); err != nil {
		t.Fatal(err)
	}
	s, _ = d.GetMemoryState("alice", "VERSE:1:1")
	if math.Abs(s.Energy-0.75) > 1e-9 {
		t.Errorf("negative delta should subtract, got %f", s.Energy)
	}

	if err := d.UpdateEnergy("alice", "VERSE:1:1", -5); err != nil {
		t.Fatal(err)
	}
	s, _ = d.GetMemoryState("alice", "VERSE:1:1")
	if s.Energy != 0 {
		t.Errorf("energy should clamp at 0, got %f", s.Energy)
	}
}

func TestUpdateEnergy_ConcurrentNoLostUpdates(t *testing.T) {
	d := openTestDB(t)
	const workers = 8
	const perWorker = 10
	const delta = 0.001

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := d.UpdateEnergy("alice", "VERSE:1:1", delta); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent update failed: %v", err)
	}

	s, err := d.GetMemoryState("alice", "VERSE:1:1")
	if err != nil {
		t.Fatal(err)
	}
	want := float64(workers*perWorker) * delta
	if math.Abs(s.Energy-want) > 1e-9 {
		t.Errorf("lost updates: energy = %f, want %f", s.Energy, want)
	}
}

func TestLogPropagation_RoundTrip(t *testing.T) {
	d := openTestDB(t)
	event := PropagationEvent{
		ID:        uuid.NewString(),
		LearnerID: "alice",
		SourceID:  "WORD_INSTANCE:1:1:2",
		CreatedAt: time.Now().UnixMilli(),
		Details: []PropagationDetail{
			{TargetID: "WORD_INSTANCE:1:1:1", EnergyDelta: 0.25, Reason: "knowledge"},
			{TargetID: "VERSE:1:1", EnergyDelta: 0.1, Reason: "dependency"},
		},
	}
	if err := d.LogPropagation(event); err != nil {
		t.Fatal(err)
	}

	events, err := d.GetPropagationEvents("alice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.SourceID != event.SourceID || len(got.Details) != 2 {
		t.Errorf("event round trip mismatch: %+v", got)
	}
}

func TestSessionState_RoundTripAndClear(t *testing.T) {
	d := openTestDB(t)
	order := []string{"VERSE:1:3", "VERSE:1:1", "VERSE:1:2"}
	if err := d.SaveSessionState("alice", order); err != nil {
		t.Fatal(err)
	}

	s, err := d.GetSessionState("alice")
	if err != nil {
		t.Fatal(err)
	}
	if s == nil || len(s.NodeIDs) != 3 {
		t.Fatalf("session state missing or wrong size: %+v", s)
	}
	for i, id := range order {
		if s.NodeIDs[i] != id {
			t.Errorf("item %d = %s, want %s (order must survive)", i, s.NodeIDs[i], id)
		}
	}

	if err := d.ClearSessionState("alice"); err != nil {
		t.Fatal(err)
	}
	s, err = d.GetSessionState("alice")
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Error("session state should be gone after clear")
	}
}

func TestSessionState_AbsentIsNil(t *testing.T) {
	d := openTestDB(t)
	s, err := d.GetSessionState("nobody")
	if err != nil || s != nil {
		t.Errorf("absent session should be nil, nil; got %+v, %v", s, err)
	}
}
