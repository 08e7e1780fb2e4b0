package graphstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"recall/engine/internal/ids"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustInsert(t *testing.T, d *DB, nodes []Node, edges []Edge) {
	t.Helper()
	if _, _, err := d.InsertBatch(context.Background(), nodes, edges); err != nil {
		t.Fatalf("inserting batch: %v", err)
	}
}

func wordNodes(chapter, verse int, positions ...int) []Node {
	var nodes []Node
	for _, p := range positions {
		id := ids.WordInstanceID(chapter, verse, p)
		nodes = append(nodes, Node{ID: id, Kind: ids.KindWordInstance})
	}
	return nodes
}

func TestGetNode_NotFound(t *testing.T) {
	d := openTestDB(t)
	n, err := d.GetNode("VERSE:1:1")
	if err != nil {
		t.Fatalf("absent node must not error: %v", err)
	}
	if n != nil {
		t.Errorf("expected nil node, got %+v", n)
	}
}

func TestInsertBatch_Idempotent(t *testing.T) {
	d := openTestDB(t)
	nodes := []Node{
		{ID: "VERSE:1:1", Kind: ids.KindVerse},
		{ID: "WORD_INSTANCE:1:1:1", Kind: ids.KindWordInstance},
	}
	edges := []Edge{
		{SourceID: "VERSE:1:1", TargetID: "WORD_INSTANCE:1:1:1", Kind: EdgeDependency, Dist: Const(1.0)},
	}

	n1, e1, err := d.InsertBatch(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if n1 != 2 || e1 != 1 {
		t.Errorf("first insert counted %d nodes, %d edges; want 2, 1", n1, e1)
	}

	n2, e2, err := d.InsertBatch(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if n2 != 0 || e2 != 0 {
		t.Errorf("re-insert counted %d nodes, %d edges; want 0, 0", n2, e2)
	}
}

func TestInsertBatch_DanglingEdgeAborts(t *testing.T) {
	d := openTestDB(t)
	nodes := []Node{{ID: "VERSE:1:1", Kind: ids.KindVerse}}
	edges := []Edge{
		{SourceID: "VERSE:1:1", TargetID: "VERSE:9:9", Kind: EdgeDependency, Dist: Const(1.0)},
	}

	_, _, err := d.InsertBatch(context.Background(), nodes, edges)
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrity.Missing != "VERSE:9:9" {
		t.Errorf("wrong missing endpoint: %s", integrity.Missing)
	}

	// The whole batch must roll back, including the valid node.
	n, err := d.GetNode("VERSE:1:1")
	if err != nil {
		t.Fatal(err)
	}
	if n != nil {
		t.Error("aborted import should not leave partial rows behind")
	}
}

func TestInsertBatch_EdgeReferencesEarlierBatchNode(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, []Node{{ID: "CHAPTER:1", Kind: ids.KindChapter}}, nil)

	// Edge endpoint resolves against an already-stored node.
	nodes := []Node{{ID: "VERSE:1:1", Kind: ids.KindVerse}}
	edges := []Edge{
		{SourceID: "CHAPTER:1", TargetID: "VERSE:1:1", Kind: EdgeDependency, Dist: Const(0.5)},
	}
	if _, _, err := d.InsertBatch(context.Background(), nodes, edges); err != nil {
		t.Fatalf("edge against stored node should insert: %v", err)
	}
}

func TestInsertBatch_RejectsBadEdge(t *testing.T) {
	d := openTestDB(t)
	nodes := []Node{
		{ID: "VERSE:1:1", Kind: ids.KindVerse},
		{ID: "VERSE:1:2", Kind: ids.KindVerse},
	}

	badKind := []Edge{{SourceID: "VERSE:1:1", TargetID: "VERSE:1:2", Kind: "friendship", Dist: Const(1)}}
	if _, _, err := d.InsertBatch(context.Background(), nodes, badKind); err == nil {
		t.Error("unknown edge kind should abort the import")
	}

	badDist := []Edge{{SourceID: "VERSE:1:1", TargetID: "VERSE:1:2", Kind: EdgeKnowledge, Dist: Beta(0, 1)}}
	if _, _, err := d.InsertBatch(context.Background(), nodes, badDist); err == nil {
		t.Error("invalid distribution should abort the import")
	}
}

func TestGetNodes_Batch(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, []Node{
		{ID: "VERSE:1:1", Kind: ids.KindVerse},
		{ID: "VERSE:1:2", Kind: ids.KindVerse},
	}, nil)

	nodes, err := d.GetNodes([]string{"VERSE:1:1", "VERSE:1:2", "VERSE:9:9"})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("got %d nodes, want 2 (missing id silently dropped)", len(nodes))
	}

	empty, err := d.GetNodes(nil)
	if err != nil || empty != nil {
		t.Errorf("empty id list should return nil, nil; got %v, %v", empty, err)
	}
}

func TestGetEdgesFrom(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d,
		[]Node{
			{ID: "WORD_INSTANCE:1:1:1", Kind: ids.KindWordInstance},
			{ID: "WORD_INSTANCE:1:1:2", Kind: ids.KindWordInstance},
			{ID: "VERSE:1:1", Kind: ids.KindVerse},
		},
		[]Edge{
			{SourceID: "WORD_INSTANCE:1:1:2", TargetID: "WORD_INSTANCE:1:1:1", Kind: EdgeKnowledge, Dist: Const(0.3)},
			{SourceID: "WORD_INSTANCE:1:1:2", TargetID: "VERSE:1:1", Kind: EdgeDependency, Dist: Normal(0.5, 0.1)},
		},
	)

	edges, err := d.GetEdgesFrom("WORD_INSTANCE:1:1:2")
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	for _, e := range edges {
		if e.SourceID != "WORD_INSTANCE:1:1:2" {
			t.Errorf("edge source %s leaked into out-edge query", e.SourceID)
		}
	}

	none, err := d.GetEdgesFrom("WORD_INSTANCE:1:1:1")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("node with no out-edges returned %d edges", len(none))
	}
}

func TestGetAdjacent_WithinVerse(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, wordNodes(1, 1, 1, 2, 3), nil)

	prev, next, err := d.GetAdjacent("WORD_INSTANCE:1:1:2")
	if err != nil {
		t.Fatal(err)
	}
	if prev == nil || prev.ID != "WORD_INSTANCE:1:1:1" {
		t.Errorf("prev = %+v, want WORD_INSTANCE:1:1:1", prev)
	}
	if next == nil || next.ID != "WORD_INSTANCE:1:1:3" {
		t.Errorf("next = %+v, want WORD_INSTANCE:1:1:3", next)
	}
}

func TestGetAdjacent_VerseBoundary(t *testing.T) {
	d := openTestDB(t)
	nodes := append(wordNodes(2, 254, 1, 2, 3), wordNodes(2, 255, 1, 2)...)
	mustInsert(t, d, nodes, nil)

	// First word of verse 255: prev is the last word of verse 254.
	prev, _, err := d.GetAdjacent("WORD_INSTANCE:2:255:1")
	if err != nil {
		t.Fatal(err)
	}
	if prev == nil || prev.ID != "WORD_INSTANCE:2:254:3" {
		t.Errorf("prev across verse boundary = %+v, want WORD_INSTANCE:2:254:3", prev)
	}

	// Last word of verse 254: next is the first word of verse 255.
	_, next, err := d.GetAdjacent("WORD_INSTANCE:2:254:3")
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || next.ID != "WORD_INSTANCE:2:255:1" {
		t.Errorf("next across verse boundary = %+v, want WORD_INSTANCE:2:255:1", next)
	}
}

func TestGetAdjacent_TextEdges(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, wordNodes(1, 1, 1, 2), nil)

	prev, _, err := d.GetAdjacent("WORD_INSTANCE:1:1:1")
	if err != nil {
		t.Fatal(err)
	}
	if prev != nil {
		t.Errorf("first word of chapter should have nil prev, got %+v", prev)
	}

	_, next, err := d.GetAdjacent("WORD_INSTANCE:1:1:2")
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Errorf("last imported word should have nil next, got %+v", next)
	}
}

func TestGetAdjacent_SkipsKnowledgeAxisIDs(t *testing.T) {
	d := openTestDB(t)
	nodes := append(wordNodes(2, 254, 1, 2), wordNodes(2, 255, 1)...)
	nodes = append(nodes, Node{
		ID:   ids.KnowledgeID("WORD_INSTANCE:2:254:9", "translation"),
		Kind: ids.KindKnowledge,
	})
	mustInsert(t, d, nodes, nil)

	// The knowledge-axis id shares the verse prefix but must not win the
	// boundary scan as a phantom position.
	prev, _, err := d.GetAdjacent("WORD_INSTANCE:2:255:1")
	if err != nil {
		t.Fatal(err)
	}
	if prev == nil || prev.ID != "WORD_INSTANCE:2:254:2" {
		t.Errorf("prev = %+v, want WORD_INSTANCE:2:254:2", prev)
	}
}

func TestGetAdjacent_InvalidID(t *testing.T) {
	d := openTestDB(t)
	_, _, err := d.GetAdjacent("VERSE:1:1")
	if !errors.Is(err, ids.ErrInvalidNodeID) {
		t.Errorf("expected ErrInvalidNodeID, got %v", err)
	}
}

func TestCounts(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d,
		[]Node{
			{ID: "VERSE:1:1", Kind: ids.KindVerse},
			{ID: "WORD_INSTANCE:1:1:1", Kind: ids.KindWordInstance},
			{ID: "WORD_INSTANCE:1:1:2", Kind: ids.KindWordInstance},
		},
		[]Edge{
			{SourceID: "VERSE:1:1", TargetID: "WORD_INSTANCE:1:1:1", Kind: EdgeDependency, Dist: Const(1)},
			{SourceID: "WORD_INSTANCE:1:1:2", TargetID: "WORD_INSTANCE:1:1:1", Kind: EdgeKnowledge, Dist: Const(0.5)},
		},
	)

	nodeCounts, err := d.CountNodesByKind()
	if err != nil {
		t.Fatal(err)
	}
	if nodeCounts[ids.KindWordInstance] != 2 || nodeCounts[ids.KindVerse] != 1 {
		t.Errorf("node counts wrong: %v", nodeCounts)
	}

	edgeCounts, err := d.CountEdgesByKind()
	if err != nil {
		t.Fatal(err)
	}
	if edgeCounts[EdgeDependency] != 1 || edgeCounts[EdgeKnowledge] != 1 {
		t.Errorf("edge counts wrong: %v", edgeCounts)
	}
}
