package ids

import (
	"errors"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		id   string
		want NodeKind
	}{
		{"WORD_INSTANCE:2:255:14", KindWordInstance},
		{"VERSE:2:255", KindVerse},
		{"CHAPTER:2", KindChapter},
		{"ROOT:ktb", KindRoot},
		{"LEMMA:kitab", KindLemma},
		{"WORD:kitab", KindWord},
		{"VERSE:2:255:translation", KindKnowledge},
		{"WORD_INSTANCE:1:1:1:pronunciation", KindKnowledge},
		{"garbage", KindUnknown},
		{"", KindUnknown},
	}
	for _, c := range cases {
		if got := Kind(c.id); got != c.want {
			t.Errorf("Kind(%q) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestSplitAxis(t *testing.T) {
	base, axis, ok := SplitAxis("VERSE:2:255:translation")
	if !ok {
		t.Fatal("expected axis split to succeed")
	}
	if base != "VERSE:2:255" || axis != "translation" {
		t.Errorf("got base=%q axis=%q", base, axis)
	}

	if _, _, ok := SplitAxis("VERSE:2:255"); ok {
		t.Error("plain verse id should not split as knowledge axis")
	}
	if _, _, ok := SplitAxis("noseparator"); ok {
		t.Error("id without separator should not split")
	}
}

func TestParseWordInstance_RoundTrip(t *testing.T) {
	id := WordInstanceID(2, 255, 14)
	ref, err := ParseWordInstance(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Chapter != 2 || ref.Verse != 255 || ref.Position != 14 {
		t.Errorf("got %+v", ref)
	}
	if ref.ID() != id {
		t.Errorf("round trip mismatch: %q != %q", ref.ID(), id)
	}
}

func TestParseWordInstance_Invalid(t *testing.T) {
	bad := []string{
		"VERSE:2:255",
		"WORD_INSTANCE:2:255",
		"WORD_INSTANCE:2:255:14:9",
		"WORD_INSTANCE:a:b:c",
		"WORD_INSTANCE:0:1:1",
		"WORD_INSTANCE:2:255:-3",
		"",
	}
	for _, id := range bad {
		_, err := ParseWordInstance(id)
		if err == nil {
			t.Errorf("ParseWordInstance(%q) should fail", id)
			continue
		}
		if !errors.Is(err, ErrInvalidNodeID) {
			t.Errorf("ParseWordInstance(%q) error should wrap ErrInvalidNodeID, got %v", id, err)
		}
	}
}

func TestParseVerse(t *testing.T) {
	c, v, err := ParseVerse("VERSE:114:6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != 114 || v != 6 {
		t.Errorf("got chapter=%d verse=%d", c, v)
	}

	if _, _, err := ParseVerse("CHAPTER:1"); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("expected ErrInvalidNodeID, got %v", err)
	}
}

func TestParentVerseID(t *testing.T) {
	got, err := ParentVerseID("WORD_INSTANCE:2:255:14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "VERSE:2:255" {
		t.Errorf("got %q", got)
	}
}

func TestPrevCandidate(t *testing.T) {
	ref := WordInstanceRef{Chapter: 2, Verse: 255, Position: 14}
	id, ok := ref.PrevCandidate()
	if !ok || id != "WORD_INSTANCE:2:255:13" {
		t.Errorf("got id=%q ok=%v", id, ok)
	}

	first := WordInstanceRef{Chapter: 2, Verse: 255, Position: 1}
	if _, ok := first.PrevCandidate(); ok {
		t.Error("position 1 has no in-verse previous sibling")
	}
}

func TestNextCandidate(t *testing.T) {
	ref := WordInstanceRef{Chapter: 1, Verse: 1, Position: 4}
	if got := ref.NextCandidate(); got != "WORD_INSTANCE:1:1:5" {
		t.Errorf("got %q", got)
	}
}

func TestKnowledgeID(t *testing.T) {
	id := KnowledgeID(VerseID(2, 255), "translation")
	if id != "VERSE:2:255:translation" {
		t.Errorf("got %q", id)
	}
	if Kind(id) != KindKnowledge {
		t.Errorf("knowledge id should have knowledge kind, got %q", Kind(id))
	}
}

func TestVersePrefix(t *testing.T) {
	if got := VersePrefix(2, 254); got != "WORD_INSTANCE:2:254:" {
		t.Errorf("got %q", got)
	}
}
