// Package ids is the single place that knows the node id grammar.
// Structural relationships (sibling, parent) are derived from id shape
// here rather than stored as edges; every other package goes through
// these helpers instead of parsing ids ad hoc.
package ids

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNodeID is returned when an id does not match the expected grammar.
var ErrInvalidNodeID = errors.New("invalid node id")

// NodeKind classifies a node by what its id encodes.
type NodeKind string

const (
	KindRoot         NodeKind = "root"
	KindLemma        NodeKind = "lemma"
	KindWord         NodeKind = "word"
	KindWordInstance NodeKind = "word_instance"
	KindVerse        NodeKind = "verse"
	KindChapter      NodeKind = "chapter"
	KindKnowledge    NodeKind = "knowledge"
	KindUnknown      NodeKind = ""
)

// Id prefixes. A knowledge-axis node has no prefix of its own: it is a
// base id with an axis suffix, e.g. "VERSE:2:255:translation".
const (
	prefixWordInstance = "WORD_INSTANCE:"
	prefixVerse        = "VERSE:"
	prefixChapter      = "CHAPTER:"
	prefixRoot         = "ROOT:"
	prefixLemma        = "LEMMA:"
	prefixWord         = "WORD:"
)

// knowledgeAxes are the recognized skill dimensions for knowledge-axis nodes.
var knowledgeAxes = map[string]bool{
	"translation":   true,
	"pronunciation": true,
	"morphology":    true,
}

// Kind infers the node kind from the id's shape. Knowledge-axis ids are
// checked first since they are a suffix on top of any base id.
func Kind(id string) NodeKind {
	if _, _, ok := SplitAxis(id); ok {
		return KindKnowledge
	}
	switch {
	case strings.HasPrefix(id, prefixWordInstance):
		return KindWordInstance
	case strings.HasPrefix(id, prefixVerse):
		return KindVerse
	case strings.HasPrefix(id, prefixChapter):
		return KindChapter
	case strings.HasPrefix(id, prefixRoot):
		return KindRoot
	case strings.HasPrefix(id, prefixLemma):
		return KindLemma
	case strings.HasPrefix(id, prefixWord):
		return KindWord
	}
	return KindUnknown
}

// SplitAxis splits a knowledge-axis id into its base id and axis name.
// Returns ok=false if the id carries no recognized axis suffix.
func SplitAxis(id string) (base, axis string, ok bool) {
	i := strings.LastIndexByte(id, ':')
	if i < 0 {
		return "", "", false
	}
	tail := id[i+1:]
	if !knowledgeAxes[tail] {
		return "", "", false
	}
	return id[:i], tail, true
}

// WordInstanceID builds the id for the word at (chapter, verse, position).
// Positions are 1-based.
func WordInstanceID(chapter, verse, position int) string {
	return fmt.Sprintf("%s%d:%d:%d", prefixWordInstance, chapter, verse, position)
}

// VerseID builds the id for verse (chapter, verse).
func VerseID(chapter, verse int) string {
	return fmt.Sprintf("%s%d:%d", prefixVerse, chapter, verse)
}

// ChapterID builds the id for a chapter.
func ChapterID(chapter int) string {
	return fmt.Sprintf("%s%d", prefixChapter, chapter)
}

// RootID builds the id for a morphological root.
func RootID(morpheme string) string {
	return prefixRoot + morpheme
}

// LemmaID builds the id for a lemma.
func LemmaID(lemma string) string {
	return prefixLemma + lemma
}

// WordID builds the id for a vocabulary word.
func WordID(word string) string {
	return prefixWord + word
}

// KnowledgeID builds the id for the given axis of a base node.
func KnowledgeID(baseID, axis string) string {
	return baseID + ":" + axis
}

// WordInstanceRef is a parsed WORD_INSTANCE id.
type WordInstanceRef struct {
	Chapter  int
	Verse    int
	Position int
}

// ID rebuilds the canonical id string.
func (r WordInstanceRef) ID() string {
	return WordInstanceID(r.Chapter, r.Verse, r.Position)
}

// ParseWordInstance parses a WORD_INSTANCE id into its components.
func ParseWordInstance(id string) (WordInstanceRef, error) {
	rest, ok := strings.CutPrefix(id, prefixWordInstance)
	if !ok {
		return WordInstanceRef{}, fmt.Errorf("%w: %q is not a word instance", ErrInvalidNodeID, id)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return WordInstanceRef{}, fmt.Errorf("%w: %q has %d components, want 3", ErrInvalidNodeID, id, len(parts))
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return WordInstanceRef{}, fmt.Errorf("%w: %q component %q is not a positive integer", ErrInvalidNodeID, id, p)
		}
		nums[i] = n
	}
	return WordInstanceRef{Chapter: nums[0], Verse: nums[1], Position: nums[2]}, nil
}

// ParseVerse parses a VERSE id into (chapter, verse).
func ParseVerse(id string) (chapter, verse int, err error) {
	rest, ok := strings.CutPrefix(id, prefixVerse)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q is not a verse", ErrInvalidNodeID, id)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q has %d components, want 2", ErrInvalidNodeID, id, len(parts))
	}
	chapter, err1 := strconv.Atoi(parts[0])
	verse, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || chapter < 1 || verse < 1 {
		return 0, 0, fmt.Errorf("%w: %q components must be positive integers", ErrInvalidNodeID, id)
	}
	return chapter, verse, nil
}

// ParentVerseID returns the verse id containing a word instance.
func ParentVerseID(wordInstanceID string) (string, error) {
	ref, err := ParseWordInstance(wordInstanceID)
	if err != nil {
		return "", err
	}
	return VerseID(ref.Chapter, ref.Verse), nil
}

// PrevCandidate returns (id of position-1, true) when the previous sibling
// lies within the same verse. ok=false means the caller is at a verse
// boundary and must scan the preceding verse instead.
func (r WordInstanceRef) PrevCandidate() (string, bool) {
	if r.Position <= 1 {
		return "", false
	}
	return WordInstanceID(r.Chapter, r.Verse, r.Position-1), true
}

// NextCandidate returns the id of position+1 in the same verse. Whether a
// node exists there is the store's business; past the end of the verse the
// lookup will simply miss and the caller falls back to the next verse.
func (r WordInstanceRef) NextCandidate() string {
	return WordInstanceID(r.Chapter, r.Verse, r.Position+1)
}

// VersePrefix returns the id prefix shared by every word instance in
// (chapter, verse), used for bounded scans at verse boundaries.
func VersePrefix(chapter, verse int) string {
	return fmt.Sprintf("%s%d:%d:", prefixWordInstance, chapter, verse)
}
