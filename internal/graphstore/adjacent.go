package graphstore

import (
	"recall/engine/internal/ids"
)

// boundaryScanLimit bounds the prefix scan used at verse boundaries. No
// verse in the corpus comes close to this many words.
const boundaryScanLimit = 512

// GetAdjacent returns the word instances immediately before and after the
// given one in reading order. Siblings inside a verse are derived by id
// arithmetic and looked up directly; at verse boundaries the neighboring
// verse is scanned for its closest position. A nil prev or next means the
// text simply ends there (or the neighboring verse was not imported).
// Malformed ids fail with ids.ErrInvalidNodeID.
func (d *DB) GetAdjacent(wordInstanceID string) (prev, next *Node, err error) {
	ref, err := ids.ParseWordInstance(wordInstanceID)
	if err != nil {
		return nil, nil, err
	}

	prev, err = d.adjacentPrev(ref)
	if err != nil {
		return nil, nil, err
	}
	next, err = d.adjacentNext(ref)
	if err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

func (d *DB) adjacentPrev(ref ids.WordInstanceRef) (*Node, error) {
	if candidate, ok := ref.PrevCandidate(); ok {
		return d.GetNode(candidate)
	}
	// First word of the verse: nearest is the last word of the previous verse.
	if ref.Verse <= 1 {
		return nil, nil
	}
	return d.boundaryNeighbor(ref.Chapter, ref.Verse-1, false)
}

func (d *DB) adjacentNext(ref ids.WordInstanceRef) (*Node, error) {
	n, err := d.GetNode(ref.NextCandidate())
	if err != nil || n != nil {
		return n, err
	}
	// Past the end of the verse: nearest is the first word of the next verse.
	return d.boundaryNeighbor(ref.Chapter, ref.Verse+1, true)
}

// boundaryNeighbor scans the word instances of (chapter, verse) and returns
// the one with the lowest position (first=true) or highest (first=false).
func (d *DB) boundaryNeighbor(chapter, verse int, first bool) (*Node, error) {
	matched, err := d.nodeIDsByPrefix(ids.VersePrefix(chapter, verse), boundaryScanLimit)
	if err != nil {
		return nil, err
	}

	best := ""
	bestPos := 0
	for _, id := range matched {
		// The prefix also matches knowledge-axis ids of these words;
		// only pure word-instance ids parse cleanly.
		ref, err := ids.ParseWordInstance(id)
		if err != nil {
			continue
		}
		if best == "" || (first && ref.Position < bestPos) || (!first && ref.Position > bestPos) {
			best = id
			bestPos = ref.Position
		}
	}
	if best == "" {
		return nil, nil
	}
	return d.GetNode(best)
}
