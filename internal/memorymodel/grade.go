package memorymodel

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrade is returned for grades outside Again..Easy.
var ErrInvalidGrade = errors.New("memorymodel: invalid grade")

// Grade is the learner's assessment of recall quality for one review.
type Grade int

const (
	Again Grade = iota + 1 // Complete failure to recall.
	Hard                   // Recalled with significant difficulty.
	Good                   // Recalled with some effort.
	Easy                   // Recalled effortlessly.
)

var (
	gradeNames  = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}
	gradeByName = map[string]Grade{
		"Again": Again,
		"Hard":  Hard,
		"Good":  Good,
		"Easy":  Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// IsValid reports whether g is a valid grade (Again through Easy).
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// Success reports whether g counts as a successful recall.
func (g Grade) Success() bool {
	return g >= Hard
}

// String returns the grade name ("Again", "Hard", "Good", "Easy").
// For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade converts a grade name to a Grade. Names are matched
// case-insensitively, and the numerals "1" through "4" are accepted.
func ParseGrade(name string) (Grade, error) {
	if g, ok := gradeByName[name]; ok {
		return g, nil
	}
	switch strings.ToLower(name) {
	case "again", "1":
		return Again, nil
	case "hard", "2":
		return Hard, nil
	case "good", "3":
		return Good, nil
	case "easy", "4":
		return Easy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, name)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
