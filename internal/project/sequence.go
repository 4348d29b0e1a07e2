// Package project holds the shared, editable state of a performance.
package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/timing"
)

// ErrInvalidSequenceLength is returned when more slots than the bar grid
// holds are supplied.
var ErrInvalidSequenceLength = errors.New("invalid sequence length")

// ChordSequence is one bar of chord slots. It is a value type: copying it
// takes a snapshot.
type ChordSequence struct {
	slots [timing.SubdivisionsPerBar]harmony.Degree
}

// NewChordSequence pads short input with silence. harmony.None marks a
// silent slot.
func NewChordSequence(degrees []harmony.Degree) (ChordSequence, error) {
	var seq ChordSequence
	if len(degrees) > len(seq.slots) {
		return seq, fmt.Errorf("%w: %d slots, bar holds %d", ErrInvalidSequenceLength, len(degrees), len(seq.slots))
	}
	for i, d := range degrees {
		if d != harmony.None && !d.Valid() {
			return ChordSequence{}, fmt.Errorf("slot %d: invalid chord degree %d", i, d)
		}
		seq.slots[i] = d
	}
	return seq, nil
}

// ParseSequence reads a step string such as "1...4...5...1..." or
// "I . . IV". Dots, dashes and zeros are silent slots.
func ParseSequence(s string) (ChordSequence, error) {
	var tokens []string
	if strings.ContainsAny(s, " \t,") {
		tokens = strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
	} else {
		for _, r := range s {
			tokens = append(tokens, string(r))
		}
	}

	degrees := make([]harmony.Degree, 0, len(tokens))
	for _, tok := range tokens {
		switch tok {
		case ".", "-", "0", "_":
			degrees = append(degrees, harmony.None)
			continue
		}
		d, err := harmony.ParseDegree(tok)
		if err != nil {
			return ChordSequence{}, fmt.Errorf("parse sequence: %w", err)
		}
		degrees = append(degrees, d)
	}
	return NewChordSequence(degrees)
}

// At returns the chord in slot t, if any.
func (s ChordSequence) At(t timing.Tatum) (harmony.Degree, bool) {
	d := s.slots[t]
	return d, d != harmony.None
}

// Set stores d in slot t. harmony.None silences the slot.
func (s *ChordSequence) Set(t timing.Tatum, d harmony.Degree) {
	s.slots[t] = d
}

func (s *ChordSequence) Clear(t timing.Tatum) {
	s.slots[t] = harmony.None
}

// Len is always timing.SubdivisionsPerBar.
func (s ChordSequence) Len() int {
	return len(s.slots)
}

func (s ChordSequence) String() string {
	parts := make([]string, len(s.slots))
	for i, d := range s.slots {
		if d == harmony.None {
			parts[i] = "."
		} else {
			parts[i] = d.String()
		}
	}
	return strings.Join(parts, " ")
}
