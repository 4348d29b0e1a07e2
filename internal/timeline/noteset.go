package timeline

import (
	"math/bits"
	"strings"

	"github.com/icco/tubular/internal/harmony"
)

// NoteSet is a set of MIDI pitches stored as a 128-bit mask.
type NoteSet [2]uint64

func (s *NoteSet) Add(n harmony.Note) {
	n &= 0x7f
	s[n>>6] |= 1 << (n & 63)
}

func (s *NoteSet) Remove(n harmony.Note) {
	n &= 0x7f
	s[n>>6] &^= 1 << (n & 63)
}

func (s NoteSet) Has(n harmony.Note) bool {
	if n > 0x7f {
		return false
	}
	return s[n>>6]&(1<<(n&63)) != 0
}

// Difference returns the notes in s that are not in o.
func (s NoteSet) Difference(o NoteSet) NoteSet {
	return NoteSet{s[0] &^ o[0], s[1] &^ o[1]}
}

func (s NoteSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1])
}

func (s NoteSet) Empty() bool {
	return s[0] == 0 && s[1] == 0
}

// Each calls fn for every note in ascending pitch order.
func (s NoteSet) Each(fn func(harmony.Note)) {
	for word, mask := range s {
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			fn(harmony.Note(word*64 + bit))
			mask &= mask - 1
		}
	}
}

func (s NoteSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.Each(func(n harmony.Note) {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(n.Name())
	})
	b.WriteByte('}')
	return b.String()
}
