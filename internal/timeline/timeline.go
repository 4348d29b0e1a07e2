// Package timeline expands a chord sequence into bar-relative note events.
package timeline

import (
	"fmt"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timing"
)

// Kind is the type of a note event.
type Kind uint8

const (
	NoteOn Kind = iota
	NoteOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is a note change at a bar offset. Events are rebuilt from the
// sequence and never edited in place.
type Event struct {
	Offset timing.FrameOffset
	Kind   Kind
	Note   harmony.Note
}

func (e Event) String() string {
	return fmt.Sprintf("%d %s %s", e.Offset, e.Kind, e.Note.Name())
}

// MaxEvents bounds the events of one bar: every slot closes and opens a triad.
const MaxEvents = timing.SubdivisionsPerBar*2*len(harmony.Triad{}) + len(harmony.Triad{})

// Translate returns the events of one bar in construction order.
func Translate(seq project.ChordSequence, ti timing.TimingInfo, pt timing.ProjectTimeInfo, table harmony.Table) []Event {
	return AppendTranslate(make([]Event, 0, MaxEvents), seq, ti, pt, table)
}

// AppendTranslate appends the events of one bar to dst. With cap(dst) of at
// least MaxEvents it does not allocate.
func AppendTranslate(dst []Event, seq project.ChordSequence, ti timing.TimingInfo, pt timing.ProjectTimeInfo, table harmony.Table) []Event {
	var (
		sustained harmony.Degree
		held      bool
	)
	for i := 0; i < seq.Len(); i++ {
		tatum := timing.Tatum(i)
		offset := ti.SubdivisionOffset(pt, tatum)
		if held {
			dst = appendChord(dst, table.Triad(sustained), offset, NoteOff)
			held = false
		}
		if d, ok := seq.At(tatum); ok {
			dst = appendChord(dst, table.Triad(d), offset, NoteOn)
			sustained, held = d, true
		}
	}
	// Close the last chord inside the bar so it cannot run into its repeat.
	if held {
		dst = appendChord(dst, table.Triad(sustained), ti.EndOfBar(pt), NoteOff)
	}
	return dst
}

func appendChord(dst []Event, triad harmony.Triad, offset timing.FrameOffset, kind Kind) []Event {
	for _, n := range triad {
		dst = append(dst, Event{Offset: offset, Kind: kind, Note: n})
	}
	return dst
}

// SoundingAt replays every event strictly before barPosition and returns
// the notes left on.
func SoundingAt(events []Event, barPosition timing.FrameOffset) NoteSet {
	var on NoteSet
	for _, e := range events {
		if e.Offset >= barPosition {
			continue
		}
		switch e.Kind {
		case NoteOn:
			on.Add(e.Note)
		case NoteOff:
			on.Remove(e.Note)
		}
	}
	return on
}
