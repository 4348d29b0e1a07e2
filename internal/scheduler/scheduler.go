// Package scheduler turns the live chord sequence into frame-stamped MIDI
// bytes for each audio callback window.
//
// Process runs on the audio thread. It takes one snapshot of the project,
// translates it, and compares the result with the timeline it saw on the
// previous call. Notes that the edit removed are switched off at the start
// of the window. Nothing is carried between calls except that timeline, so
// a missed callback cannot leave the note bookkeeping out of step.
package scheduler

import (
	"fmt"
	"slices"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timeline"
	"github.com/icco/tubular/internal/timing"
)

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90

	NoteOnVelocity  = 120
	NoteOffVelocity = 64
)

// Source provides the shared project state.
type Source interface {
	Snapshot() project.Snapshot
}

// Writer receives the messages of one window. msg is only valid for the
// duration of the call.
type Writer interface {
	WriteMIDI(offset uint32, msg []byte) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(offset uint32, msg []byte) error

func (f WriterFunc) WriteMIDI(offset uint32, msg []byte) error {
	return f(offset, msg)
}

type pending struct {
	offset uint32
	event  timeline.Event
}

// Options configures a Scheduler.
type Options struct {
	// Channel is the MIDI channel, 0-15.
	Channel uint8
	Table   harmony.Table
}

// DefaultOptions plays the C major table on channel 0.
func DefaultOptions() Options {
	return Options{Table: harmony.DefaultTable}
}

// Scheduler is not safe for concurrent use; it belongs to the audio thread.
type Scheduler struct {
	source  Source
	timing  timing.TimingInfo
	channel uint8
	table   harmony.Table

	last    []timeline.Event
	current []timeline.Event
	pending []pending
	msg     [3]byte
}

// New translates the sequence in effect now so the first window has a
// previous timeline to compare against.
func New(src Source, ti timing.TimingInfo, opts Options) *Scheduler {
	if opts.Channel > 15 {
		panic(fmt.Sprintf("scheduler: channel %d out of range", opts.Channel))
	}
	if ti.FramesPerSecond == 0 {
		panic("scheduler: zero sample rate")
	}
	s := &Scheduler{
		source:  src,
		timing:  ti,
		channel: opts.Channel,
		table:   opts.Table,
		last:    make([]timeline.Event, 0, timeline.MaxEvents),
		current: make([]timeline.Event, 0, timeline.MaxEvents),
		pending: make([]pending, 0, timeline.MaxEvents+128),
	}
	snap := src.Snapshot()
	if ti.Validate(snap.Time) == nil {
		s.last = timeline.AppendTranslate(s.last, snap.Sequence, ti, snap.Time, s.table)
	}
	return s
}

// Timing returns the session timing the scheduler was built with.
func (s *Scheduler) Timing() timing.TimingInfo {
	return s.timing
}

// Process writes every message due in [windowStart, windowStart+windowLength)
// to w, ordered by offset. Write errors do not stop the window; the first
// one is returned. A zero-length window has nothing due and is a no-op.
//
// When the project tempo leaves a grid slot shorter than one frame the
// window is skipped with an error wrapping timing.ErrFrameRateTooLow, and
// the previous timeline is kept for the next window.
func (s *Scheduler) Process(windowStart uint64, windowLength uint32, w Writer) error {
	if windowLength == 0 {
		return nil
	}
	snap := s.source.Snapshot()
	pt := snap.Time
	if err := s.timing.Validate(pt); err != nil {
		return fmt.Errorf("window at %d: %w", windowStart, err)
	}

	s.current = timeline.AppendTranslate(s.current[:0], snap.Sequence, s.timing, pt, s.table)

	barPosition := s.timing.FramesThroughBar(pt, windowStart)
	oldOn := timeline.SoundingAt(s.last, barPosition)
	newOn := timeline.SoundingAt(s.current, barPosition)

	// Both sets come from the same pair, so they never share a pitch.
	lingering := oldOn.Difference(newOn)
	ghost := newOn.Difference(oldOn)

	s.pending = s.pending[:0]
	lingering.Each(func(n harmony.Note) {
		s.pending = append(s.pending, pending{
			offset: 0,
			event:  timeline.Event{Offset: barPosition, Kind: timeline.NoteOff, Note: n},
		})
	})

	for _, e := range s.current {
		if e.Kind == timeline.NoteOff && ghost.Has(e.Note) {
			continue
		}
		at := s.timing.NextOccurrence(pt, windowStart, e.Offset)
		if at-windowStart < uint64(windowLength) {
			s.pending = append(s.pending, pending{offset: uint32(at - windowStart), event: e})
		}
	}

	slices.SortStableFunc(s.pending, func(a, b pending) int {
		switch {
		case a.offset < b.offset:
			return -1
		case a.offset > b.offset:
			return 1
		}
		return 0
	})

	var firstErr error
	for _, p := range s.pending {
		if p.offset >= windowLength {
			panic(fmt.Sprintf("scheduler: offset %d outside window of %d frames", p.offset, windowLength))
		}
		if err := w.WriteMIDI(p.offset, s.encode(p.event)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write %v at %d: %w", p.event.Kind, p.offset, err)
		}
	}

	s.last, s.current = s.current, s.last
	return firstErr
}

func (s *Scheduler) encode(e timeline.Event) []byte {
	switch e.Kind {
	case timeline.NoteOn:
		s.msg = [3]byte{statusNoteOn | s.channel, byte(e.Note) & 0x7f, NoteOnVelocity}
	case timeline.NoteOff:
		s.msg = [3]byte{statusNoteOff | s.channel, byte(e.Note) & 0x7f, NoteOffVelocity}
	default:
		panic(fmt.Sprintf("scheduler: cannot encode %v", e.Kind))
	}
	return s.msg[:]
}
