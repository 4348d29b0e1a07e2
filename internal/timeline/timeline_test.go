package timeline

import (
	"reflect"
	"testing"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/timing"
)

var (
	reference = timing.ProjectTimeInfo{BeatsPerMinute: 120, BeatsPerBar: 4}
	slowClock = timing.TimingInfo{FramesPerSecond: 40}
)

func mustSequence(t *testing.T, degrees ...harmony.Degree) project.ChordSequence {
	t.Helper()
	seq, err := project.NewChordSequence(degrees)
	if err != nil {
		t.Fatalf("NewChordSequence: %v", err)
	}
	return seq
}

func chord(offset timing.FrameOffset, kind Kind, notes ...harmony.Note) []Event {
	events := make([]Event, 0, len(notes))
	for _, n := range notes {
		events = append(events, Event{Offset: offset, Kind: kind, Note: n})
	}
	return events
}

func concat(groups ...[]Event) []Event {
	var out []Event
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestTranslateSingleChord(t *testing.T) {
	seq := mustSequence(t, harmony.I)
	got := Translate(seq, slowClock, reference, harmony.DefaultTable)

	want := concat(
		chord(0, NoteOn, 60, 64, 67),
		chord(5, NoteOff, 60, 64, 67),
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateAdjacentChordsCloseThePreviousOne(t *testing.T) {
	seq := mustSequence(t, harmony.I, harmony.II)
	got := Translate(seq, slowClock, reference, harmony.DefaultTable)

	want := concat(
		chord(0, NoteOn, 60, 64, 67),
		chord(5, NoteOff, 60, 64, 67),
		chord(5, NoteOn, 62, 65, 69),
		chord(10, NoteOff, 62, 65, 69),
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateChordInLastSlotClosesAtEndOfBar(t *testing.T) {
	var seq project.ChordSequence
	seq.Set(15, harmony.II)
	got := Translate(seq, slowClock, reference, harmony.DefaultTable)

	want := concat(
		chord(75, NoteOn, 62, 65, 69),
		chord(79, NoteOff, 62, 65, 69),
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateRepeatedChordRetriggers(t *testing.T) {
	seq := mustSequence(t, harmony.V, harmony.V)
	got := Translate(seq, slowClock, reference, harmony.DefaultTable)

	want := concat(
		chord(0, NoteOn, 67, 71, 74),
		chord(5, NoteOff, 67, 71, 74),
		chord(5, NoteOn, 67, 71, 74),
		chord(10, NoteOff, 67, 71, 74),
	)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() =\n%v\nwant\n%v", got, want)
	}
}

func TestTranslateEmptySequence(t *testing.T) {
	if got := Translate(project.ChordSequence{}, slowClock, reference, harmony.DefaultTable); len(got) != 0 {
		t.Errorf("Translate(empty) = %v, want no events", got)
	}
}

func TestTranslateFullBarStaysInsideBar(t *testing.T) {
	var seq project.ChordSequence
	for i := 0; i < timing.SubdivisionsPerBar; i++ {
		seq.Set(timing.Tatum(i), harmony.Degree(i%7+1))
	}
	events := Translate(seq, slowClock, reference, harmony.DefaultTable)
	if len(events) != MaxEvents-len(harmony.Triad{}) {
		t.Errorf("len(events) = %d, want %d", len(events), MaxEvents-len(harmony.Triad{}))
	}
	bar := timing.FrameOffset(slowClock.FramesPerBar(reference))
	for _, e := range events {
		if e.Offset >= bar {
			t.Fatalf("event %v outside bar of %d frames", e, bar)
		}
	}
}

func TestAppendTranslateDoesNotAllocate(t *testing.T) {
	seq := mustSequence(t, harmony.I, harmony.None, harmony.IV, harmony.V)
	buf := make([]Event, 0, MaxEvents)
	allocs := testing.AllocsPerRun(100, func() {
		buf = AppendTranslate(buf[:0], seq, slowClock, reference, harmony.DefaultTable)
	})
	if allocs != 0 {
		t.Errorf("AppendTranslate allocated %v times per run", allocs)
	}
}

func TestSoundingAt(t *testing.T) {
	events := Translate(mustSequence(t, harmony.I, harmony.II), slowClock, reference, harmony.DefaultTable)

	tests := []struct {
		position timing.FrameOffset
		want     []harmony.Note
	}{
		// nothing strictly before 0
		{0, nil},
		{1, []harmony.Note{60, 64, 67}},
		{5, []harmony.Note{60, 64, 67}},
		{6, []harmony.Note{62, 65, 69}},
		{10, []harmony.Note{62, 65, 69}},
		{11, nil},
		{79, nil},
	}

	for _, tt := range tests {
		var want NoteSet
		for _, n := range tt.want {
			want.Add(n)
		}
		if got := SoundingAt(events, tt.position); got != want {
			t.Errorf("SoundingAt(%d) = %v, want %v", tt.position, got, want)
		}
	}
}

func TestNoteSet(t *testing.T) {
	var a, b NoteSet
	a.Add(0)
	a.Add(60)
	a.Add(127)
	b.Add(60)

	if !a.Has(127) || !a.Has(0) || a.Has(61) {
		t.Errorf("Has mismatch for %v", a)
	}
	if a.Len() != 3 {
		t.Errorf("Len = %d, want 3", a.Len())
	}

	diff := a.Difference(b)
	var got []harmony.Note
	diff.Each(func(n harmony.Note) { got = append(got, n) })
	if !reflect.DeepEqual(got, []harmony.Note{0, 127}) {
		t.Errorf("Difference = %v, want [0 127]", got)
	}

	a.Remove(0)
	a.Remove(127)
	a.Remove(60)
	if !a.Empty() {
		t.Errorf("set should be empty, got %v", a)
	}
	if got := b.String(); got != "{C4}" {
		t.Errorf("String = %q", got)
	}
}
