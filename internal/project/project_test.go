package project

import (
	"errors"
	"sync"
	"testing"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/timing"
)

func TestNewChordSequencePadsWithSilence(t *testing.T) {
	seq, err := NewChordSequence([]harmony.Degree{harmony.I})
	if err != nil {
		t.Fatalf("NewChordSequence error: %v", err)
	}
	if seq.Len() != timing.SubdivisionsPerBar {
		t.Errorf("Len = %d, want %d", seq.Len(), timing.SubdivisionsPerBar)
	}
	if d, ok := seq.At(0); !ok || d != harmony.I {
		t.Errorf("At(0) = %v, %v, want I, true", d, ok)
	}
	for i := 1; i < timing.SubdivisionsPerBar; i++ {
		if _, ok := seq.At(timing.Tatum(i)); ok {
			t.Errorf("At(%d) should be silent", i)
		}
	}
}

func TestNewChordSequenceRejectsLongInput(t *testing.T) {
	_, err := NewChordSequence(make([]harmony.Degree, timing.SubdivisionsPerBar+1))
	if !errors.Is(err, ErrInvalidSequenceLength) {
		t.Fatalf("error = %v, want ErrInvalidSequenceLength", err)
	}

	if _, err := NewChordSequence(make([]harmony.Degree, timing.SubdivisionsPerBar)); err != nil {
		t.Errorf("full-length sequence rejected: %v", err)
	}
}

func TestNewChordSequenceRejectsUnknownDegree(t *testing.T) {
	if _, err := NewChordSequence([]harmony.Degree{harmony.Degree(9)}); err == nil {
		t.Error("expected error for degree 9")
	}
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"1...4...5...1...", "I . . . IV . . . V . . . I . . .", nil},
		{"I . . VI", "I . . VI . . . . . . . . . . . .", nil},
		{"", ". . . . . . . . . . . . . . . .", nil},
		{"2-0_7", "II . . . VII . . . . . . . . . . .", nil},
		{"12345671234567123", "", ErrInvalidSequenceLength},
	}

	for _, tt := range tests {
		seq, err := ParseSequence(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseSequence(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSequence(%q) error = %v", tt.in, err)
			continue
		}
		if got := seq.String(); got != tt.want {
			t.Errorf("ParseSequence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSequence("19"); err == nil {
		t.Error("ParseSequence(\"19\") should fail")
	}
}

func TestSetChordMutatesSlot(t *testing.T) {
	s := NewState()
	s.SetChord(1, harmony.II)
	if d, ok := s.Sequence().At(1); !ok || d != harmony.II {
		t.Errorf("slot 1 = %v, %v, want II", d, ok)
	}

	s.ClearChord(1)
	if _, ok := s.Sequence().At(1); ok {
		t.Error("slot 1 should be silent after ClearChord")
	}
}

func TestSetChordOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for slot 16")
		}
	}()
	NewState().SetChord(timing.Tatum(timing.SubdivisionsPerBar), harmony.I)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewState()
	s.SetChord(0, harmony.I)
	snap := s.Snapshot()

	s.SetChord(0, harmony.V)
	if d, _ := snap.Sequence.At(0); d != harmony.I {
		t.Errorf("snapshot changed after edit: slot 0 = %v", d)
	}
}

func TestSetTempoAndMeter(t *testing.T) {
	s := NewState()
	if err := s.SetTempo(90); err != nil {
		t.Fatalf("SetTempo(90) error: %v", err)
	}
	if err := s.SetBeatsPerBar(8); err != nil {
		t.Fatalf("SetBeatsPerBar(8) error: %v", err)
	}
	if got := s.Time(); got.BeatsPerMinute != 90 || got.BeatsPerBar != 8 {
		t.Errorf("Time() = %+v", got)
	}

	if err := s.SetTempo(0); err == nil {
		t.Error("SetTempo(0) should fail")
	}
	if err := s.SetBeatsPerBar(3); err == nil {
		t.Error("SetBeatsPerBar(3) should fail")
	}
	if got := s.Time(); got.BeatsPerMinute != 90 || got.BeatsPerBar != 8 {
		t.Errorf("rejected edits changed state: %+v", got)
	}
}

func TestNewStateFromValidates(t *testing.T) {
	if _, err := NewStateFrom(ChordSequence{}, timing.ProjectTimeInfo{BeatsPerMinute: 120, BeatsPerBar: 5}); err == nil {
		t.Error("expected error for 5 beats per bar")
	}
}

func TestConcurrentEditsAndSnapshots(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.SetChord(timing.Tatum(i%timing.SubdivisionsPerBar), harmony.Degree(i%7+1))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := s.Snapshot()
			if snap.Sequence.Len() != timing.SubdivisionsPerBar {
				t.Errorf("snapshot length %d", snap.Sequence.Len())
				return
			}
		}
	}()
	wg.Wait()
}
