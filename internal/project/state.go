package project

import (
	"fmt"
	"sync"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/timing"
)

// Snapshot is a consistent copy of the state taken under one read lock.
type Snapshot struct {
	Sequence ChordSequence
	Time     timing.ProjectTimeInfo
}

// State is shared between the editor and the audio callback. Writers hold
// the lock for a single mutation; readers copy and release.
type State struct {
	mu       sync.RWMutex
	sequence ChordSequence
	time     timing.ProjectTimeInfo
}

// NewState starts with an empty bar at 120 BPM in 4/4.
func NewState() *State {
	return &State{time: timing.DefaultProjectTimeInfo()}
}

// NewStateFrom validates tm before building the state.
func NewStateFrom(seq ChordSequence, tm timing.ProjectTimeInfo) (*State, error) {
	if err := tm.Validate(); err != nil {
		return nil, fmt.Errorf("project time: %w", err)
	}
	return &State{sequence: seq, time: tm}, nil
}

// Snapshot copies the sequence and time info.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{Sequence: s.sequence, Time: s.time}
	s.mu.RUnlock()
	return snap
}

func (s *State) Sequence() ChordSequence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence
}

func (s *State) Time() timing.ProjectTimeInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// SetChord places d in slot t. A slot outside the bar is a caller bug.
func (s *State) SetChord(t timing.Tatum, d harmony.Degree) {
	if int(t) >= timing.SubdivisionsPerBar {
		panic(fmt.Sprintf("project: slot %d outside bar", t))
	}
	s.mu.Lock()
	s.sequence.Set(t, d)
	s.mu.Unlock()
}

func (s *State) ClearChord(t timing.Tatum) {
	s.SetChord(t, harmony.None)
}

// ReplaceSequence swaps the whole bar in one write.
func (s *State) ReplaceSequence(seq ChordSequence) {
	s.mu.Lock()
	s.sequence = seq
	s.mu.Unlock()
}

// SetTempo leaves the state untouched when bpm is out of range.
func (s *State) SetTempo(bpm float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.time
	next.BeatsPerMinute = bpm
	if err := next.Validate(); err != nil {
		return err
	}
	s.time = next
	return nil
}

// SetBeatsPerBar leaves the state untouched when n does not divide the grid.
func (s *State) SetBeatsPerBar(n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.time
	next.BeatsPerBar = n
	if err := next.Validate(); err != nil {
		return err
	}
	s.time = next
	return nil
}
