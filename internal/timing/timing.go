// Package timing converts musical time into audio frames.
//
// All bar positions are relative to the start of a bar; absolute frame
// counters come from the audio host and never wrap at bar boundaries.
package timing

import (
	"errors"
	"fmt"
	"math"
)

// SubdivisionsPerBar is the fixed number of slots in one bar.
const SubdivisionsPerBar = 16

// MinTempo and MaxTempo bound ProjectTimeInfo.BeatsPerMinute.
const (
	MinTempo = 1
	MaxTempo = 999
)

// ErrFrameRateTooLow is returned when a grid slot would be shorter than
// one frame.
var ErrFrameRateTooLow = errors.New("frame rate too low for the bar grid")

// FrameOffset is a position in frames from the start of a bar.
type FrameOffset uint32

// ProjectTimeInfo is the tempo and meter of the project.
type ProjectTimeInfo struct {
	BeatsPerMinute float64
	BeatsPerBar    uint32
}

// DefaultProjectTimeInfo is 120 BPM in 4/4.
func DefaultProjectTimeInfo() ProjectTimeInfo {
	return ProjectTimeInfo{BeatsPerMinute: 120, BeatsPerBar: 4}
}

// Validate checks that the grid divides evenly into the bar.
func (p ProjectTimeInfo) Validate() error {
	if p.BeatsPerMinute < MinTempo || p.BeatsPerMinute > MaxTempo || math.IsNaN(p.BeatsPerMinute) {
		return fmt.Errorf("tempo %v out of range [%d, %d]", p.BeatsPerMinute, MinTempo, MaxTempo)
	}
	if !ValidBeatsPerBar(p.BeatsPerBar) {
		return fmt.Errorf("%d beats per bar does not divide %d subdivisions", p.BeatsPerBar, SubdivisionsPerBar)
	}
	return nil
}

// ValidBeatsPerBar reports whether n beats split the bar grid evenly.
func ValidBeatsPerBar(n uint32) bool {
	return n > 0 && n <= SubdivisionsPerBar && SubdivisionsPerBar%n == 0
}

// TimingInfo describes the audio session. FramesPerSecond is the sample
// rate and does not change while the session is active.
type TimingInfo struct {
	FramesPerSecond uint32
}

// Validate checks p and that every slot of the grid is at least one frame
// long at this frame rate.
func (t TimingInfo) Validate(p ProjectTimeInfo) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if t.FramesPerSubdivision(p) < 1 {
		return fmt.Errorf("%d frames per second at %v BPM: %w", t.FramesPerSecond, p.BeatsPerMinute, ErrFrameRateTooLow)
	}
	return nil
}

// FramesPerBeat rounds to the nearest whole frame.
func (t TimingInfo) FramesPerBeat(p ProjectTimeInfo) uint32 {
	beatsPerSecond := p.BeatsPerMinute / 60
	return uint32(math.Round(float64(t.FramesPerSecond) / beatsPerSecond))
}

// FramesPerSubdivision is the distance between two slots of the grid.
func (t TimingInfo) FramesPerSubdivision(p ProjectTimeInfo) uint32 {
	subdivisionsPerBeat := SubdivisionsPerBar / p.BeatsPerBar
	return t.FramesPerBeat(p) / subdivisionsPerBeat
}

// FramesPerBar is the length of one bar.
func (t TimingInfo) FramesPerBar(p ProjectTimeInfo) uint32 {
	return t.FramesPerBeat(p) * p.BeatsPerBar
}

// EndOfBar is the last addressable offset inside a bar.
func (t TimingInfo) EndOfBar(p ProjectTimeInfo) FrameOffset {
	return FrameOffset(t.FramesPerBeat(p)*p.BeatsPerBar - 1)
}

// FramesThroughBar projects an absolute frame onto the bar.
func (t TimingInfo) FramesThroughBar(p ProjectTimeInfo, frame uint64) FrameOffset {
	return FrameOffset(frame % uint64(t.FramesPerBar(p)))
}

// SubdivisionOffset is the bar offset of slot i.
func (t TimingInfo) SubdivisionOffset(p ProjectTimeInfo, i Tatum) FrameOffset {
	return FrameOffset(uint32(i) * t.FramesPerSubdivision(p))
}

// NextOccurrence returns the first absolute frame at or after windowStart
// whose bar position equals offset.
func (t TimingInfo) NextOccurrence(p ProjectTimeInfo, windowStart uint64, offset FrameOffset) uint64 {
	sinceBarStart := uint64(t.FramesThroughBar(p, windowStart))
	startOfCurrentBar := windowStart - sinceBarStart
	inCurrentBar := startOfCurrentBar + uint64(offset)

	next := inCurrentBar
	if inCurrentBar < windowStart {
		startOfNextBar := windowStart + (uint64(t.FramesPerBar(p)) - sinceBarStart)
		next = startOfNextBar + uint64(offset)
	}
	if next < windowStart {
		panic(fmt.Sprintf("timing: next occurrence %d of offset %d before window start %d", next, offset, windowStart))
	}
	return next
}
