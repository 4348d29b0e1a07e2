package audio

import (
	"testing"

	"github.com/icco/tubular/internal/harmony"
	"github.com/icco/tubular/internal/project"
	"github.com/icco/tubular/internal/scheduler"
	"github.com/icco/tubular/internal/timing"
)

const testRate = 8000

func newRenderer(t *testing.T, steps string, also scheduler.Writer) (*Renderer, *project.State) {
	t.Helper()
	seq, err := project.ParseSequence(steps)
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	state, err := project.NewStateFrom(seq, timing.DefaultProjectTimeInfo())
	if err != nil {
		t.Fatalf("NewStateFrom: %v", err)
	}
	sched := scheduler.New(state, timing.TimingInfo{FramesPerSecond: testRate}, scheduler.DefaultOptions())
	return NewRenderer(sched, also), state
}

func energy(buf []byte) float64 {
	var e float64
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
		if s < 0 {
			e -= float64(s)
		} else {
			e += float64(s)
		}
	}
	return e
}

func TestRendererPlaysScheduledChord(t *testing.T) {
	extra := scheduler.NewRecorder(16)
	r, _ := newRenderer(t, "1", extra)

	buf := make([]byte, 400*bytesPerFrame)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if n != len(buf) {
		t.Errorf("Read = %d bytes, want %d", n, len(buf))
	}
	if r.Frame() != 400 {
		t.Errorf("Frame = %d, want 400", r.Frame())
	}
	if got := r.ActiveVoices(); got != 3 {
		t.Errorf("ActiveVoices = %d, want 3", got)
	}
	if energy(buf) == 0 {
		t.Error("expected non-zero audio energy")
	}
	if len(extra.Messages) != 3 {
		t.Errorf("extra writer got %d messages, want 3 note ons", len(extra.Messages))
	}
}

func TestRendererSilentSequence(t *testing.T) {
	r, _ := newRenderer(t, "", nil)
	buf := make([]byte, 256*bytesPerFrame)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}
	if energy(buf) != 0 {
		t.Error("empty sequence should render silence")
	}
}

func TestRendererReleasesRemovedChord(t *testing.T) {
	extra := scheduler.NewRecorder(16)
	r, state := newRenderer(t, "1", extra)

	buf := make([]byte, 100*bytesPerFrame)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}

	state.ClearChord(0)
	extra.Reset()
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}
	if len(extra.Messages) != 3 {
		t.Fatalf("got %d messages after clearing, want 3 note offs", len(extra.Messages))
	}
	for _, m := range extra.Messages {
		if m.Offset != 0 || m.Bytes[0] != 0x80 {
			t.Errorf("message %v is not an immediate note off", m)
		}
	}
	for i := range r.synth.voices {
		v := r.synth.voices[i]
		if v.active && !v.releasing {
			t.Errorf("voice %d (note %d) still held", i, v.note)
		}
	}
}

func TestRendererIgnoresPartialFrame(t *testing.T) {
	r, _ := newRenderer(t, "1", nil)
	n, err := r.Read(make([]byte, 3))
	if n != 0 || err != nil {
		t.Errorf("Read(3 bytes) = %d, %v", n, err)
	}
	if r.Frame() != 0 {
		t.Errorf("Frame advanced to %d", r.Frame())
	}
}

func TestRendererNoteOnLandsOnItsFrame(t *testing.T) {
	// Slot 1 starts at 1000 frames: 8000 fps, 120 BPM, 4 slots per beat.
	r, _ := newRenderer(t, ".1", nil)

	buf := make([]byte, 1000*bytesPerFrame)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}
	if energy(buf) != 0 {
		t.Error("audio before the first chord should be silent")
	}
	if _, err := r.Read(buf[:10*bytesPerFrame]); err != nil {
		t.Fatal(err)
	}
	if got := r.ActiveVoices(); got != 3 {
		t.Errorf("ActiveVoices = %d, want 3", got)
	}
}

func TestSynthVoiceStealing(t *testing.T) {
	s := newSynth(testRate)
	for i := 0; i < maxVoices+1; i++ {
		s.noteOn(0, uint8(i), 100)
	}
	if got := s.activeVoices(); got != maxVoices {
		t.Errorf("activeVoices = %d, want %d", got, maxVoices)
	}
	for i := range s.voices {
		if s.voices[i].note == 0 {
			t.Error("oldest voice should have been stolen")
		}
	}
}

func TestSynthHandle(t *testing.T) {
	s := newSynth(testRate)
	triad := harmony.DefaultTable.Triad(harmony.IV)
	for _, n := range triad {
		s.handle([]byte{0x92, byte(n), 120})
	}
	if got := s.activeVoices(); got != 3 {
		t.Fatalf("activeVoices = %d, want 3", got)
	}

	s.handle([]byte{0x82, byte(triad[0]), 64})
	s.handle([]byte{0x92, byte(triad[1]), 0})
	releasing := 0
	for _, v := range s.voices {
		if v.releasing {
			releasing++
		}
	}
	if releasing != 2 {
		t.Errorf("releasing = %d, want 2", releasing)
	}

	s.handle([]byte{0xB2, 123, 0})
	for _, v := range s.voices {
		if v.active && !v.releasing {
			t.Errorf("note %d still held after all notes off", v.note)
		}
	}
}

func TestSetVolumeClamps(t *testing.T) {
	r, _ := newRenderer(t, "", nil)
	if got := r.Volume(); got != r.synth.masterVolume {
		t.Errorf("Volume = %v, want synth default %v", got, r.synth.masterVolume)
	}
	r.SetVolume(2)
	if got := r.Volume(); got != 1 {
		t.Errorf("Volume = %v, want 1", got)
	}
	r.SetVolume(-1)
	if got := r.Volume(); got != 0 {
		t.Errorf("Volume = %v, want 0", got)
	}

	r.SetVolume(0.5)
	if _, err := r.Read(make([]byte, 4*bytesPerFrame)); err != nil {
		t.Fatal(err)
	}
	if r.synth.masterVolume != 0.5 {
		t.Errorf("masterVolume = %v after a window, want 0.5", r.synth.masterVolume)
	}
}

func TestAllNotesOffAppliesAtNextWindow(t *testing.T) {
	r, _ := newRenderer(t, "1", nil)
	buf := make([]byte, 100*bytesPerFrame)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}

	r.AllNotesOff()
	if _, err := r.Read(buf[:bytesPerFrame]); err != nil {
		t.Fatal(err)
	}
	held := 0
	for _, v := range r.synth.voices {
		if v.active && !v.releasing {
			held++
		}
	}
	if held != 0 {
		t.Errorf("%d voices still held after all notes off", held)
	}
	if r.release.Load() {
		t.Error("release request was not consumed")
	}
}
