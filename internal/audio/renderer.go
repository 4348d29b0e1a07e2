package audio

import (
	"math"
	"sync/atomic"

	"github.com/icco/tubular/internal/scheduler"
	"github.com/icco/tubular/internal/timeline"
)

// Renderer is the audio callback. Every Read is one window: the scheduler
// decides which messages fall inside it and the synth applies each one at
// its exact frame while filling the buffer.
//
// Read owns the synth and takes no locks. Other goroutines reach it only
// through atomics that Read picks up at the start of the next window.
// Read must not be called concurrently with itself.
type Renderer struct {
	scheduler *scheduler.Scheduler
	synth     *synth
	recorder  *scheduler.Recorder
	writer    scheduler.Writer

	frame       atomic.Uint64
	writeErrors atomic.Uint64
	voices      atomic.Int32
	volume      atomic.Uint64 // math.Float64bits
	release     atomic.Bool
}

// NewRenderer plays sched through the built-in synth. When also is non-nil
// every message is copied to it as well, from the audio thread.
func NewRenderer(sched *scheduler.Scheduler, also scheduler.Writer) *Renderer {
	r := &Renderer{
		scheduler: sched,
		synth:     newSynth(sched.Timing().FramesPerSecond),
		// lingering offs for every pitch plus a full bar of events
		recorder: scheduler.NewRecorder(timeline.MaxEvents + 128),
	}
	r.volume.Store(math.Float64bits(r.synth.masterVolume))
	r.writer = r.recorder
	if also != nil {
		r.writer = scheduler.Tee(r.recorder, also)
	}
	return r
}

// Read fills buf with 16-bit stereo frames.
func (r *Renderer) Read(buf []byte) (int, error) {
	frames := len(buf) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	r.synth.masterVolume = math.Float64frombits(r.volume.Load())
	if r.release.Swap(false) {
		r.synth.allNotesOff()
	}

	start := r.frame.Load()
	r.recorder.Reset()
	if err := r.scheduler.Process(start, uint32(frames), r.writer); err != nil {
		r.writeErrors.Add(1)
	}

	msgs := r.recorder.Messages
	next := 0
	for i := 0; i < frames; i++ {
		for next < len(msgs) && msgs[next].Offset <= uint32(i) {
			r.synth.handle(msgs[next].Data())
			next++
		}

		sampleInt := int16(r.synth.renderFrame() * 32767)

		// Write stereo samples (same for L and R)
		idx := i * bytesPerFrame
		buf[idx] = byte(sampleInt)
		buf[idx+1] = byte(sampleInt >> 8)
		buf[idx+2] = byte(sampleInt)
		buf[idx+3] = byte(sampleInt >> 8)
	}

	r.voices.Store(int32(r.synth.activeVoices()))
	r.frame.Store(start + uint64(frames))
	return frames * bytesPerFrame, nil
}

// Frame is the absolute frame the next window starts at.
func (r *Renderer) Frame() uint64 {
	return r.frame.Load()
}

// WriteErrors counts windows in which the extra writer failed.
func (r *Renderer) WriteErrors() uint64 {
	return r.writeErrors.Load()
}

// ActiveVoices reports how many synth voices were sounding or releasing
// at the end of the last window.
func (r *Renderer) ActiveVoices() int {
	return int(r.voices.Load())
}

// AllNotesOff releases every voice at the start of the next window.
func (r *Renderer) AllNotesOff() {
	r.release.Store(true)
}

// SetVolume sets the master volume (0.0 - 1.0) from the next window on.
func (r *Renderer) SetVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	r.volume.Store(math.Float64bits(vol))
}

// Volume is the master volume the next window renders with.
func (r *Renderer) Volume() float64 {
	return math.Float64frombits(r.volume.Load())
}
