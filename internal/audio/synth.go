// Package audio renders the scheduled chords through a small polyphonic
// synthesizer and plays them on the system audio device.
package audio

import (
	"math"
)

const (
	channelCount  = 2 // stereo
	bitDepth      = 2 // 16-bit
	bytesPerFrame = channelCount * bitDepth

	maxVoices = 32
)

// WaveType represents different oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

// voice represents a single playing note
type voice struct {
	note      uint8
	channel   uint8
	velocity  uint8
	frequency float64
	phase     float64
	envelope  float64 // 0-1
	releasing bool
	active    bool
	age       uint64
}

// synth holds the voices. Only Renderer.Read touches it.
type synth struct {
	sampleRate   float64
	voices       [maxVoices]voice
	masterVolume float64
	waveTypes    [16]WaveType
	clock        uint64
}

func newSynth(sampleRate uint32) *synth {
	s := &synth{
		sampleRate:   float64(sampleRate),
		masterVolume: 0.3,
	}
	s.waveTypes[0] = WaveTriangle
	s.waveTypes[1] = WaveSine
	s.waveTypes[2] = WaveSawtooth
	s.waveTypes[3] = WaveSquare
	return s
}

// handle applies one channel voice message.
func (s *synth) handle(msg []byte) {
	if len(msg) < 3 {
		return
	}
	status := msg[0] & 0xF0
	channel := msg[0] & 0x0F

	switch status {
	case 0x90:
		if msg[2] == 0 {
			s.noteOff(channel, msg[1])
			return
		}
		s.noteOn(channel, msg[1], msg[2])
	case 0x80:
		s.noteOff(channel, msg[1])
	case 0xB0:
		// all notes off
		if msg[1] == 123 {
			s.allNotesOff()
		}
	}
}

func (s *synth) noteOn(channel, note, velocity uint8) {
	// Find an inactive voice or steal the oldest one
	v := &s.voices[0]
	for i := range s.voices {
		c := &s.voices[i]
		if !c.active {
			v = c
			break
		}
		if c.age < v.age {
			v = c
		}
	}

	s.clock++
	*v = voice{
		note:      note,
		channel:   channel,
		velocity:  velocity,
		frequency: midiNoteToFreq(note),
		active:    true,
		age:       s.clock,
	}
}

func (s *synth) noteOff(channel, note uint8) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.note == note && v.channel == channel && !v.releasing {
			v.releasing = true
			break
		}
	}
}

func (s *synth) allNotesOff() {
	for i := range s.voices {
		if s.voices[i].active {
			s.voices[i].releasing = true
		}
	}
}

func (s *synth) activeVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// renderFrame mixes all voices into one sample.
func (s *synth) renderFrame() float64 {
	var sample float64

	for i := range s.voices {
		v := &s.voices[i]
		if !v.active {
			continue
		}

		osc := generateWave(s.waveTypes[v.channel%16], v.phase)
		velocityScale := float64(v.velocity) / 127.0
		sample += osc * velocityScale * v.envelope * 0.2

		v.phase += v.frequency / s.sampleRate
		if v.phase >= 1.0 {
			v.phase -= 1.0
		}

		if v.releasing {
			// Release phase - exponential decay
			v.envelope *= 0.9995
			if v.envelope < 0.001 {
				v.active = false
			}
		} else if v.envelope < 1.0 {
			// Attack phase
			v.envelope += 0.001
			if v.envelope > 1.0 {
				v.envelope = 1.0
			}
		}
	}

	sample *= s.masterVolume
	if sample > 1.0 {
		sample = 1.0
	} else if sample < -1.0 {
		sample = -1.0
	}
	return sample
}

func generateWave(waveType WaveType, phase float64) float64 {
	switch waveType {
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// midiNoteToFreq converts a MIDI note number to frequency in Hz
func midiNoteToFreq(note uint8) float64 {
	// A4 (note 69) = 440 Hz
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}
