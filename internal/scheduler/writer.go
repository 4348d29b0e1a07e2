package scheduler

import "fmt"

// Message is one recorded output of a window.
type Message struct {
	Offset uint32
	Bytes  [3]byte
	Len    uint8
}

// Data returns the raw MIDI bytes.
func (m Message) Data() []byte {
	return m.Bytes[:m.Len]
}

func (m Message) String() string {
	return fmt.Sprintf("%d % X", m.Offset, m.Data())
}

// Recorder keeps a copy of every message written to it. It reuses its
// buffer after Reset, so it is usable on the audio thread once warmed up.
type Recorder struct {
	Messages []Message
}

// NewRecorder preallocates room for n messages.
func NewRecorder(n int) *Recorder {
	return &Recorder{Messages: make([]Message, 0, n)}
}

func (r *Recorder) WriteMIDI(offset uint32, msg []byte) error {
	if len(msg) > 3 {
		return fmt.Errorf("message of %d bytes is not a channel voice message", len(msg))
	}
	m := Message{Offset: offset, Len: uint8(len(msg))}
	copy(m.Bytes[:], msg)
	r.Messages = append(r.Messages, m)
	return nil
}

func (r *Recorder) Reset() {
	r.Messages = r.Messages[:0]
}

type tee []Writer

// Tee writes every message to each of ws in turn.
func Tee(ws ...Writer) Writer {
	return tee(ws)
}

func (t tee) WriteMIDI(offset uint32, msg []byte) error {
	var firstErr error
	for _, w := range t {
		if err := w.WriteMIDI(offset, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
