// Package midiout forwards scheduled messages to a MIDI output port.
//
// The audio thread must not do I/O, so the Forwarder only queues messages
// there; a separate goroutine hands them to the driver.
package midiout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// DefaultQueueSize holds several bars of dense chord changes.
const DefaultQueueSize = 1024

const ccAllNotesOff = 123

// ErrQueueFull is returned from the audio thread when the sender lags.
var ErrQueueFull = errors.New("midi output queue full")

type message struct {
	data [3]byte
	n    uint8
}

// SendFunc delivers one message, e.g. the result of midi.SendTo.
type SendFunc func(msg midi.Message) error

// Forwarder is a scheduler.Writer feeding a MIDI port.
type Forwarder struct {
	queue    chan message
	send     SendFunc
	channels []uint8
	logger   *log.Logger

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewForwarder queues up to size messages. channels lists the MIDI channels
// silenced with all-notes-off when Run returns.
func NewForwarder(send SendFunc, size int, channels []uint8, logger *log.Logger) *Forwarder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Forwarder{
		queue:    make(chan message, size),
		send:     send,
		channels: channels,
		logger:   logger,
	}
}

// WriteMIDI never blocks. The frame offset is dropped: messages leave as
// soon as the sender goroutine picks them up.
func (f *Forwarder) WriteMIDI(_ uint32, msg []byte) error {
	if len(msg) == 0 || len(msg) > 3 {
		return fmt.Errorf("cannot forward %d-byte message", len(msg))
	}
	var m message
	m.n = uint8(copy(m.data[:], msg))

	select {
	case f.queue <- m:
		return nil
	default:
		f.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run sends queued messages until ctx is done, then silences the port.
// A message leaves at most one audio buffer after its frame, since the
// whole window is queued while the buffer is being rendered.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.drain()
			f.allNotesOff()
			f.logger.Debug("midi forwarder stopped", "sent", f.sent.Load(), "dropped", f.dropped.Load())
			return
		case m := <-f.queue:
			f.deliver(m)
		}
	}
}

func (f *Forwarder) drain() {
	for {
		select {
		case m := <-f.queue:
			f.deliver(m)
		default:
			return
		}
	}
}

func (f *Forwarder) deliver(m message) {
	if err := f.send(midi.Message(m.data[:m.n])); err != nil {
		f.logger.Warn("midi send failed", "msg", midi.Message(m.data[:m.n]).String(), "err", err)
		return
	}
	f.sent.Add(1)
}

func (f *Forwarder) allNotesOff() {
	for _, ch := range f.channels {
		if err := f.send(midi.ControlChange(ch, ccAllNotesOff, 0)); err != nil {
			f.logger.Warn("all notes off failed", "channel", ch, "err", err)
		}
	}
}

// Sent and Dropped report delivery counters.
func (f *Forwarder) Sent() uint64    { return f.sent.Load() }
func (f *Forwarder) Dropped() uint64 { return f.dropped.Load() }

// Port is an open output port.
type Port struct {
	out    drivers.Out
	send   func(midi.Message) error
	closer func() error
}

// Open connects to an existing output port by name.
func Open(name string) (*Port, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find output port %q: %w", name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", out.String(), err)
	}
	return &Port{out: out, send: send, closer: out.Close}, nil
}

// OpenVirtual creates an output port other applications can connect to.
func OpenVirtual(name string) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to create virtual MIDI port: %w", err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		out.Close()
		drv.Close()
		return nil, fmt.Errorf("failed to open port %s: %w", out.String(), err)
	}
	closer := func() error {
		err := out.Close()
		drv.Close()
		return err
	}
	return &Port{out: out, send: send, closer: closer}, nil
}

func (p *Port) Send(msg midi.Message) error {
	return p.send(msg)
}

func (p *Port) String() string {
	return p.out.String()
}

func (p *Port) Close() error {
	return p.closer()
}

// OutPorts lists the names of the available output ports.
func OutPorts() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}
