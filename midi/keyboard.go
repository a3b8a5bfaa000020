package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/leighmurray/teensynth/debug"
)

// Omni accepts messages on every channel
const Omni = -1

// KeyboardController handles a standard MIDI keyboard
type KeyboardController struct {
	id       string
	inPort   drivers.In
	channel  int
	stopFunc func()

	mu      sync.Mutex // guards events against Close
	closed  bool
	events  chan Event
	dropped atomic.Uint64
}

// NewKeyboardController creates a keyboard controller (input only).
// channel is 0-15, or Omni.
func NewKeyboardController(id string, inPort drivers.In, channel int) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:      id,
		inPort:  inPort,
		channel: channel,
		events:  make(chan Event, 64),
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			kb.push(msg)
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// push decodes a raw message and queues it without blocking the driver
func (kb *KeyboardController) push(msg gomidi.Message) {
	ev, ok := Decode(msg)
	if !ok {
		return
	}
	if kb.channel != Omni && int(ev.Channel) != kb.channel {
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return
	}
	select {
	case kb.events <- ev:
	default:
		n := kb.dropped.Add(1)
		debug.LogEvery(16, "midi-in", "%s: queue full, dropped=%d", kb.id, n)
	}
}

// Decode converts a raw message to an Event. Note-on with velocity 0 is
// reported as NoteOff. Messages the synth has no use for return false.
func Decode(msg gomidi.Message) (Event, bool) {
	var channel, key, velocity, cc, value uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return Event{Type: NoteOn, Channel: channel, Note: key, Velocity: velocity}, true
	case msg.GetNoteEnd(&channel, &key):
		return Event{Type: NoteOff, Channel: channel, Note: key}, true
	case msg.GetControlChange(&channel, &cc, &value):
		return Event{Type: CC, Channel: channel, Note: cc, Velocity: value}, true
	case msg.GetPitchBend(&channel, &rel, &abs):
		return Event{Type: PitchBend, Channel: channel, Bend: rel}, true
	}
	return Event{}, false
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) Events() <-chan Event {
	return kb.events
}

func (kb *KeyboardController) Dropped() uint64 {
	return kb.dropped.Load()
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if !kb.closed {
		kb.closed = true
		close(kb.events)
	}
	return nil
}
