package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerKeyboard
)

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Decoded channel messages, in arrival order
	Events() <-chan Event

	// Dropped returns how many events were discarded because the
	// consumer fell behind
	Dropped() uint64

	Close() error
}
