package midi

// MIDI message types
const (
	NoteOn    uint8 = 0x90
	NoteOff   uint8 = 0x80
	CC        uint8 = 0xB0
	PitchBend uint8 = 0xE0
)

// Event is a decoded channel message. For CC, Note carries the controller
// number and Velocity its value.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC, PitchBend
	Channel  uint8
	Note     uint8
	Velocity uint8
	Bend     int16 // PitchBend only, -8192..8191
}
