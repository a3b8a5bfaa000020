package synth

import "math"

// MaxAmplitude caps lane amplitude at full velocity to leave headroom
// in the mixer
const MaxAmplitude = 0.75

// Lane offsets in semitones. The sub lane always sits an octave under
// the main lane; only the detuned lane follows the octave control.
const (
	mainOctave = 0
	subOctave  = -12
)

// noteFreqs is the equal-tempered note table, A0 (note 21) = 27.5 Hz
var noteFreqs = func() [128]float64 {
	var t [128]float64
	for n := range t {
		t[n] = 27.5 * math.Pow(2, float64(n-21)/12)
	}
	return t
}()

// NoteFrequency returns the table frequency for a note number. Indices
// outside the table are clamped to its ends.
func NoteFrequency(note int) float64 {
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return noteFreqs[note]
}

// Voice computes lane pitch and level for the sounding note and drives
// the envelope gate. Pitch modifiers are fields so the core and the LFO
// can change them and call RefreshPitch.
type Voice struct {
	chain Chain

	note     uint8
	velocity uint8
	hasNote  bool

	DetunedOctave int     // semitones, set by the octave control
	Detune        float64 // multiplier on the detuned lane, 0.95-1
	Bend          float64 // pitch-bend multiplier, 1 = centre
	LFOPitch      float64 // LFO pitch multiplier, 1 = none
}

// NewVoice creates a voice with neutral modifiers
func NewVoice(chain Chain) *Voice {
	return &Voice{
		chain:    chain,
		Detune:   1,
		Bend:     1,
		LFOPitch: 1,
	}
}

// NoteEngaged makes note the sounding note and opens the envelope
func (v *Voice) NoteEngaged(note, velocity uint8) {
	v.note = note
	v.velocity = velocity
	v.hasNote = true
	v.setFrequencies()

	amp := MaxAmplitude * float64(velocity) / 127
	for l := Lane(0); l < NumLanes; l++ {
		v.chain.SetAmplitude(l, amp)
	}
	v.chain.SetNoiseAmplitude(amp)
	v.chain.NoteOn()
}

// NoteReleased closes the envelope. Frequencies are left alone so the
// release stage fades the last pitch.
func (v *Voice) NoteReleased() {
	v.chain.NoteOff()
}

// RefreshPitch rewrites the lane frequencies without touching the gate
func (v *Voice) RefreshPitch() {
	if !v.hasNote {
		return
	}
	v.setFrequencies()
}

// Note returns the last engaged note and its velocity
func (v *Voice) Note() (note, velocity uint8, ok bool) {
	return v.note, v.velocity, v.hasNote
}

// Frequency returns what the given lane is tuned to for the current note
func (v *Voice) Frequency(lane Lane) float64 {
	n := int(v.note)
	mod := v.Bend * v.LFOPitch
	switch lane {
	case LaneMain:
		return NoteFrequency(n+mainOctave) * mod
	case LaneDetuned:
		return NoteFrequency(n+v.DetunedOctave) * v.Detune * mod
	case LaneSub:
		return NoteFrequency(n+mainOctave+subOctave) * mod
	}
	return 0
}

func (v *Voice) setFrequencies() {
	for l := Lane(0); l < NumLanes; l++ {
		v.chain.SetFrequency(l, v.Frequency(l))
	}
}
