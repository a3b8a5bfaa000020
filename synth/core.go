package synth

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leighmurray/teensynth/midi"
)

// Playable note range, exclusive at both ends
const (
	LowestNote  = 23
	HighestNote = 108
)

// Power-on patch, pushed by Start before settings are applied
const (
	defaultBendRange = 12
	defaultCutoffHz  = 10000
	defaultResonance = 0.7
	defaultAttackMs  = 1
	defaultReleaseMs = 500
)

// Settings are the persisted raw controller values, 0-127 each
type Settings struct {
	Attack     uint8 `json:"attack"`
	Decay      uint8 `json:"decay"`
	Sustain    uint8 `json:"sustain"`
	Release    uint8 `json:"release"`
	MixerOsc1  uint8 `json:"mixerOsc1"`
	MixerOsc2  uint8 `json:"mixerOsc2"`
	MixerNoise uint8 `json:"mixerNoise"`
	MixerSub   uint8 `json:"mixerSub"`
}

// DefaultSettings are used when nothing has been saved yet
func DefaultSettings() Settings {
	return Settings{
		Attack:     1,
		Decay:      0,
		Sustain:    127,
		Release:    1,
		MixerOsc1:  127,
		MixerOsc2:  127,
		MixerNoise: 0,
		MixerSub:   127,
	}
}

// slots pairs each setting with the control that applies it
func (s *Settings) slots() []struct {
	cc  uint8
	val *uint8
} {
	return []struct {
		cc  uint8
		val *uint8
	}{
		{CCAttack, &s.Attack},
		{CCDecay, &s.Decay},
		{CCSustain, &s.Sustain},
		{CCRelease, &s.Release},
		{CCMixer1, &s.MixerOsc1},
		{CCMixer2, &s.MixerOsc2},
		{CCMixer3, &s.MixerNoise},
		{CCMixer4, &s.MixerSub},
	}
}

// Core is the monophonic control core. It owns the note stack, the voice
// and the LFO and turns incoming MIDI events into chain writes.
//
// Core is not safe for concurrent use. Feed it from one goroutine, see Loop.
type Core struct {
	chain  Chain
	params *ParamMap
	now    func() time.Time

	stack  NoteStack
	voice  *Voice
	lfo    *LFO
	filter Filter

	bendRange int
	bendValue int16
	velocity  uint8

	// last value applied per CC, for saving settings
	raw  [128]uint8
	seen [128]bool
}

// Option configures a Core
type Option func(*Core)

// WithClock replaces time.Now for LFO timing
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// WithControls replaces the default CC assignment
func WithControls(controls []Control) Option {
	return func(c *Core) { c.params = NewParamMap(controls) }
}

// NewCore creates a core driving chain. Call Start to push the initial
// patch.
func NewCore(chain Chain, opts ...Option) *Core {
	c := &Core{
		chain:     chain,
		params:    NewParamMap(DefaultControls),
		now:       time.Now,
		bendRange: defaultBendRange,
		filter:    Filter{Norm: 1, Hz: defaultCutoffHz},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.voice = NewVoice(chain)
	c.lfo = NewLFO(c.voice, &c.filter, chain)
	return c
}

// Start writes the power-on patch to the chain
func (c *Core) Start() {
	c.chain.SetWaveform(LaneMain, WaveSawtooth)
	c.chain.SetWaveform(LaneDetuned, WaveSawtooth)
	c.chain.SetWaveform(LaneSub, WaveSquare)
	for l := Lane(0); l < NumLanes; l++ {
		c.chain.SetAmplitude(l, MaxAmplitude)
	}
	c.chain.SetNoiseAmplitude(1)

	c.chain.SetMixerGain(MixerOsc1, 1)
	c.chain.SetMixerGain(MixerOsc2, 1)
	c.chain.SetMixerGain(MixerNoise, 0)
	c.chain.SetMixerGain(MixerSub, 1)

	c.chain.SetEnvelope(StageAttack, defaultAttackMs)
	c.chain.SetEnvelope(StageDecay, 0)
	c.chain.SetEnvelope(StageSustain, 1)
	c.chain.SetEnvelope(StageRelease, defaultReleaseMs)

	c.chain.SetCutoff(c.filter.Hz)
	c.chain.SetResonance(defaultResonance)
}

// ApplySettings seeds the persisted slots through their controls
func (c *Core) ApplySettings(s Settings) {
	for _, slot := range s.slots() {
		c.ControlChange(slot.cc, *slot.val)
	}
}

// Settings returns the current value of every persisted slot. Slots
// whose control has not been touched keep their defaults.
func (c *Core) Settings() Settings {
	s := DefaultSettings()
	for _, slot := range s.slots() {
		if c.seen[slot.cc] {
			*slot.val = c.raw[slot.cc]
		}
	}
	return s
}

// HandleEvent dispatches a decoded MIDI event
func (c *Core) HandleEvent(ev midi.Event) {
	switch ev.Type {
	case midi.NoteOn:
		c.NoteOn(ev.Note, ev.Velocity)
	case midi.NoteOff:
		c.NoteOff(ev.Note)
	case midi.CC:
		c.ControlChange(ev.Note, ev.Velocity)
	case midi.PitchBend:
		c.PitchBend(ev.Bend)
	}
}

// NoteOn presses a key. Notes outside the playable range and presses
// while the stack is full are ignored. Velocity 0 is a release.
func (c *Core) NoteOn(note, velocity uint8) {
	if note <= LowestNote || note >= HighestNote {
		return
	}
	if velocity == 0 {
		c.NoteOff(note)
		return
	}
	if !c.stack.Press(note) {
		return
	}
	c.velocity = velocity
	c.voice.NoteEngaged(note, velocity)
	c.lfo.Retrigger()
	c.lfo.Tick(c.now())
}

// NoteOff releases a key. If another key is still held it takes over
// with the last played velocity.
func (c *Core) NoteOff(note uint8) {
	if note <= LowestNote || note >= HighestNote {
		return
	}
	if !c.stack.Contains(note) {
		return
	}
	prev, _ := c.stack.Top()
	top, ok := c.stack.Release(note)
	switch {
	case !ok:
		c.voice.NoteReleased()
	case top != prev:
		c.voice.NoteEngaged(top, c.velocity)
	}
}

// PitchBend sets the bend from a signed 14-bit wheel value, 0 = centre
func (c *Core) PitchBend(value int16) {
	c.bendValue = value
	c.voice.Bend = BendFactor(value, c.bendRange)
	c.voice.RefreshPitch()
}

// BendFactor converts a wheel value to a frequency multiplier spanning
// ±semitones at full deflection
func BendFactor(value int16, semitones int) float64 {
	return math.Pow(2, float64(value)/8192*float64(semitones)/12)
}

// ControlChange applies a controller through the parameter map
func (c *Core) ControlChange(cc, value uint8) {
	if c.params.Apply(c, cc, value) {
		c.raw[cc] = value
		c.seen[cc] = true
	}
}

// Tick advances the LFO. Call it on every loop iteration.
func (c *Core) Tick() {
	c.lfo.Tick(c.now())
}

// Target implementation, called by the parameter map

func (c *Core) SetMixerGain(channel int, gain float64) {
	c.chain.SetMixerGain(channel, gain)
}

func (c *Core) SetOctave(semitones int) {
	c.voice.DetunedOctave = semitones
	c.voice.RefreshPitch()
}

func (c *Core) SetEnvelope(stage Stage, value float64) {
	c.chain.SetEnvelope(stage, value)
}

func (c *Core) SetWaveform(lane Lane, w Waveform) {
	c.chain.SetWaveform(lane, w)
}

func (c *Core) SetDetune(factor float64) {
	c.voice.Detune = factor
	c.voice.RefreshPitch()
}

// SetCutoff stores the knob cutoff. It reaches the filter right away
// only while the LFO is not sweeping it.
func (c *Core) SetCutoff(norm, hz float64) {
	c.filter = Filter{Norm: norm, Hz: hz}
	if !c.lfo.Mode.DrivesFilter() {
		c.chain.SetCutoff(hz)
	}
}

func (c *Core) SetResonance(q float64) {
	c.chain.SetResonance(q)
}

// SetBendRange rescales the current wheel position to the new range
func (c *Core) SetBendRange(semitones int) {
	c.bendRange = semitones
	c.voice.Bend = BendFactor(c.bendValue, semitones)
	c.voice.RefreshPitch()
}

func (c *Core) SetLFORate(rate time.Duration) {
	c.lfo.Rate = rate
}

func (c *Core) SetLFODepth(depth float64) {
	c.lfo.Depth = depth
}

// SetLFOMode switches the LFO. The reset for the new mode runs on the
// next effective tick.
func (c *Core) SetLFOMode(m Mode) {
	c.lfo.Mode = m
}

// Status is a read-only view of the core for display
type Status struct {
	Held      []uint8
	Note      uint8
	Sounding  bool
	Velocity  uint8
	BendRange int
	Bend      float64
	Octave    int
	Detune    float64
	Mode      Mode
	Phase     float64
	Falling   bool
	Holding   bool
	Rate      time.Duration
	Depth     float64
	CutoffHz  float64
}

// Status captures the current state
func (c *Core) Status() Status {
	note, _ := c.stack.Top()
	phase, falling := c.lfo.Phase()
	return Status{
		Held:      c.stack.Notes(),
		Note:      note,
		Sounding:  c.stack.Len() > 0,
		Velocity:  c.velocity,
		BendRange: c.bendRange,
		Bend:      c.voice.Bend,
		Octave:    c.voice.DetunedOctave,
		Detune:    c.voice.Detune,
		Mode:      c.lfo.Mode,
		Phase:     phase,
		Falling:   falling,
		Holding:   c.lfo.Stopped(),
		Rate:      c.lfo.Rate,
		Depth:     c.lfo.Depth,
		CutoffHz:  c.filter.Hz,
	}
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a note number as e.g. "C4" (60)
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// String renders the status as display text
func (s Status) String() string {
	var b strings.Builder
	if s.Sounding {
		fmt.Fprintf(&b, "note %-4s vel %3d", NoteName(s.Note), s.Velocity)
	} else {
		b.WriteString("note --   vel  --")
	}
	held := make([]string, len(s.Held))
	for i, n := range s.Held {
		held[i] = NoteName(n)
	}
	fmt.Fprintf(&b, "  held [%s]\n", strings.Join(held, " "))
	fmt.Fprintf(&b, "octave %+d  detune %.3f  bend %.3f (±%d)\n", s.Octave, s.Detune, s.Bend, s.BendRange)
	dir := "up"
	if s.Falling {
		dir = "down"
	}
	hold := ""
	if s.Holding {
		hold = " hold"
	}
	fmt.Fprintf(&b, "lfo %-13s phase %.2f %-4s%s  rate %v  depth %.2f", s.Mode, s.Phase, dir, hold, s.Rate, s.Depth)
	return b.String()
}
