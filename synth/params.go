package synth

import (
	"math"
	"time"
)

// MIDI CC numbers the synth responds to
const (
	CCMixer1     uint8 = 100
	CCMixer2     uint8 = 101
	CCMixer3     uint8 = 102
	CCMixer4     uint8 = 103
	CCOctave     uint8 = 104
	CCAttack     uint8 = 105
	CCDecay      uint8 = 106
	CCSustain    uint8 = 107
	CCRelease    uint8 = 108
	CCOsc1       uint8 = 109
	CCOsc2       uint8 = 110
	CCDetune     uint8 = 111
	CCFilterFreq uint8 = 112
	CCFilterRes  uint8 = 113
	CCBendRange  uint8 = 114
	CCLFOSpeed   uint8 = 115
	CCLFODepth   uint8 = 116
	CCLFOMode    uint8 = 117
)

// Effect is the kind of parameter a control changes
type Effect int

const (
	EffectMixerGain Effect = iota
	EffectOctave
	EffectEnvelope
	EffectWaveform
	EffectDetune
	EffectCutoff
	EffectResonance
	EffectBendRange
	EffectLFOSpeed
	EffectLFODepth
	EffectLFOMode
)

// Target receives the setters the parameter map dispatches to
type Target interface {
	SetMixerGain(channel int, gain float64)
	SetOctave(semitones int)
	SetEnvelope(stage Stage, value float64)
	SetWaveform(lane Lane, w Waveform)
	SetDetune(factor float64)
	// SetCutoff takes the knob position 0-1 and the cutoff it selects
	SetCutoff(norm, hz float64)
	SetResonance(q float64)
	SetBendRange(semitones int)
	SetLFORate(rate time.Duration)
	SetLFODepth(depth float64)
	SetLFOMode(m Mode)
}

// Scale maps a 0-127 controller value to Scale*raw/127 + Offset. If
// Max > Min the result is clamped to [Min, Max].
type Scale struct {
	Scale, Offset float64
	Min, Max      float64
}

func (s Scale) Apply(raw uint8) float64 {
	v := s.Scale*float64(raw)/127 + s.Offset
	if s.Max > s.Min {
		v = math.Max(s.Min, math.Min(s.Max, v))
	}
	return v
}

// Control is one entry in the parameter map
type Control struct {
	CC     uint8
	Name   string
	Effect Effect
	Index  int // mixer channel, envelope stage or lane, depending on Effect
	Scale  Scale
}

// Octave steps selectable by the octave control, in controller order
var OctaveSteps = [...]int{24, 12, 0, -12, -24}

// Waveforms selectable by the oscillator controls, in controller order
var Waveforms = [...]Waveform{WaveSine, WaveTriangle, WaveSawtooth, WavePulse}

// Bend range limits in semitones
const (
	MinBendRange = 1
	MaxBendRange = 12
)

// LFO speed control: period = lfoSpeedMax * 100^(raw/127 - 1)
const lfoSpeedMax = 70000 * time.Microsecond

var unit = Scale{Scale: 1, Min: 0, Max: 1}

// DefaultControls is the CC assignment of the synth
var DefaultControls = []Control{
	{CC: CCMixer1, Name: "mixer osc1", Effect: EffectMixerGain, Index: MixerOsc1, Scale: unit},
	{CC: CCMixer2, Name: "mixer osc2", Effect: EffectMixerGain, Index: MixerOsc2, Scale: unit},
	{CC: CCMixer3, Name: "mixer noise", Effect: EffectMixerGain, Index: MixerNoise, Scale: unit},
	{CC: CCMixer4, Name: "mixer sub", Effect: EffectMixerGain, Index: MixerSub, Scale: unit},
	{CC: CCOctave, Name: "octave", Effect: EffectOctave},
	{CC: CCAttack, Name: "attack", Effect: EffectEnvelope, Index: int(StageAttack),
		Scale: Scale{Scale: 3000, Offset: 10.5, Min: 10.5, Max: 3010.5}},
	{CC: CCDecay, Name: "decay", Effect: EffectEnvelope, Index: int(StageDecay),
		Scale: Scale{Scale: 3000, Min: 0, Max: 3000}},
	{CC: CCSustain, Name: "sustain", Effect: EffectEnvelope, Index: int(StageSustain), Scale: unit},
	{CC: CCRelease, Name: "release", Effect: EffectEnvelope, Index: int(StageRelease),
		Scale: Scale{Scale: 3000, Min: 0, Max: 3000}},
	{CC: CCOsc1, Name: "osc1 wave", Effect: EffectWaveform, Index: int(LaneMain)},
	{CC: CCOsc2, Name: "osc2 wave", Effect: EffectWaveform, Index: int(LaneDetuned)},
	{CC: CCDetune, Name: "detune", Effect: EffectDetune, Scale: Scale{Scale: -0.05, Offset: 1, Min: 0.95, Max: 1}},
	{CC: CCFilterFreq, Name: "filter freq", Effect: EffectCutoff, Scale: unit},
	{CC: CCFilterRes, Name: "filter res", Effect: EffectResonance, Scale: Scale{Scale: 4.3, Offset: 0.7, Min: 0.7, Max: 5}},
	{CC: CCBendRange, Name: "bend range", Effect: EffectBendRange},
	{CC: CCLFOSpeed, Name: "lfo speed", Effect: EffectLFOSpeed},
	{CC: CCLFODepth, Name: "lfo depth", Effect: EffectLFODepth, Scale: unit},
	{CC: CCLFOMode, Name: "lfo mode", Effect: EffectLFOMode},
}

// ParamMap dispatches controller changes to a Target
type ParamMap struct {
	controls [128]*Control
}

// NewParamMap builds a map from a control table. Later entries win when
// two share a CC number.
func NewParamMap(controls []Control) *ParamMap {
	m := &ParamMap{}
	for i := range controls {
		c := controls[i]
		if c.CC > 127 {
			continue
		}
		m.controls[c.CC] = &c
	}
	return m
}

// Lookup returns the control bound to a CC number
func (m *ParamMap) Lookup(cc uint8) (Control, bool) {
	if cc > 127 || m.controls[cc] == nil {
		return Control{}, false
	}
	return *m.controls[cc], true
}

// Apply runs the control bound to cc with a 0-127 value. Returns false
// when the CC is not mapped. Values a control cannot use are dropped
// without touching the target.
func (m *ParamMap) Apply(t Target, cc, raw uint8) bool {
	c, ok := m.Lookup(cc)
	if !ok {
		return false
	}
	if raw > 127 {
		raw = 127
	}

	switch c.Effect {
	case EffectMixerGain:
		t.SetMixerGain(c.Index, c.Scale.Apply(raw))
	case EffectOctave:
		if int(raw) < len(OctaveSteps) {
			t.SetOctave(OctaveSteps[raw])
		}
	case EffectEnvelope:
		t.SetEnvelope(Stage(c.Index), c.Scale.Apply(raw))
	case EffectWaveform:
		if int(raw) < len(Waveforms) {
			t.SetWaveform(Lane(c.Index), Waveforms[raw])
		}
	case EffectDetune:
		t.SetDetune(c.Scale.Apply(raw))
	case EffectCutoff:
		norm := c.Scale.Apply(raw)
		t.SetCutoff(norm, math.Trunc(cutoffScale*norm))
	case EffectResonance:
		t.SetResonance(c.Scale.Apply(raw))
	case EffectBendRange:
		if raw >= MinBendRange && raw <= MaxBendRange {
			t.SetBendRange(int(raw))
		}
	case EffectLFOSpeed:
		t.SetLFORate(LFORate(raw))
	case EffectLFODepth:
		t.SetLFODepth(c.Scale.Apply(raw))
	case EffectLFOMode:
		if mode, ok := ModeFromCode(raw); ok {
			t.SetLFOMode(mode)
		}
	}
	return true
}

// LFORate converts the speed control value to a sweep step period,
// from 700us at 0 to 70ms at 127
func LFORate(raw uint8) time.Duration {
	x := float64(raw)/127 - 1
	us := math.Trunc(float64(lfoSpeedMax/time.Microsecond) * math.Pow(100, x))
	return time.Duration(us) * time.Microsecond
}
