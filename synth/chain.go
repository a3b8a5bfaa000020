package synth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/leighmurray/teensynth/debug"
)

// Lane identifies one of the three oscillators summed before the filter
type Lane int

const (
	LaneMain    Lane = iota // oscillator 1
	LaneDetuned             // oscillator 2, follows octave and detune
	LaneSub                 // one octave under the main lane
	NumLanes
)

func (l Lane) String() string {
	switch l {
	case LaneMain:
		return "main"
	case LaneDetuned:
		return "detuned"
	case LaneSub:
		return "sub"
	}
	return fmt.Sprintf("lane(%d)", int(l))
}

// Mixer inputs, in the order they are wired into the mixer
const (
	MixerOsc1 = iota
	MixerOsc2
	MixerNoise
	MixerSub
	NumMixerChannels
)

// Waveform is an oscillator shape
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSawtooth
	WavePulse
	WaveSquare // sub lane only, not selectable
)

var waveNames = [...]string{"sine", "triangle", "saw", "pulse", "square"}

func (w Waveform) String() string {
	if w >= 0 && int(w) < len(waveNames) {
		return waveNames[w]
	}
	return fmt.Sprintf("wave(%d)", int(w))
}

// Stage is an amplitude envelope stage
type Stage int

const (
	StageAttack Stage = iota
	StageDecay
	StageSustain
	StageRelease
	NumStages
)

var stageNames = [...]string{"attack", "decay", "sustain", "release"}

func (s Stage) String() string {
	if s >= 0 && s < NumStages {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Chain is the signal-processing chain the core drives. It is write-only:
// the core never reads a parameter back.
type Chain interface {
	SetFrequency(lane Lane, hz float64)
	SetAmplitude(lane Lane, amp float64)
	SetNoiseAmplitude(amp float64)
	SetWaveform(lane Lane, w Waveform)
	SetMixerGain(channel int, gain float64)
	// SetEnvelope takes milliseconds for timed stages and a 0-1 level for sustain
	SetEnvelope(stage Stage, value float64)
	SetCutoff(hz float64)
	SetResonance(q float64)
	NoteOn()
	NoteOff()
}

// ChainParams is the last value written to every chain parameter
type ChainParams struct {
	Frequency  [NumLanes]float64
	Amplitude  [NumLanes]float64
	Noise      float64
	Waveform   [NumLanes]Waveform
	MixerGain  [NumMixerChannels]float64
	Envelope   [NumStages]float64
	Cutoff     float64
	Resonance  float64
	Gate       bool
	NoteOns    int
	NoteOffs   int
	Writes     int
	CutoffSets int
}

// ChainState is a Chain that records every write into ChainParams. Safe
// to read from another goroutine while the core writes.
type ChainState struct {
	mu sync.RWMutex
	p  ChainParams
}

func NewChainState() *ChainState {
	return &ChainState{}
}

func (c *ChainState) SetFrequency(lane Lane, hz float64) {
	if lane < 0 || lane >= NumLanes {
		return
	}
	c.mu.Lock()
	c.p.Frequency[lane] = hz
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetAmplitude(lane Lane, amp float64) {
	if lane < 0 || lane >= NumLanes {
		return
	}
	c.mu.Lock()
	c.p.Amplitude[lane] = amp
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetNoiseAmplitude(amp float64) {
	c.mu.Lock()
	c.p.Noise = amp
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetWaveform(lane Lane, w Waveform) {
	if lane < 0 || lane >= NumLanes {
		return
	}
	c.mu.Lock()
	c.p.Waveform[lane] = w
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetMixerGain(channel int, gain float64) {
	if channel < 0 || channel >= NumMixerChannels {
		return
	}
	c.mu.Lock()
	c.p.MixerGain[channel] = gain
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetEnvelope(stage Stage, value float64) {
	if stage < 0 || stage >= NumStages {
		return
	}
	c.mu.Lock()
	c.p.Envelope[stage] = value
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetCutoff(hz float64) {
	c.mu.Lock()
	c.p.Cutoff = hz
	c.p.CutoffSets++
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) SetResonance(q float64) {
	c.mu.Lock()
	c.p.Resonance = q
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) NoteOn() {
	c.mu.Lock()
	c.p.Gate = true
	c.p.NoteOns++
	c.p.Writes++
	c.mu.Unlock()
}

func (c *ChainState) NoteOff() {
	c.mu.Lock()
	c.p.Gate = false
	c.p.NoteOffs++
	c.p.Writes++
	c.mu.Unlock()
}

// Snapshot returns a copy of the recorded parameters
func (c *ChainState) Snapshot() ChainParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.p
}

// String renders the chain parameters as display text
func (c *ChainState) String() string {
	return c.Snapshot().String()
}

func (s ChainParams) String() string {
	var b strings.Builder
	gate := "off"
	if s.Gate {
		gate = "on"
	}
	fmt.Fprintf(&b, "gate %-3s  cutoff %7.1fHz  res %.2f\n", gate, s.Cutoff, s.Resonance)
	for l := Lane(0); l < NumLanes; l++ {
		fmt.Fprintf(&b, "%-8s %-8s %8.2fHz  amp %.2f\n", l, s.Waveform[l], s.Frequency[l], s.Amplitude[l])
	}
	fmt.Fprintf(&b, "mix %.2f %.2f %.2f %.2f  noise %.2f\n",
		s.MixerGain[MixerOsc1], s.MixerGain[MixerOsc2], s.MixerGain[MixerNoise], s.MixerGain[MixerSub], s.Noise)
	fmt.Fprintf(&b, "env A %.1fms D %.1fms S %.2f R %.1fms",
		s.Envelope[StageAttack], s.Envelope[StageDecay], s.Envelope[StageSustain], s.Envelope[StageRelease])
	return b.String()
}

// LoggedChain forwards every write to Next and logs it under the "chain"
// debug category. Frequency writes are high rate while the LFO drives
// pitch, so they are sampled.
type LoggedChain struct {
	Next Chain
}

func (l LoggedChain) SetFrequency(lane Lane, hz float64) {
	debug.LogEvery(64, "chain", "freq %s=%.2f", lane, hz)
	l.Next.SetFrequency(lane, hz)
}

func (l LoggedChain) SetAmplitude(lane Lane, amp float64) {
	debug.Log("chain", "amp %s=%.3f", lane, amp)
	l.Next.SetAmplitude(lane, amp)
}

func (l LoggedChain) SetNoiseAmplitude(amp float64) {
	debug.Log("chain", "noise amp=%.3f", amp)
	l.Next.SetNoiseAmplitude(amp)
}

func (l LoggedChain) SetWaveform(lane Lane, w Waveform) {
	debug.Log("chain", "wave %s=%s", lane, w)
	l.Next.SetWaveform(lane, w)
}

func (l LoggedChain) SetMixerGain(channel int, gain float64) {
	debug.Log("chain", "mixer %d=%.3f", channel, gain)
	l.Next.SetMixerGain(channel, gain)
}

func (l LoggedChain) SetEnvelope(stage Stage, value float64) {
	debug.Log("chain", "env %s=%.2f", stage, value)
	l.Next.SetEnvelope(stage, value)
}

func (l LoggedChain) SetCutoff(hz float64) {
	debug.LogEvery(64, "chain", "cutoff=%.1f", hz)
	l.Next.SetCutoff(hz)
}

func (l LoggedChain) SetResonance(q float64) {
	debug.Log("chain", "res=%.2f", q)
	l.Next.SetResonance(q)
}

func (l LoggedChain) NoteOn() {
	debug.Log("chain", "note on")
	l.Next.NoteOn()
}

func (l LoggedChain) NoteOff() {
	debug.Log("chain", "note off")
	l.Next.NoteOff()
}
