package synth

import (
	"math"
	"testing"
	"time"

	"github.com/leighmurray/teensynth/midi"
)

func newTestCore() (*Core, *ChainState, *fakeClock) {
	chain := NewChainState()
	clock := newFakeClock(10 * time.Millisecond)
	return NewCore(chain, WithClock(clock.Now)), chain, clock
}

func TestCoreStart(t *testing.T) {
	c, chain, _ := newTestCore()
	c.Start()
	p := chain.Snapshot()

	wantWave := [NumLanes]Waveform{WaveSawtooth, WaveSawtooth, WaveSquare}
	if p.Waveform != wantWave {
		t.Errorf("waveforms = %v, want %v", p.Waveform, wantWave)
	}
	wantMix := [NumMixerChannels]float64{1, 1, 0, 1}
	if p.MixerGain != wantMix {
		t.Errorf("mixer = %v, want %v", p.MixerGain, wantMix)
	}
	wantEnv := [NumStages]float64{1, 0, 1, 500}
	if p.Envelope != wantEnv {
		t.Errorf("envelope = %v, want %v", p.Envelope, wantEnv)
	}
	if p.Cutoff != 10000 || p.Resonance != 0.7 {
		t.Errorf("filter = %vHz q %v, want 10000Hz q 0.7", p.Cutoff, p.Resonance)
	}
	if p.Gate || p.NoteOns != 0 {
		t.Error("Start opened the gate")
	}
}

func TestCoreLastNotePriority(t *testing.T) {
	c, chain, _ := newTestCore()

	c.NoteOn(60, 100)
	c.NoteOn(64, 90)
	if got := chain.Snapshot().Frequency[LaneMain]; !approx(got, NoteFrequency(64)) {
		t.Fatalf("main = %v, want E4", got)
	}

	c.NoteOff(64)
	p := chain.Snapshot()
	if !approx(p.Frequency[LaneMain], NoteFrequency(60)) {
		t.Errorf("main = %v, want C4 after release", p.Frequency[LaneMain])
	}
	if p.NoteOns != 3 {
		t.Errorf("noteOns = %d, want 3", p.NoteOns)
	}
	// The re-engaged note uses the last played velocity
	if want := MaxAmplitude * 90 / 127; !approx(p.Amplitude[LaneMain], want) {
		t.Errorf("amplitude = %v, want %v", p.Amplitude[LaneMain], want)
	}

	c.NoteOff(60)
	p = chain.Snapshot()
	if p.Gate || p.NoteOffs != 1 {
		t.Errorf("gate = %v noteOffs = %d, want closed once", p.Gate, p.NoteOffs)
	}
	if !approx(p.Frequency[LaneMain], NoteFrequency(60)) {
		t.Errorf("release changed pitch to %v", p.Frequency[LaneMain])
	}
}

func TestCoreReleaseBuriedNote(t *testing.T) {
	c, chain, _ := newTestCore()
	c.NoteOn(60, 100)
	c.NoteOn(64, 100)
	c.NoteOff(60)

	p := chain.Snapshot()
	if p.NoteOns != 2 || p.NoteOffs != 0 {
		t.Errorf("noteOns %d noteOffs %d, want 2 and 0", p.NoteOns, p.NoteOffs)
	}
	if !approx(p.Frequency[LaneMain], NoteFrequency(64)) {
		t.Errorf("main = %v, want E4", p.Frequency[LaneMain])
	}
}

func TestCoreNoteRange(t *testing.T) {
	tests := []struct {
		note  uint8
		plays bool
	}{
		{0, false},
		{LowestNote, false},
		{LowestNote + 1, true},
		{HighestNote - 1, true},
		{HighestNote, false},
		{127, false},
	}
	for _, tt := range tests {
		c, chain, _ := newTestCore()
		c.NoteOn(tt.note, 100)
		if got := chain.Snapshot().NoteOns == 1; got != tt.plays {
			t.Errorf("note %d played = %v, want %v", tt.note, got, tt.plays)
		}
		if !tt.plays && chain.Snapshot().Writes != 0 {
			t.Errorf("note %d wrote to the chain", tt.note)
		}
	}
}

func TestCoreVelocityZeroReleases(t *testing.T) {
	c, chain, _ := newTestCore()
	c.NoteOn(60, 100)
	c.NoteOn(60, 0)

	p := chain.Snapshot()
	if p.Gate || p.NoteOffs != 1 {
		t.Errorf("gate = %v noteOffs = %d", p.Gate, p.NoteOffs)
	}
}

func TestCoreFullStack(t *testing.T) {
	c, chain, _ := newTestCore()
	for i := 0; i < StackSize; i++ {
		c.NoteOn(uint8(40+i), 100)
	}
	c.NoteOn(80, 100)

	p := chain.Snapshot()
	if p.NoteOns != StackSize {
		t.Errorf("noteOns = %d, want %d", p.NoteOns, StackSize)
	}
	if !approx(p.Frequency[LaneMain], NoteFrequency(40+StackSize-1)) {
		t.Errorf("dropped press changed the pitch")
	}

	// Releasing the dropped key does nothing
	c.NoteOff(80)
	if p2 := chain.Snapshot(); p2.Writes != p.Writes {
		t.Errorf("release of dropped note wrote %d params", p2.Writes-p.Writes)
	}
}

func TestCoreCutoffFollowsLFOMode(t *testing.T) {
	c, chain, clock := newTestCore()
	c.Start()

	c.ControlChange(CCFilterFreq, 64)
	if got := chain.Snapshot().Cutoff; got != 5039 {
		t.Fatalf("cutoff = %v, want 5039", got)
	}

	c.ControlChange(CCLFOMode, 1) // filter free
	c.Tick()

	sets := chain.Snapshot().CutoffSets
	c.ControlChange(CCFilterFreq, 127)
	if got := chain.Snapshot().CutoffSets; got != sets {
		t.Errorf("cutoff written while the LFO drives the filter")
	}
	if got := c.Status().CutoffHz; got != 10000 {
		t.Errorf("stored cutoff = %v, want 10000", got)
	}

	c.ControlChange(CCLFOMode, 0)
	clock.next()
	c.Tick()
	if got := chain.Snapshot().Cutoff; got != 10000 {
		t.Errorf("cutoff after LFO off = %v, want 10000", got)
	}

	// Pitch modes leave the filter to the knob
	c.ControlChange(CCLFOMode, 9)
	c.ControlChange(CCFilterFreq, 0)
	if got := chain.Snapshot().Cutoff; got != 0 {
		t.Errorf("cutoff = %v, want 0", got)
	}
}

func TestCoreSettings(t *testing.T) {
	c, chain, _ := newTestCore()
	if got := c.Settings(); got != DefaultSettings() {
		t.Errorf("fresh Settings() = %+v, want defaults", got)
	}

	s := Settings{
		Attack:     127,
		Decay:      64,
		Sustain:    100,
		Release:    10,
		MixerOsc1:  127,
		MixerOsc2:  50,
		MixerNoise: 20,
		MixerSub:   0,
	}
	c.ApplySettings(s)
	if got := c.Settings(); got != s {
		t.Errorf("Settings() = %+v, want %+v", got, s)
	}

	p := chain.Snapshot()
	if !approx(p.Envelope[StageAttack], 3010.5) {
		t.Errorf("attack = %v, want 3010.5", p.Envelope[StageAttack])
	}
	if want := 50.0 / 127; !approx(p.MixerGain[MixerOsc2], want) {
		t.Errorf("osc2 gain = %v, want %v", p.MixerGain[MixerOsc2], want)
	}

	// Later knob moves are picked up
	c.ControlChange(CCRelease, 99)
	if got := c.Settings().Release; got != 99 {
		t.Errorf("release = %d, want 99", got)
	}
}

func TestBendFactor(t *testing.T) {
	tests := []struct {
		value     int16
		semitones int
		want      float64
	}{
		{0, 12, 1},
		{-8192, 12, 0.5},
		{-8192, 2, math.Pow(2, -2.0/12)},
		{4096, 12, math.Sqrt2},
	}
	for _, tt := range tests {
		if got := BendFactor(tt.value, tt.semitones); !approx(got, tt.want) {
			t.Errorf("BendFactor(%d, %d) = %v, want %v", tt.value, tt.semitones, got, tt.want)
		}
	}
}

func TestCorePitchBend(t *testing.T) {
	c, chain, _ := newTestCore()
	c.NoteOn(69, 100)

	c.PitchBend(-8192)
	if got := chain.Snapshot().Frequency[LaneMain]; !approx(got, 220) {
		t.Errorf("main = %v, want 220", got)
	}

	// Narrowing the range rescales the held wheel
	c.ControlChange(CCBendRange, 2)
	if got, want := chain.Snapshot().Frequency[LaneMain], 440*math.Pow(2, -2.0/12); !approx(got, want) {
		t.Errorf("main = %v, want %v", got, want)
	}

	c.PitchBend(0)
	if got := chain.Snapshot().Frequency[LaneMain]; !approx(got, 440) {
		t.Errorf("main = %v, want 440", got)
	}
	if got := chain.Snapshot().NoteOns; got != 1 {
		t.Errorf("bend retriggered the envelope, noteOns = %d", got)
	}
}

func TestCoreOctaveAndDetune(t *testing.T) {
	c, chain, _ := newTestCore()
	c.NoteOn(60, 100)

	c.ControlChange(CCOctave, 0)
	c.ControlChange(CCDetune, 127)
	p := chain.Snapshot()
	if want := NoteFrequency(84) * 0.95; !approx(p.Frequency[LaneDetuned], want) {
		t.Errorf("detuned = %v, want %v", p.Frequency[LaneDetuned], want)
	}
	if !approx(p.Frequency[LaneSub], NoteFrequency(48)) {
		t.Errorf("sub = %v, want C3", p.Frequency[LaneSub])
	}

	// Values past the last step are ignored
	c.ControlChange(CCOctave, 9)
	if got := c.Status().Octave; got != 24 {
		t.Errorf("octave = %d, want 24", got)
	}
}

func TestCoreHandleEvent(t *testing.T) {
	c, chain, _ := newTestCore()
	events := []midi.Event{
		{Type: midi.CC, Note: CCOsc1, Velocity: 1},
		{Type: midi.NoteOn, Note: 69, Velocity: 127},
		{Type: midi.PitchBend, Bend: -8192},
		{Type: midi.NoteOff, Note: 69},
	}
	for _, ev := range events {
		c.HandleEvent(ev)
	}

	p := chain.Snapshot()
	if p.Waveform[LaneMain] != WaveTriangle {
		t.Errorf("osc1 = %s, want triangle", p.Waveform[LaneMain])
	}
	if !approx(p.Frequency[LaneMain], 220) {
		t.Errorf("main = %v, want 220", p.Frequency[LaneMain])
	}
	if p.Gate {
		t.Error("gate still open")
	}
}

func TestCoreStatus(t *testing.T) {
	c, _, _ := newTestCore()
	c.NoteOn(60, 100)
	c.NoteOn(69, 80)
	c.ControlChange(CCLFOMode, 12)

	s := c.Status()
	if !s.Sounding || s.Note != 69 || s.Velocity != 80 {
		t.Errorf("status = %+v", s)
	}
	if len(s.Held) != 2 || s.Held[0] != 60 {
		t.Errorf("held = %v", s.Held)
	}
	if s.Mode != (Mode{TargetPitch, ShapeOneShotDown}) {
		t.Errorf("mode = %s", s.Mode)
	}
	if s.String() == "" {
		t.Error("empty status text")
	}
}

func TestNoteName(t *testing.T) {
	tests := map[uint8]string{60: "C4", 69: "A4", 61: "C#4", 24: "C1", 107: "B7"}
	for note, want := range tests {
		if got := NoteName(note); got != want {
			t.Errorf("NoteName(%d) = %q, want %q", note, got, want)
		}
	}
}

func TestCoreOneShotHoldsUntilNoteOn(t *testing.T) {
	c, chain, clock := newTestCore()
	c.ControlChange(CCLFODepth, 64)
	c.ControlChange(CCLFOMode, 13) // pitch 1-up
	c.NoteOn(69, 100)

	for i := 0; i < 500 && !c.Status().Holding; i++ {
		clock.next()
		c.Tick()
	}
	if !c.Status().Holding {
		t.Fatal("one-shot never latched")
	}

	// Knob moves do not release the latch
	writes := chain.Snapshot().Writes
	c.ControlChange(CCLFODepth, 127)
	c.ControlChange(CCLFOSpeed, 0)
	for i := 0; i < 50; i++ {
		clock.next()
		c.Tick()
	}
	if got := chain.Snapshot().Writes; got != writes {
		t.Errorf("latched one-shot wrote %d params", got-writes)
	}
	if !c.Status().Holding {
		t.Error("latch cleared by a control change")
	}

	c.NoteOn(72, 100)
	writes = chain.Snapshot().Writes
	clock.next()
	c.Tick()
	if c.Status().Holding {
		t.Error("note on did not retrigger the one-shot")
	}
	if got := chain.Snapshot().Writes; got <= writes {
		t.Error("no pitch writes after retrigger")
	}
	phase, falling := c.Status().Phase, c.Status().Falling
	if !approx(phase, lfoStep) || falling {
		t.Errorf("phase %v falling %v, want restart from the bottom", phase, falling)
	}
}
