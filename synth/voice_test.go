package synth

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance*math.Max(1, math.Abs(b))
}

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{21, 27.5},
		{57, 220},
		{69, 440},
		{81, 880},
		{-5, noteFreqs[0]},
		{200, noteFreqs[127]},
	}
	for _, tt := range tests {
		if got := NoteFrequency(tt.note); !approx(got, tt.want) {
			t.Errorf("NoteFrequency(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestVoiceNoteEngaged(t *testing.T) {
	chain := NewChainState()
	v := NewVoice(chain)
	v.NoteEngaged(69, 100)

	p := chain.Snapshot()
	if !approx(p.Frequency[LaneMain], 440) {
		t.Errorf("main = %v, want 440", p.Frequency[LaneMain])
	}
	if !approx(p.Frequency[LaneDetuned], 440) {
		t.Errorf("detuned = %v, want 440", p.Frequency[LaneDetuned])
	}
	if !approx(p.Frequency[LaneSub], 220) {
		t.Errorf("sub = %v, want 220", p.Frequency[LaneSub])
	}

	amp := MaxAmplitude * 100 / 127
	for l := Lane(0); l < NumLanes; l++ {
		if !approx(p.Amplitude[l], amp) {
			t.Errorf("%s amplitude = %v, want %v", l, p.Amplitude[l], amp)
		}
	}
	if !approx(p.Noise, amp) {
		t.Errorf("noise = %v, want %v", p.Noise, amp)
	}
	if !p.Gate || p.NoteOns != 1 {
		t.Errorf("gate = %v noteOns = %d, want open after one NoteOn", p.Gate, p.NoteOns)
	}
}

func TestVoiceModifiers(t *testing.T) {
	chain := NewChainState()
	v := NewVoice(chain)
	v.NoteEngaged(69, 127)

	v.DetunedOctave = 12
	v.Detune = 0.95
	v.Bend = 0.5
	v.RefreshPitch()

	p := chain.Snapshot()
	if !approx(p.Frequency[LaneMain], 220) {
		t.Errorf("main = %v, want 220", p.Frequency[LaneMain])
	}
	if want := 880 * 0.95 * 0.5; !approx(p.Frequency[LaneDetuned], want) {
		t.Errorf("detuned = %v, want %v", p.Frequency[LaneDetuned], want)
	}
	// The sub lane ignores the octave control
	if !approx(p.Frequency[LaneSub], 110) {
		t.Errorf("sub = %v, want 110", p.Frequency[LaneSub])
	}
	if p.NoteOns != 1 {
		t.Errorf("RefreshPitch retriggered the envelope, noteOns = %d", p.NoteOns)
	}
}

func TestVoiceRefreshBeforeNote(t *testing.T) {
	chain := NewChainState()
	v := NewVoice(chain)
	v.Bend = 2
	v.RefreshPitch()

	if w := chain.Snapshot().Writes; w != 0 {
		t.Errorf("RefreshPitch with no note wrote %d params", w)
	}
}

func TestVoiceReleaseKeepsPitch(t *testing.T) {
	chain := NewChainState()
	v := NewVoice(chain)
	v.NoteEngaged(60, 90)
	before := chain.Snapshot().Frequency
	v.NoteReleased()

	p := chain.Snapshot()
	if p.Gate || p.NoteOffs != 1 {
		t.Errorf("gate = %v noteOffs = %d, want closed", p.Gate, p.NoteOffs)
	}
	if p.Frequency != before {
		t.Errorf("release changed frequencies: %v -> %v", before, p.Frequency)
	}
	if note, vel, ok := v.Note(); !ok || note != 60 || vel != 90 {
		t.Errorf("Note() = %d, %d, %v", note, vel, ok)
	}
}
