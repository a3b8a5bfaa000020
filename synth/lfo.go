package synth

import (
	"fmt"
	"time"
)

// ModTarget is what the LFO modulates
type ModTarget int

const (
	TargetFilter ModTarget = iota
	TargetPitch
)

func (t ModTarget) String() string {
	if t == TargetPitch {
		return "pitch"
	}
	return "filter"
}

// Shape is how the LFO sweeps
type Shape int

const (
	ShapeOff         Shape = iota
	ShapeFree              // triangle, ignores retrigger
	ShapeDown              // triangle, retrigger restarts at the top
	ShapeUp                // triangle, retrigger restarts at the bottom
	ShapeOneShotDown       // one sweep down per retrigger, then hold
	ShapeOneShotUp         // one sweep up per retrigger, then hold
)

var shapeNames = [...]string{"off", "free", "down", "up", "1-down", "1-up"}

func (s Shape) String() string {
	if s >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

func (s Shape) oneShot() bool {
	return s == ShapeOneShotDown || s == ShapeOneShotUp
}

// Mode is an LFO target and sweep shape
type Mode struct {
	Target ModTarget
	Shape  Shape
}

func (m Mode) String() string {
	return m.Target.String() + " " + m.Shape.String()
}

// Active reports whether the mode writes to its target at all
func (m Mode) Active() bool {
	return m.Shape != ShapeOff
}

// DrivesFilter reports whether the LFO owns the filter cutoff
func (m Mode) DrivesFilter() bool {
	return m.Target == TargetFilter && m.Active()
}

// Code returns the controller value that selects this mode
func (m Mode) Code() uint8 {
	c := uint8(m.Shape)
	if m.Target == TargetPitch {
		c += pitchModeBase
	}
	return c
}

// pitch modes are numbered from 8; 6 and 7 select nothing
const pitchModeBase = 8

// ModeFromCode decodes an LFO mode controller value
func ModeFromCode(code uint8) (Mode, bool) {
	target := TargetFilter
	if code >= pitchModeBase {
		target = TargetPitch
		code -= pitchModeBase
	}
	if int(code) >= len(shapeNames) {
		return Mode{}, false
	}
	return Mode{Target: target, Shape: Shape(code)}, true
}

const (
	lfoStep        = 0.01
	cutoffScale    = 10000.0
	DefaultLFORate = 2000 * time.Microsecond
)

// Filter is the externally set filter cutoff, shared by the core and
// the LFO
type Filter struct {
	Norm float64 // knob position 0-1, top of the LFO sweep
	Hz   float64 // cutoff the knob asks for
}

// LFO is a tick-driven triangle modulator. Tick is cheap to call at any
// rate; the sweep only advances once per Rate.
type LFO struct {
	voice  *Voice
	filter *Filter
	chain  Chain

	Mode  Mode
	Rate  time.Duration
	Depth float64

	applied   Mode
	phase     float64
	falling   bool
	stopped   bool
	retrigger bool
	last      time.Time
}

// NewLFO creates an LFO in filter-off mode
func NewLFO(voice *Voice, filter *Filter, chain Chain) *LFO {
	return &LFO{
		voice:  voice,
		filter: filter,
		chain:  chain,
		Rate:   DefaultLFORate,
	}
}

// Phase returns the sweep position and direction
func (l *LFO) Phase() (phase float64, falling bool) {
	return l.phase, l.falling
}

// Stopped reports whether a one-shot sweep has finished and is holding
func (l *LFO) Stopped() bool {
	return l.Mode.Shape.oneShot() && l.stopped
}

// Retrigger restarts the sweep on the next effective tick
func (l *LFO) Retrigger() {
	l.retrigger = true
}

// Tick runs one LFO step if Rate has elapsed since the last one.
// Returns whether it did.
func (l *LFO) Tick(now time.Time) bool {
	if !l.last.IsZero() && now.Sub(l.last) < l.Rate {
		return false
	}
	l.last = now

	if l.Mode != l.applied {
		l.reset()
		l.applied = l.Mode
	}

	shape := l.Mode.Shape
	if shape == ShapeOff {
		return true
	}

	if l.retrigger {
		switch shape {
		case ShapeDown, ShapeOneShotDown:
			l.phase, l.falling = 1, true
		case ShapeUp, ShapeOneShotUp:
			l.phase, l.falling = 0, false
		}
		if shape.oneShot() {
			l.stopped = false
		}
		l.retrigger = false
	}

	if !shape.oneShot() || !l.stopped {
		l.write()
	}
	l.advance()
	return true
}

// reset drops modulation left over from the previous mode. Pitch goes
// back to unmodulated for every mode; the knob cutoff comes back unless
// an active pitch mode takes over.
func (l *LFO) reset() {
	l.voice.LFOPitch = 1
	l.voice.RefreshPitch()
	if !l.Mode.Active() || l.Mode.Target == TargetFilter {
		l.chain.SetCutoff(l.filter.Hz)
	}
}

func (l *LFO) write() {
	switch l.Mode.Target {
	case TargetFilter:
		span := l.filter.Norm - l.Depth
		if span < 0 {
			span = 0
		}
		l.chain.SetCutoff(cutoffScale * (span*l.phase + l.Depth))
	case TargetPitch:
		l.voice.LFOPitch = l.phase*l.Depth + 1
		l.voice.RefreshPitch()
	}
}

// advance moves the phase one step and bounces off 0 and 1. Hitting a
// bound latches one-shot sweeps.
func (l *LFO) advance() {
	if !l.falling {
		l.phase += lfoStep
		if l.phase >= 1 {
			l.phase = 1
			l.falling = true
			l.stopped = true
		}
		return
	}
	l.phase -= lfoStep
	if l.phase <= 0 {
		l.phase = 0
		l.falling = false
		l.stopped = true
	}
}
