package synth

import (
	"context"
	"time"

	"github.com/leighmurray/teensynth/debug"
	"github.com/leighmurray/teensynth/midi"
)

// DefaultTickInterval is how often the loop wakes when no events arrive
const DefaultTickInterval = 500 * time.Microsecond

// Loop is the single goroutine that owns a Core. Every iteration it
// handles all events already queued, in arrival order, then ticks the
// LFO. A ticker keeps the iterations coming when the input is quiet.
type Loop struct {
	core     *Core
	input    <-chan midi.Event
	interval time.Duration

	// requests run inside the loop so callers never touch the core
	// from another goroutine
	requests chan func(*Core)
}

// NewLoop creates a loop feeding input to core
func NewLoop(core *Core, input <-chan midi.Event, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		core:     core,
		input:    input,
		interval: interval,
		requests: make(chan func(*Core), 8),
	}
}

// Run blocks until ctx is done or the input channel is closed
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.input:
			if !ok {
				debug.Log("loop", "input closed")
				return
			}
			l.handle(ev)
			if !l.drain() {
				return
			}
		case fn := <-l.requests:
			fn(l.core)
		case <-ticker.C:
		}
		l.core.Tick()
	}
}

// drain handles whatever else is queued without blocking. Returns false
// if the input was closed.
func (l *Loop) drain() bool {
	for {
		select {
		case ev, ok := <-l.input:
			if !ok {
				debug.Log("loop", "input closed")
				return false
			}
			l.handle(ev)
		default:
			return true
		}
	}
}

func (l *Loop) handle(ev midi.Event) {
	debug.Log("event", "type=%#x ch=%d note=%d vel=%d bend=%d", ev.Type, ev.Channel, ev.Note, ev.Velocity, ev.Bend)
	l.core.HandleEvent(ev)
}

// Do runs fn on the loop goroutine and waits for it. Returns false if
// ctx ends first.
func (l *Loop) Do(ctx context.Context, fn func(*Core)) bool {
	done := make(chan struct{})
	select {
	case l.requests <- func(c *Core) {
		fn(c)
		close(done)
	}:
	case <-ctx.Done():
		return false
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
