package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/leighmurray/teensynth/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Ports matching any of these are never opened (virtual/system ports)
var excludedPorts = []string{"midi through", "through port", "dummy"}

// DeviceManager handles hot-plug detection of MIDI keyboards and merges
// their events into one stream
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	input       chan Event
	wg          sync.WaitGroup
	done        chan struct{}
	pollRate    time.Duration

	match     string // port name substring, empty = any keyboard
	channel   int
	listPorts func() []drivers.In
	open      func(id string, in drivers.In, channel int) (Controller, error)
}

// NewDeviceManager creates a device manager. match selects input ports
// by case-insensitive substring; empty opens every non-virtual port.
func NewDeviceManager(match string, channel int) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		input:       make(chan Event, 256),
		done:        make(chan struct{}),
		pollRate:    time.Second,
		match:       strings.ToLower(match),
		channel:     channel,
		listPorts:   func() []drivers.In { return gomidi.GetInPorts() },
		open: func(id string, in drivers.In, channel int) (Controller, error) {
			return NewKeyboardController(id, in, channel)
		},
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Input returns the merged event stream of every connected controller
func (dm *DeviceManager) Input() <-chan Event {
	return dm.input
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			close(dm.done)
			dm.closeAll()
			dm.wg.Wait()
			close(dm.events)
			close(dm.input)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// Wants reports whether a port name should be opened
func (dm *DeviceManager) Wants(name string) bool {
	name = strings.ToLower(name)
	for _, ex := range excludedPorts {
		if strings.Contains(name, ex) {
			return false
		}
	}
	return dm.match == "" || strings.Contains(name, dm.match)
}

func (dm *DeviceManager) scan() {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- dm.listPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("devices", "port scan timed out")
		return
	}

	seenIDs := make(map[string]bool)

	for _, inPort := range inPorts {
		id := inPort.String()
		if !dm.Wants(id) {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(id, inPort, dm.channel)
		if err != nil {
			debug.Log("devices", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		dm.forward(c)

		debug.Log("devices", "connected %s", id)
		dm.notify(DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}

	// Check for disconnects
	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		debug.Log("devices", "disconnected %s", id)
		dm.notify(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
	dm.mu.Unlock()
}

// forward copies a controller's events into the merged input until the
// controller is closed
func (dm *DeviceManager) forward(c Controller) {
	dm.wg.Add(1)
	go func() {
		defer dm.wg.Done()
		for ev := range c.Events() {
			select {
			case dm.input <- ev:
			case <-dm.done:
				return
			}
		}
	}()
}

// notify never blocks the scan on a slow listener
func (dm *DeviceManager) notify(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
