package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	synthmidi "github.com/leighmurray/teensynth/midi"
	"github.com/leighmurray/teensynth/synth"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(arg, false)
	case "play":
		monitor(arg, true)
	case "send":
		sendTest(arg)
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI ports")
	fmt.Println("  monitor [port]  - Print decoded events from an input port")
	fmt.Println("  play [port]     - Run input through the synth core and print chain writes")
	fmt.Println("  send [port]     - Send a note, CC sweep and bend to an output port")
	fmt.Println("  poll            - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func findIn(match string) drivers.In {
	dm := synthmidi.NewDeviceManager(match, synthmidi.Omni)
	for _, p := range midi.GetInPorts() {
		if dm.Wants(p.String()) {
			return p
		}
	}
	return nil
}

func findOut(match string) drivers.Out {
	match = strings.ToLower(match)
	for _, p := range midi.GetOutPorts() {
		name := strings.ToLower(p.String())
		if strings.Contains(name, "through") {
			continue
		}
		if match == "" || strings.Contains(name, match) {
			return p
		}
	}
	return nil
}

// monitor prints every decoded event. With core set, events also drive a
// synth core and the resulting chain parameters are printed.
func monitor(match string, core bool) {
	in := findIn(match)
	if in == nil {
		fmt.Println("No input port found")
		return
	}
	fmt.Printf("Listening on: %s (Ctrl+C to exit)\n", in.String())

	kb, err := synthmidi.NewKeyboardController(in.String(), in, synthmidi.Omni)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer kb.Close()

	var c *synth.Core
	state := synth.NewChainState()
	if core {
		c = synth.NewCore(state)
		c.Start()
		c.ApplySettings(synth.DefaultSettings())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	ticker := time.NewTicker(synth.DefaultTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			fmt.Printf("\ndropped: %d\n", kb.Dropped())
			return
		case ev := <-kb.Events():
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), describe(ev))
			if c != nil {
				c.HandleEvent(ev)
				fmt.Println(c.Status())
				fmt.Println(state)
			}
		case <-ticker.C:
			if c != nil {
				c.Tick()
			}
		}
	}
}

func describe(ev synthmidi.Event) string {
	switch ev.Type {
	case synthmidi.NoteOn:
		return fmt.Sprintf("ch%-2d note on  %-4s vel %d", ev.Channel+1, synth.NoteName(ev.Note), ev.Velocity)
	case synthmidi.NoteOff:
		return fmt.Sprintf("ch%-2d note off %s", ev.Channel+1, synth.NoteName(ev.Note))
	case synthmidi.CC:
		name := "unassigned"
		if ctl, ok := synth.NewParamMap(synth.DefaultControls).Lookup(ev.Note); ok {
			name = ctl.Name
		}
		return fmt.Sprintf("ch%-2d cc %3d = %3d (%s)", ev.Channel+1, ev.Note, ev.Velocity, name)
	case synthmidi.PitchBend:
		return fmt.Sprintf("ch%-2d bend %d", ev.Channel+1, ev.Bend)
	}
	return fmt.Sprintf("type %#x", ev.Type)
}

// sendTest plays a short pattern that touches every input path of the synth
func sendTest(match string) {
	out := findOut(match)
	if out == nil {
		fmt.Println("No output port found")
		return
	}
	fmt.Printf("Using output: %s\n", out.String())

	send, err := midi.SendTo(out)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return
	}

	fmt.Println("Note C4 then E4, release E4")
	send(midi.NoteOn(0, 60, 100))
	time.Sleep(300 * time.Millisecond)
	send(midi.NoteOn(0, 64, 100))
	time.Sleep(300 * time.Millisecond)
	send(midi.NoteOff(0, 64))
	time.Sleep(300 * time.Millisecond)

	fmt.Println("Sweeping cutoff")
	for v := 0; v < 128; v += 4 {
		send(midi.ControlChange(0, synth.CCFilterFreq, uint8(v)))
		time.Sleep(20 * time.Millisecond)
	}

	fmt.Println("Bending up and back")
	for _, b := range []int16{0, 2048, 4096, 8191, 4096, 0} {
		send(midi.Pitchbend(0, b))
		time.Sleep(100 * time.Millisecond)
	}

	send(midi.NoteOff(0, 60))
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	lastIn := ""

	for {
		var names []string
		for _, p := range midi.GetInPorts() {
			names = append(names, p.String())
		}
		current := strings.Join(names, ",")

		if current != lastIn {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", names)

			dm := synthmidi.NewDeviceManager("", synthmidi.Omni)
			for _, name := range names {
				if dm.Wants(name) {
					fmt.Printf("  -> would open %s\n", name)
				}
			}
			lastIn = current
		}

		time.Sleep(2 * time.Second)
	}
}
