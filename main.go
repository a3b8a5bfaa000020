package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/leighmurray/teensynth/config"
	"github.com/leighmurray/teensynth/debug"
	"github.com/leighmurray/teensynth/midi"
	"github.com/leighmurray/teensynth/synth"
	"github.com/leighmurray/teensynth/theme"
	"github.com/leighmurray/teensynth/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/teensynth/config.json)")
	input := flag.String("input", "", "MIDI input port name substring, overrides config")
	channel := flag.Int("channel", -1, "MIDI channel 1-16, 0 for omni, overrides config")
	debugFlag := flag.Bool("debug", false, "write a debug log")
	flag.Parse()

	if err := run(*configPath, *input, *channel, *debugFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, input string, channel int, debugOn bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if input != "" {
		cfg.Input.PortName = input
	}
	if channel >= 0 {
		if channel > 16 {
			return fmt.Errorf("channel %d out of range 0-16", channel)
		}
		cfg.Input.Channel = channel
	}

	if debugOn || cfg.Debug {
		logPath, err := config.LogPath()
		if err != nil {
			return err
		}
		if err := debug.Enable(logPath); err != nil {
			return err
		}
		defer debug.Disable()
	}

	// Chain state is what the monitor reads; the logged wrapper only
	// exists while debugging
	state := synth.NewChainState()
	var chain synth.Chain = state
	if debug.Enabled() {
		chain = synth.LoggedChain{Next: state}
	}

	core := synth.NewCore(chain)
	core.Start()
	core.ApplySettings(cfg.Settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.Input.PortName, cfg.MIDIChannel())
	loop := synth.NewLoop(core, deviceMgr.Input(), time.Duration(cfg.TickMicros)*time.Microsecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		deviceMgr.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	debug.Log("main", "started, input=%q channel=%d tick=%dus", cfg.Input.PortName, cfg.Input.Channel, cfg.TickMicros)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return headless(ctx, deviceMgr)
	}

	th, err := theme.Load(cfg.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
		th = theme.New(nil)
	}

	m := tui.NewModel(ctx, loop, state, deviceMgr, cfg, th)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// headless logs device changes to stdout until ctx is cancelled
func headless(ctx context.Context, deviceMgr *midi.DeviceManager) error {
	fmt.Println("teensynth")
	fmt.Println("Connect a MIDI keyboard any time - it will be detected automatically")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-deviceMgr.Events():
			if !ok {
				return nil
			}
			switch ev.Type {
			case midi.DeviceConnected:
				fmt.Printf("connected %s\n", ev.ID)
			case midi.DeviceDisconnected:
				fmt.Printf("disconnected %s\n", ev.ID)
			}
		}
	}
}
