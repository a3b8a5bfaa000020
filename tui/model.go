package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leighmurray/teensynth/config"
	"github.com/leighmurray/teensynth/debug"
	"github.com/leighmurray/teensynth/midi"
	"github.com/leighmurray/teensynth/synth"
	"github.com/leighmurray/teensynth/theme"
	"github.com/leighmurray/teensynth/widgets"
)

// refreshRate is how often the monitor polls the core
const refreshRate = 50 * time.Millisecond

const meterWidth = 24

type Model struct {
	Loop      *synth.Loop
	Chain     *synth.ChainState
	DeviceMgr *midi.DeviceManager
	Config    *config.Config
	Theme     *theme.Theme

	ctx      context.Context
	status   synth.Status
	chain    synth.ChainParams
	devices  map[string]midi.Controller
	message  string
	quitting bool
}

type StatusMsg struct {
	Status synth.Status
	Chain  synth.ChainParams
}

type SettingsMsg synth.Settings

type DeviceEventMsg midi.DeviceEvent

func NewModel(ctx context.Context, loop *synth.Loop, chain *synth.ChainState, deviceMgr *midi.DeviceManager, cfg *config.Config, th *theme.Theme) Model {
	return Model{
		Loop:      loop,
		Chain:     chain,
		DeviceMgr: deviceMgr,
		Config:    cfg,
		Theme:     th,
		ctx:       ctx,
		devices:   make(map[string]midi.Controller),
	}
}

// PollStatus reads the core status on the loop goroutine after a delay
func PollStatus(ctx context.Context, loop *synth.Loop, chain *synth.ChainState) tea.Cmd {
	return tea.Tick(refreshRate, func(time.Time) tea.Msg {
		var s synth.Status
		if !loop.Do(ctx, func(c *synth.Core) { s = c.Status() }) {
			return nil
		}
		return StatusMsg{Status: s, Chain: chain.Snapshot()}
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

// FetchSettings reads the persisted slots from the core
func FetchSettings(ctx context.Context, loop *synth.Loop) tea.Cmd {
	return func() tea.Msg {
		var s synth.Settings
		if !loop.Do(ctx, func(c *synth.Core) { s = c.Settings() }) {
			return nil
		}
		return SettingsMsg(s)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		PollStatus(m.ctx, m.Loop, m.Chain),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "s":
			return m, FetchSettings(m.ctx, m.Loop)
		}

	case StatusMsg:
		m.status = msg.Status
		m.chain = msg.Chain
		return m, PollStatus(m.ctx, m.Loop, m.Chain)

	case SettingsMsg:
		m.Config.Settings = synth.Settings(msg)
		if err := m.Config.Save(); err != nil {
			m.message = fmt.Sprintf("save failed: %v", err)
			debug.Log("config", "save: %v", err)
		} else {
			m.message = "saved " + m.Config.Path()
			debug.Log("config", "saved %+v", m.Config.Settings)
		}

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.devices[event.ID] = event.Controller
			m.message = "connected " + event.ID
		case midi.DeviceDisconnected:
			delete(m.devices, event.ID)
			m.message = "disconnected " + event.ID
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	textStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	messageStyle := lipgloss.NewStyle().
		Foreground(m.Theme.BG()).
		Background(m.Theme.Accent()).
		Padding(0, 1)

	header := headerStyle.Render("teensynth") + "  " + widgets.RenderGate(m.Theme, m.chain.Gate) + "  " + m.deviceLine()

	s := m.status
	phase := s.Phase
	if !s.Mode.Active() {
		phase = 0
	}
	meters := strings.Join([]string{
		widgets.RenderMeterRow(m.Theme, "velocity", float64(s.Velocity)/127, meterWidth, fmt.Sprintf("%d", s.Velocity)),
		widgets.RenderMeterRow(m.Theme, "cutoff", m.chain.Cutoff/10000, meterWidth, fmt.Sprintf("%.0fHz", m.chain.Cutoff)),
		widgets.RenderMeterRow(m.Theme, "lfo", phase, meterWidth, m.lfoSymbol()),
	}, "\n")

	help := widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "s", Desc: "save envelope and mixer settings"},
			{Key: "q", Desc: "quit"},
		}},
	})

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(textStyle.Render(s.String()))
	out.WriteString("\n\n")
	out.WriteString(meters)
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(m.chain.String()))
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(help))

	if m.message != "" {
		out.WriteString("\n\n")
		out.WriteString(messageStyle.Render(m.message))
	}

	return out.String()
}

func (m Model) deviceLine() string {
	if len(m.devices) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("no keyboard")
	}
	ids := make([]string, 0, len(m.devices))
	var dropped uint64
	for id, c := range m.devices {
		ids = append(ids, id)
		dropped += c.Dropped()
	}
	sort.Strings(ids)
	line := strings.Join(ids, ", ")
	if dropped > 0 {
		line += fmt.Sprintf("  (dropped %d)", dropped)
	}
	return lipgloss.NewStyle().Foreground(m.Theme.Active()).Render(line)
}

func (m Model) lfoSymbol() string {
	s := m.status
	switch {
	case !s.Mode.Active():
		return s.Mode.String()
	case s.Holding:
		return fmt.Sprintf("%c %s", m.Theme.Symbols.Hold, s.Mode)
	case s.Falling:
		return fmt.Sprintf("%c %s", m.Theme.Symbols.Falling, s.Mode)
	}
	return fmt.Sprintf("%c %s", m.Theme.Symbols.Rising, s.Mode)
}
