package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leighmurray/teensynth/theme"
)

// RenderMeter renders a horizontal bar of width cells for a 0-1 value
func RenderMeter(th *theme.Theme, norm float64, width int) string {
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm*float64(width) + 0.5)

	on := lipgloss.NewStyle().Foreground(th.Level(norm))
	off := lipgloss.NewStyle().Foreground(th.Muted())

	return on.Render(strings.Repeat(string(th.Symbols.MeterFull), filled)) +
		off.Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-filled))
}

// RenderMeterRow renders "label  ████░░░░  text"
func RenderMeterRow(th *theme.Theme, label string, norm float64, width int, text string) string {
	return fmt.Sprintf("  %-10s %s  %s", label, RenderMeter(th, norm, width), text)
}

// RenderGate renders the gate indicator
func RenderGate(th *theme.Theme, open bool) string {
	if open {
		return lipgloss.NewStyle().Foreground(th.Success()).Render(string(th.Symbols.GateOn))
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.GateOff))
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
