package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	GateOn  rune // ● envelope open
	GateOff rune // ○ envelope closed

	MeterFull  rune // █ filled meter cell
	MeterEmpty rune // ░ empty meter cell

	Rising  rune // ▲ LFO sweeping up
	Falling rune // ▼ LFO sweeping down
	Hold    rune // ■ one-shot finished
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			GateOn:  '●',
			GateOff: '○',

			MeterFull:  '█',
			MeterEmpty: '░',

			Rising:  '▲',
			Falling: '▼',
			Hold:    '■',
		},
	}
}

// Load returns a theme from a palette file, or the default palette when
// path is empty
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleActive  = 0.7
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Level returns a colour for a 0-1 meter value
func (t *Theme) Level(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted + norm*(1-RoleMuted)))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
