package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leighmurray/teensynth/midi"
	"github.com/leighmurray/teensynth/synth"
)

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickMicros != 500 || cfg.Settings != synth.DefaultSettings() {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Input = InputConfig{PortName: "keystation", Channel: 10}
	cfg.Settings.Attack = 90
	cfg.Settings.MixerNoise = 33
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Input != cfg.Input || got.Settings != cfg.Settings || got.TickMicros != cfg.TickMicros {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"input":{"channel":1},"settings":{"attack":7}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickMicros != 500 {
		t.Errorf("tickMicros = %d, want default", cfg.TickMicros)
	}
	want := synth.DefaultSettings()
	want.Attack = 7
	if cfg.Settings != want {
		t.Errorf("settings = %+v, want %+v", cfg.Settings, want)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]string{
		"bad json":    `{"input":`,
		"bad channel": `{"input":{"channel":17}}`,
	}
	for name, body := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}

func TestMIDIChannel(t *testing.T) {
	tests := []struct {
		channel int
		want    int
	}{
		{0, midi.Omni},
		{1, 0},
		{16, 15},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Input.Channel = tt.channel
		if got := cfg.MIDIChannel(); got != tt.want {
			t.Errorf("MIDIChannel() for %d = %d, want %d", tt.channel, got, tt.want)
		}
	}
}
