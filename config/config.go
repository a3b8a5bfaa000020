package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leighmurray/teensynth/midi"
	"github.com/leighmurray/teensynth/synth"
)

// AppName names the config directory
const AppName = "teensynth"

// InputConfig selects the MIDI keyboard
type InputConfig struct {
	PortName string `json:"portName,omitempty"` // case-insensitive substring, empty = any
	Channel  int    `json:"channel"`            // 1-16, 0 = omni
}

// Config is the main configuration structure
type Config struct {
	Input      InputConfig    `json:"input"`
	TickMicros int            `json:"tickMicros,omitempty"`
	Debug      bool           `json:"debug,omitempty"`
	Palette    string         `json:"palette,omitempty"` // GIMP .gpl file for the monitor
	Settings   synth.Settings `json:"settings"`

	path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TickMicros: 500,
		Settings:   synth.DefaultSettings(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns where the debug log goes
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// Load reads the config from the default path, or returns defaults if
// there is none
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file gives defaults that
// will be saved to path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Fields missing from the file keep their defaults
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Input.Channel < 0 || cfg.Input.Channel > 16 {
		return nil, fmt.Errorf("parse %s: input channel %d out of range 0-16", path, cfg.Input.Channel)
	}

	return cfg, nil
}

// Path returns where Save writes
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	c.path = path
	return nil
}

// MIDIChannel converts the configured channel to the 0-15 form the
// transport uses, or midi.Omni
func (c *Config) MIDIChannel() int {
	if c.Input.Channel == 0 {
		return midi.Omni
	}
	return c.Input.Channel - 1
}
