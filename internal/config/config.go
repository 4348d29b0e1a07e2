package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/icco/tubular/internal/timing"
)

// Config is the main configuration structure
type Config struct {
	SampleRate  uint32  `json:"sampleRate"`
	BufferMS    int     `json:"bufferMs,omitempty"`
	Tempo       float64 `json:"tempo"`
	BeatsPerBar uint32  `json:"beatsPerBar"`
	RootNote    uint8   `json:"rootNote"`
	Channel     uint8   `json:"channel"`
	Volume      float64 `json:"volume"`

	// MIDIOut names an existing output port to mirror the chords to.
	MIDIOut string `json:"midiOut,omitempty"`
	// VirtualPort, when set, creates a virtual output port with this name.
	VirtualPort string `json:"virtualPort,omitempty"`

	Sequence string `json:"sequence,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SampleRate:  44100,
		BufferMS:    20,
		Tempo:       120,
		BeatsPerBar: 4,
		RootNote:    60,
		Volume:      0.3,
		LogLevel:    "info",
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tubular"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path, or returns defaults if it does not exist.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ProjectTime is the tempo and meter the session starts with.
func (c *Config) ProjectTime() timing.ProjectTimeInfo {
	return timing.ProjectTimeInfo{BeatsPerMinute: c.Tempo, BeatsPerBar: c.BeatsPerBar}
}

// Validate checks ranges that would otherwise surface as bad audio.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range", c.SampleRate)
	}
	ti := timing.TimingInfo{FramesPerSecond: c.SampleRate}
	if err := ti.Validate(c.ProjectTime()); err != nil {
		return err
	}
	if c.Channel > 15 {
		return fmt.Errorf("midi channel %d out of range [0, 15]", c.Channel)
	}
	// VII reaches root+17
	if c.RootNote > 127-17 {
		return fmt.Errorf("root note %d leaves no room for the table", c.RootNote)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume %v out of range [0, 1]", c.Volume)
	}
	if c.BufferMS < 0 {
		return fmt.Errorf("negative buffer size %d", c.BufferMS)
	}
	if c.MIDIOut != "" && c.VirtualPort != "" {
		return errors.New("midiOut and virtualPort are mutually exclusive")
	}
	return nil
}
