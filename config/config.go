package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/sergev/cvdecode/decoder"
	"github.com/sergev/cvdecode/render"
	"gopkg.in/yaml.v3"
)

//go:embed cvdecode.toml
var defaultConfigData []byte

// Active is the profile selected by Initialize.
var Active *Profile

// Config represents the entire configuration file
type Config struct {
	Default string    `toml:"default" yaml:"default"`
	Profile []Profile `toml:"profile" yaml:"profile"`
}

// Profile is one named set of decoder and preview settings
type Profile struct {
	Name          string  `toml:"name" yaml:"name"`
	Color         bool    `toml:"color" yaml:"color"`
	SampleRate    float64 `toml:"sample_rate" yaml:"sample_rate"`
	HFreq         float64 `toml:"h_freq" yaml:"h_freq"`
	VFreq         float64 `toml:"v_freq" yaml:"v_freq"`
	PulseLength   float64 `toml:"pulse_length" yaml:"pulse_length"` // Milliseconds
	OverScan      float64 `toml:"over_scan" yaml:"over_scan"`
	HOffset       float64 `toml:"h_offset" yaml:"h_offset"`
	Brightness    float64 `toml:"brightness" yaml:"brightness"`
	Saturation    float64 `toml:"saturation" yaml:"saturation"`
	BlockSize     int     `toml:"block_size" yaml:"block_size"`
	LineWidth     float64 `toml:"line_width" yaml:"line_width"`
	ClearInterval float64 `toml:"clear_interval" yaml:"clear_interval"` // Milliseconds
	Blend         bool    `toml:"blend" yaml:"blend"`
}

// Path determines the config file path based on the operating system
func Path() (string, error) {
	if runtime.GOOS == "windows" {
		// Use AppData directory for Windows
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		return filepath.Join(configDir, "cvdecode", "cvdecode.toml"), nil
	}

	// Linux/macOS: use home directory
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home directory: %w", err)
	}
	return filepath.Join(home, ".cvdecode"), nil
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	var conf Config
	if _, err := toml.Decode(string(defaultConfigData), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &conf, nil
}

// isYAML reports whether a path names a YAML file.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads a configuration file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	var conf Config
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config at %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, &conf); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
		}
	}
	return &conf, nil
}

// Select finds a profile by name; an empty name selects the default.
func (c *Config) Select(name string) (*Profile, error) {
	if name == "" {
		if c.Default == "" {
			return nil, errors.New("`default` key is missing or empty in config")
		}
		name = c.Default
	}

	for i := range c.Profile {
		if c.Profile[i].Name == name {
			p := c.Profile[i]
			if err := p.Validate(); err != nil {
				return nil, err
			}
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile %q not found in config", name)
}

// Names returns the profile names in file order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Profile))
	for i := range c.Profile {
		names[i] = c.Profile[i].Name
	}
	return names
}

// Validate checks the profile fields.
func (p *Profile) Validate() error {
	positive := []struct {
		key   string
		value float64
	}{
		{"sample_rate", p.SampleRate},
		{"h_freq", p.HFreq},
		{"v_freq", p.VFreq},
		{"pulse_length", p.PulseLength},
		{"over_scan", p.OverScan},
		{"block_size", float64(p.BlockSize)},
		{"line_width", p.LineWidth},
		{"clear_interval", p.ClearInterval},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return fmt.Errorf("profile %q has invalid %s: %v (must be positive)", p.Name, f.key, f.value)
		}
	}
	if err := p.Decoder().Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// Decoder returns the decoder settings of the profile.
func (p *Profile) Decoder() decoder.Config {
	return decoder.Config{
		Color:       p.Color,
		SampleRate:  p.SampleRate,
		HFreq:       p.HFreq,
		VFreq:       p.VFreq,
		PulseLength: p.PulseLength / 1000,
		OverScan:    p.OverScan,
		HOffset:     p.HOffset,
		Brightness:  p.Brightness,
		Saturation:  p.Saturation,
	}
}

// Render returns the preview canvas settings of the profile.
func (p *Profile) Render() render.Options {
	opts := render.DefaultOptions()
	opts.LineWidth = p.LineWidth
	opts.Blend = p.Blend
	return opts
}

// FadePeriod returns the preview fade period in samples.
func (p *Profile) FadePeriod() int {
	return int(math.Round(p.ClearInterval * p.SampleRate / 1000))
}

// Initialize loads the configuration and selects a profile into Active.
// With an empty path the per-user file is used, created from the
// embedded default if it does not exist yet.
func Initialize(path, profile string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}

		// Create the per-user file from the embedded default
		if _, err := os.Stat(path); os.IsNotExist(err) {
			configDir := filepath.Dir(path)
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
			}
			if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
				return fmt.Errorf("failed to create default config file at %s: %w", path, err)
			}
		}
	}

	conf, err := Load(path)
	if err != nil {
		return err
	}
	p, err := conf.Select(profile)
	if err != nil {
		return err
	}
	Active = p
	return nil
}
