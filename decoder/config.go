package decoder

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when a configuration cannot drive an engine.
var ErrInvalidConfig = errors.New("invalid decoder configuration")

// Config holds the recognized decoder options.
type Config struct {
	Color       bool    // Decode luma+chroma from two channels; otherwise monochrome
	SampleRate  float64 // Ticks per second
	HFreq       float64 // Nominal line rate in Hz
	VFreq       float64 // Nominal field rate in Hz
	PulseLength float64 // Nominal sync pulse width in seconds
	OverScan    float64 // Horizontal scale divisor
	HOffset     float64 // Horizontal phase bias
	Brightness  float64 // Luma gain
	Saturation  float64 // Chroma gain
}

// DefaultConfig returns the settings of the reference front end.
func DefaultConfig() Config {
	return Config{
		Color:       true,
		SampleRate:  48000,
		HFreq:       225,
		VFreq:       3,
		PulseLength: 0.2 / 1000,
		OverScan:    0.82,
		HOffset:     0.06525,
		Brightness:  1,
		Saturation:  1,
	}
}

// Validate checks that every option is usable.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"sample rate", c.SampleRate},
		{"line frequency", c.HFreq},
		{"field frequency", c.VFreq},
		{"pulse length", c.PulseLength},
		{"overscan", c.OverScan},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s %v (must be positive)", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.HFreq <= c.VFreq {
		return fmt.Errorf("%w: line frequency %v must exceed field frequency %v", ErrInvalidConfig, c.HFreq, c.VFreq)
	}
	if c.HFreq >= c.SampleRate {
		return fmt.Errorf("%w: line frequency %v must be below the sample rate %v", ErrInvalidConfig, c.HFreq, c.SampleRate)
	}
	if c.Brightness < 0 || c.Saturation < 0 {
		return fmt.Errorf("%w: brightness %v and saturation %v must not be negative", ErrInvalidConfig, c.Brightness, c.Saturation)
	}
	return nil
}

// HTarget returns the nominal line period in samples.
func (c Config) HTarget() float64 {
	return c.SampleRate / c.HFreq
}

// VTarget returns the nominal field period in samples.
func (c Config) VTarget() float64 {
	return c.SampleRate / c.VFreq
}

// MaxLineSamples returns the per-line sample cap: twice the nominal line length.
func (c Config) MaxLineSamples() int {
	return int(math.Ceil(c.HTarget() * 2))
}

// LinesPerField returns the nominal number of lines in a field.
func (c Config) LinesPerField() float64 {
	return c.HFreq / c.VFreq
}
