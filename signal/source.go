// Package signal provides sample sources for the decoder: recorded audio
// files, in-memory tapes and a synthetic composite encoder.
package signal

import (
	"errors"
	"fmt"
	"io"
)

// Source provides blocks of parallel channel samples at a fixed rate.
type Source interface {
	// SampleRate returns the number of samples per second per channel.
	SampleRate() float64

	// Channels returns the number of channels in every block.
	Channels() int

	// ReadBlock fills block[c][0:n] for every channel and returns n.
	// It returns io.EOF once no samples remain.
	ReadBlock(block [][]float32) (int, error)

	// Close releases the underlying input.
	Close() error
}

// NewBlock allocates a block of the given shape.
func NewBlock(channels, frames int) [][]float32 {
	block := make([][]float32, channels)
	for c := range block {
		block[c] = make([]float32, frames)
	}
	return block
}

func checkBlock(block [][]float32, channels int) error {
	if len(block) != channels {
		return fmt.Errorf("block has %d channels, source has %d", len(block), channels)
	}
	for c := 1; c < len(block); c++ {
		if len(block[c]) != len(block[0]) {
			return errors.New("block channels differ in length")
		}
	}
	return nil
}

// Tape is an in-memory source.
type Tape struct {
	rate    float64
	samples [][]float32
	index   int // Current frame
}

// NewTape creates a tape over parallel channel samples.
func NewTape(sampleRate float64, samples [][]float32) *Tape {
	return &Tape{
		rate:    sampleRate,
		samples: samples,
	}
}

// SampleRate implements Source.
func (t *Tape) SampleRate() float64 { return t.rate }

// Channels implements Source.
func (t *Tape) Channels() int { return len(t.samples) }

// Len returns the number of frames on the tape.
func (t *Tape) Len() int {
	if len(t.samples) == 0 {
		return 0
	}
	return len(t.samples[0])
}

// Samples returns the channel data.
func (t *Tape) Samples() [][]float32 {
	return t.samples
}

// Rewind moves back to the first frame.
func (t *Tape) Rewind() {
	t.index = 0
}

// ReadBlock implements Source.
func (t *Tape) ReadBlock(block [][]float32) (int, error) {
	if err := checkBlock(block, len(t.samples)); err != nil {
		return 0, err
	}
	if t.index >= t.Len() {
		return 0, io.EOF
	}
	n := 0
	for c := range block {
		n = copy(block[c], t.samples[c][t.index:])
	}
	t.index += n
	return n, nil
}

// Close implements Source.
func (t *Tape) Close() error { return nil }

// Record reads up to frames samples per channel from src into a tape.
func Record(src Source, frames int) (*Tape, error) {
	channels := src.Channels()
	samples := make([][]float32, channels)
	for c := range samples {
		samples[c] = make([]float32, 0, frames)
	}

	block := NewBlock(channels, 4096)
	for len(samples[0]) < frames {
		want := frames - len(samples[0])
		if want > 4096 {
			want = 4096
		}
		view := make([][]float32, channels)
		for c := range view {
			view[c] = block[c][:want]
		}
		n, err := src.ReadBlock(view)
		for c := range samples {
			samples[c] = append(samples[c], view[c][:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to record samples: %w", err)
		}
	}
	return NewTape(src.SampleRate(), samples), nil
}
