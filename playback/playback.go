// Package playback delivers recorded or generated samples to the decoder
// by polling a source for fixed-size blocks.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sergev/cvdecode/adapter"
	"github.com/sergev/cvdecode/patterns"
	"github.com/sergev/cvdecode/signal"
)

// DefaultBlockSize is used when the options leave the block size unset.
const DefaultBlockSize = 1024

// patternPrefix selects the signal generator instead of a file.
const patternPrefix = "pattern:"

// Player pulls blocks from a source.
type Player struct {
	src       signal.Source
	name      string
	blockSize int
	realtime  bool
	logger    *slog.Logger

	blocks  uint64
	samples uint64
}

// New creates a player for a source.
func New(src signal.Source, name string, blockSize int, realtime bool, logger *slog.Logger) *Player {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		src:       src,
		name:      name,
		blockSize: blockSize,
		realtime:  realtime,
		logger:    logger,
	}
}

// NewClient creates a player from adapter options. The input is a file
// name, or "pattern:NAME" for an endless generated signal matching the
// requested decoder timing.
func NewClient(opts adapter.Options) (adapter.DeliveryAdapter, error) {
	if opts.Input == "" {
		return nil, errors.New("no input file given")
	}

	var src signal.Source
	if name, ok := strings.CutPrefix(opts.Input, patternPrefix); ok {
		picture, err := patterns.GetPattern(name)
		if err != nil {
			return nil, err
		}
		src, err = signal.NewEncoder(adapter.EncoderConfig(opts.Decoder), picture)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		src, err = signal.Open(opts.Input)
		if err != nil {
			return nil, err
		}
	}
	return New(src, opts.Input, opts.BlockSize, opts.Realtime, opts.Log()), nil
}

// SampleRate implements adapter.DeliveryAdapter.
func (p *Player) SampleRate() float64 { return p.src.SampleRate() }

// Channels implements adapter.DeliveryAdapter.
func (p *Player) Channels() int { return p.src.Channels() }

// Blocks returns the number of blocks delivered.
func (p *Player) Blocks() uint64 { return p.blocks }

// Samples returns the number of samples per channel delivered.
func (p *Player) Samples() uint64 { return p.samples }

// Run implements adapter.DeliveryAdapter.
func (p *Player) Run(ctx context.Context, sink adapter.Sink) error {
	block := signal.NewBlock(p.src.Channels(), p.blockSize)
	view := make([][]float32, len(block))

	var tick <-chan time.Time
	if p.realtime {
		period := time.Duration(float64(p.blockSize) / p.src.SampleRate() * float64(time.Second))
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	p.logger.Debug("playback started", "input", p.name, "blockSize", p.blockSize, "realtime", p.realtime)
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.src.ReadBlock(block)
		if n > 0 {
			for c := range block {
				view[c] = block[c][:n]
			}
			sink.Process(view)
			p.blocks++
			p.samples += uint64(n)
		}
		if errors.Is(err, io.EOF) {
			p.logger.Debug("playback finished", "input", p.name, "blocks", p.blocks, "samples", p.samples)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p.name, err)
		}
	}
}

// PrintStatus implements adapter.DeliveryAdapter.
func (p *Player) PrintStatus() {
	fmt.Printf("Input: %s\n", p.name)
	fmt.Printf("Sample Rate: %.0f Hz, %d channel(s)\n", p.src.SampleRate(), p.src.Channels())
	fmt.Printf("Block Size: %d samples\n", p.blockSize)
	fmt.Printf("Delivered: %d blocks, %d samples\n", p.blocks, p.samples)
}

// Close implements adapter.DeliveryAdapter.
func (p *Player) Close() error {
	return p.src.Close()
}

func init() {
	adapter.RegisterAdapter("file", "recorded file or pattern:NAME, pulled in blocks", NewClient)
}
