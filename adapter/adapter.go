package adapter

import (
	"context"
	"log/slog"

	"github.com/sergev/cvdecode/decoder"
)

// Sink consumes blocks of parallel channel samples.
// *decoder.Engine satisfies it.
type Sink interface {
	Process(block [][]float32)
}

// DeliveryAdapter defines the interface for sample block sources
type DeliveryAdapter interface {
	// PrintStatus prints adapter status information to stdout
	PrintStatus()

	// SampleRate returns the rate at which blocks are delivered
	SampleRate() float64

	// Channels returns the number of channels in each block
	Channels() int

	// Run delivers blocks to the sink until the input ends or ctx is done.
	// Blocks are delivered from a single goroutine.
	Run(ctx context.Context, sink Sink) error

	// Close releases the input
	Close() error
}

// Options configure a new adapter
type Options struct {
	Input     string         // Input name; meaning depends on the adapter
	Decoder   decoder.Config // Requested signal parameters
	BlockSize int            // Samples per channel per block
	Realtime  bool           // Pace file input at the sample rate
	Logger    *slog.Logger
}

// WantChannels returns the channel count an input needs for the decoder.
func (o Options) WantChannels() int {
	if o.Decoder.Color {
		return 2
	}
	return 1
}

// Log returns the configured logger or the default one.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(block [][]float32)

// Process calls f(block).
func (f SinkFunc) Process(block [][]float32) {
	f(block)
}

// Limit wraps a sink so that it stops after the given number of samples
// per channel: the block that reaches the limit is truncated and cancel is
// called.
func Limit(sink Sink, samples int, cancel context.CancelFunc) Sink {
	remaining := samples
	view := make([][]float32, 0, 2)
	return SinkFunc(func(block [][]float32) {
		if remaining <= 0 || len(block) == 0 {
			return
		}
		n := len(block[0])
		if n >= remaining {
			view = view[:0]
			for _, ch := range block {
				view = append(view, ch[:min(remaining, len(ch))])
			}
			block = view
			n = remaining
		}
		sink.Process(block)
		remaining -= n
		if remaining <= 0 {
			cancel()
		}
	})
}
