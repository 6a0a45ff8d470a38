// Package capture delivers live audio input to the decoder. PortAudio
// calls back with every hardware buffer and the buffer goes straight into
// the sink from the callback.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/sergev/cvdecode/adapter"
)

// Client is a live input stream from the default input device.
type Client struct {
	device    *portaudio.DeviceInfo
	rate      float64
	channels  int
	blockSize int
	logger    *slog.Logger

	sink    adapter.Sink
	stopped atomic.Bool // Set once the sink must not be called again
	blocks  atomic.Uint64
	samples atomic.Uint64
}

// NewClient opens the default input device.
func NewClient(opts adapter.Options) (adapter.DeliveryAdapter, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("no default input device: %w", err)
	}

	// Monochrome takes a stereo pair when the device has one.
	channels := opts.WantChannels()
	if device.MaxInputChannels >= 2 {
		channels = 2
	}
	if device.MaxInputChannels < channels {
		portaudio.Terminate()
		return nil, fmt.Errorf("input device %q has %d channel(s), need %d",
			device.Name, device.MaxInputChannels, channels)
	}

	rate := opts.Decoder.SampleRate
	if rate <= 0 {
		rate = device.DefaultSampleRate
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 1024
	}

	return &Client{
		device:    device,
		rate:      rate,
		channels:  channels,
		blockSize: blockSize,
		logger:    opts.Log(),
	}, nil
}

// SampleRate implements adapter.DeliveryAdapter.
func (c *Client) SampleRate() float64 { return c.rate }

// Channels implements adapter.DeliveryAdapter.
func (c *Client) Channels() int { return c.channels }

// callback runs on the audio thread with non-interleaved input buffers.
func (c *Client) callback(in [][]float32) {
	if c.stopped.Load() {
		return
	}
	c.sink.Process(in)
	c.blocks.Add(1)
	if len(in) > 0 {
		c.samples.Add(uint64(len(in[0])))
	}
}

// Run implements adapter.DeliveryAdapter. The stream runs until ctx is done.
func (c *Client) Run(ctx context.Context, sink adapter.Sink) error {
	if sink == nil {
		return errors.New("no sink")
	}
	c.sink = sink
	c.stopped.Store(false)

	stream, err := portaudio.OpenDefaultStream(c.channels, 0, c.rate, c.blockSize, c.callback)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	c.logger.Debug("capture started",
		"device", c.device.Name,
		"sampleRate", c.rate,
		"channels", c.channels,
		"blockSize", c.blockSize,
	)

	<-ctx.Done()
	c.stopped.Store(true)

	if err := stream.Stop(); err != nil {
		if abortErr := stream.Abort(); abortErr != nil {
			c.logger.Error("failed to abort input stream", "error", abortErr)
		}
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	c.logger.Debug("capture stopped", "blocks", c.blocks.Load(), "samples", c.samples.Load())
	return ctx.Err()
}

// PrintStatus implements adapter.DeliveryAdapter.
func (c *Client) PrintStatus() {
	fmt.Printf("%s\n", portaudio.VersionText())
	if c.device.HostApi != nil {
		fmt.Printf("Host API: %s\n", c.device.HostApi.Name)
	}
	fmt.Printf("Input Device: %s\n", c.device.Name)
	fmt.Printf("Channels: %d available, %d used\n", c.device.MaxInputChannels, c.channels)
	fmt.Printf("Sample Rate: %.0f Hz (device default %.0f Hz)\n", c.rate, c.device.DefaultSampleRate)
	fmt.Printf("Latency: %s...%s\n", c.device.DefaultLowInputLatency, c.device.DefaultHighInputLatency)
}

// Close implements adapter.DeliveryAdapter.
func (c *Client) Close() error {
	return portaudio.Terminate()
}

func init() {
	adapter.RegisterAdapter("live", "default audio input device, pushed from the audio callback", NewClient)
}
