package signal

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// wavSource streams integer PCM samples out of a WAV file.
type wavSource struct {
	closer   io.Closer
	decoder  *wav.Decoder
	channels int
	rate     float64
	scale    float64 // Full-scale divisor for the bit depth

	buf *audio.IntBuffer
}

// OpenWAV creates a source reading WAV data from r.
// If r is an io.Closer, Close closes it.
func OpenWAV(r io.ReadSeeker) (Source, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM data: %w", err)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV encoding %d (integer PCM only)", decoder.WavAudioFormat)
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	switch bitDepth {
	case 16, 24, 32:
	case 0:
		return nil, fmt.Errorf("unknown bit depth for WAV file")
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		return nil, fmt.Errorf("WAV file has %d channels, expected 1 or 2", format.NumChannels)
	}

	s := &wavSource{
		decoder:  decoder,
		channels: format.NumChannels,
		rate:     float64(format.SampleRate),
		scale:    float64(int64(1) << (bitDepth - 1)),
		buf: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: bitDepth,
		},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *wavSource) SampleRate() float64 { return s.rate }

func (s *wavSource) Channels() int { return s.channels }

func (s *wavSource) ReadBlock(block [][]float32) (int, error) {
	if err := checkBlock(block, s.channels); err != nil {
		return 0, err
	}
	want := len(block[0]) * s.channels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to decode PCM: %w", err)
	}
	frames := n / s.channels
	if frames == 0 {
		return 0, io.EOF
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < s.channels; c++ {
			block[c][i] = float32(float64(s.buf.Data[i*s.channels+c]) / s.scale)
		}
	}
	return frames, nil
}

func (s *wavSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// WriteWAV records frames samples per channel from src into a 16-bit PCM WAV file.
func WriteWAV(path string, src Source, frames int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	channels := src.Channels()
	encoder := wav.NewEncoder(f, int(src.SampleRate()), 16, channels, wavFormatPCM)

	const chunk = 4096
	block := NewBlock(channels, chunk)
	out := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(src.SampleRate()),
		},
		Data:           make([]int, chunk*channels),
		SourceBitDepth: 16,
	}

	for written := 0; written < frames; {
		want := frames - written
		if want > chunk {
			want = chunk
		}
		view := make([][]float32, channels)
		for c := range view {
			view[c] = block[c][:want]
		}
		n, err := src.ReadBlock(view)
		if n > 0 {
			out.Data = out.Data[:n*channels]
			for i := 0; i < n; i++ {
				for c := 0; c < channels; c++ {
					out.Data[i*channels+c] = toPCM16(view[c][i])
				}
			}
			if werr := encoder.Write(out); werr != nil {
				return fmt.Errorf("failed to write samples to %s: %w", path, werr)
			}
			written += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return nil
}

// toPCM16 converts a [-1,1] sample to a clamped 16-bit integer.
func toPCM16(v float32) int {
	var x int
	if v >= 0 {
		x = int(v*32767 + 0.5)
	} else {
		x = int(v*32767 - 0.5)
	}
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return x
}
