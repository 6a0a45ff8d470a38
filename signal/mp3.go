package signal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// mp3 always decodes to interleaved 16-bit little-endian stereo.
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

type mp3Source struct {
	closer  io.Closer
	decoder *mp3.Decoder
	raw     []byte
}

// OpenMP3 creates a source decoding MP3 data from r.
// If r is an io.Closer, Close closes it.
func OpenMP3(r io.Reader) (Source, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("invalid MP3 stream: %w", err)
	}
	s := &mp3Source{decoder: decoder}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *mp3Source) SampleRate() float64 { return float64(s.decoder.SampleRate()) }

func (s *mp3Source) Channels() int { return mp3Channels }

func (s *mp3Source) ReadBlock(block [][]float32) (int, error) {
	if err := checkBlock(block, mp3Channels); err != nil {
		return 0, err
	}
	frameBytes := mp3Channels * mp3BytesPerSample
	want := len(block[0]) * frameBytes
	if cap(s.raw) < want {
		s.raw = make([]byte, want)
	}
	s.raw = s.raw[:want]

	n, err := io.ReadFull(s.decoder, s.raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("failed to decode MP3: %w", err)
	}
	frames := n / frameBytes
	if frames == 0 {
		return 0, io.EOF
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < mp3Channels; c++ {
			off := i*frameBytes + c*mp3BytesPerSample
			v := int16(binary.LittleEndian.Uint16(s.raw[off:]))
			block[c][i] = float32(v) / 32768
		}
	}
	return frames, nil
}

func (s *mp3Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
