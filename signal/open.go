package signal

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/mitchellh/go-homedir"
)

// Open opens a recording and returns a streaming source.
// The format is chosen by extension; see DetectFormat.
func Open(path string) (Source, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %s: %w", path, err)
	}

	format, compressed := DetectFormat(p)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}

	var r io.ReadSeeker = f
	if compressed {
		data, err := decompress(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		r = bytes.NewReader(data)
	}

	var src Source
	switch format {
	case FormatWAV:
		src, err = OpenWAV(r)
	case FormatMP3:
		src, err = OpenMP3(r)
	}
	if err != nil {
		if !compressed {
			f.Close()
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	slog.Debug("opened recording",
		"path", p,
		"format", format.String(),
		"compressed", compressed,
		"sampleRate", src.SampleRate(),
		"channels", src.Channels(),
	)
	return src, nil
}

// decompress reads a whole zstd stream into memory. The WAV reader needs
// to seek, which a zstd stream cannot do.
func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// Compress copies src to dst through a zstd encoder.
func Compress(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}
	return enc.Close()
}
