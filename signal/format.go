package signal

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned for files whose extension is not recognized.
var ErrUnknownFormat = errors.New("unknown recording format")

// Format identifies a recording format
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV            // RIFF WAVE, integer PCM
	FormatMP3            // MPEG-1 Layer III
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "WAV"
	case FormatMP3:
		return "MP3"
	default:
		return "Unknown"
	}
}

// compressedExt is the suffix of zstd-compressed recordings.
const compressedExt = ".zst"

// DetectFormat detects the recording format from a filename based on its
// extension. A trailing .zst marks a zstd-compressed recording; the format
// is then taken from the extension before it.
func DetectFormat(filename string) (format Format, compressed bool) {
	name := strings.ToLower(filename)
	if strings.HasSuffix(name, compressedExt) {
		compressed = true
		name = strings.TrimSuffix(name, compressedExt)
	}

	switch filepath.Ext(name) {
	case ".wav", ".wave":
		return FormatWAV, compressed
	case ".mp3":
		return FormatMP3, compressed
	default:
		return FormatUnknown, compressed
	}
}

// SupportedFormatsText describes accepted input files for command help.
const SupportedFormatsText = `Supported recordings:
    *.wav          - RIFF WAVE, 16/24/32-bit integer PCM, 1 or 2 channels
    *.mp3          - MPEG-1 Layer III (decoded as 16-bit stereo)
    *.wav.zst      - any of the above compressed with zstd`
