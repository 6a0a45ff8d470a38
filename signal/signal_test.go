package signal

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		compressed bool
	}{
		{"capture.wav", FormatWAV, false},
		{"CAPTURE.WAV", FormatWAV, false},
		{"capture.wave", FormatWAV, false},
		{"song.mp3", FormatMP3, false},
		{"capture.wav.zst", FormatWAV, true},
		{"song.MP3.ZST", FormatMP3, true},
		{"notes.txt", FormatUnknown, false},
		{"archive.zst", FormatUnknown, true},
		{"noext", FormatUnknown, false},
	}
	for _, tt := range tests {
		format, compressed := DetectFormat(tt.name)
		if format != tt.format || compressed != tt.compressed {
			t.Errorf("DetectFormat(%q) = %v, %v; expected %v, %v",
				tt.name, format, compressed, tt.format, tt.compressed)
		}
	}
}

func TestTapeReadBlock(t *testing.T) {
	tape := NewTape(1000, [][]float32{
		{1, 2, 3, 4, 5},
		{-1, -2, -3, -4, -5},
	})
	block := NewBlock(2, 3)

	n, err := tape.ReadBlock(block)
	if err != nil || n != 3 {
		t.Fatalf("first read = %d, %v; expected 3, nil", n, err)
	}
	if block[0][2] != 3 || block[1][2] != -3 {
		t.Errorf("first read got %v %v", block[0], block[1])
	}

	n, err = tape.ReadBlock(block)
	if err != nil || n != 2 {
		t.Fatalf("second read = %d, %v; expected 2, nil", n, err)
	}
	if block[0][1] != 5 {
		t.Errorf("second read got %v", block[0][:n])
	}

	if _, err = tape.ReadBlock(block); err != io.EOF {
		t.Errorf("third read error = %v, expected io.EOF", err)
	}

	tape.Rewind()
	if n, _ := tape.ReadBlock(block); n != 3 {
		t.Errorf("read after rewind = %d, expected 3", n)
	}
}

func TestTapeRejectsWrongShape(t *testing.T) {
	tape := NewTape(1000, [][]float32{{1, 2}, {3, 4}})
	if _, err := tape.ReadBlock(NewBlock(1, 2)); err == nil {
		t.Error("expected error for a one-channel block")
	}
	if _, err := tape.ReadBlock([][]float32{make([]float32, 2), make([]float32, 1)}); err == nil {
		t.Error("expected error for unequal channels")
	}
}

func TestRecord(t *testing.T) {
	samples := make([]float32, 10000)
	for i := range samples {
		samples[i] = float32(i)
	}
	src := NewTape(8000, [][]float32{samples})

	tape, err := Record(src, 6000)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if tape.Len() != 6000 {
		t.Fatalf("recorded %d frames, expected 6000", tape.Len())
	}
	if tape.Samples()[0][5999] != 5999 {
		t.Errorf("last frame = %v, expected 5999", tape.Samples()[0][5999])
	}
	if tape.SampleRate() != 8000 {
		t.Errorf("sample rate = %v, expected 8000", tape.SampleRate())
	}

	// Short sources stop at EOF.
	tape, err = Record(NewTape(8000, [][]float32{{1, 2, 3}}), 100)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if tape.Len() != 3 {
		t.Errorf("recorded %d frames, expected 3", tape.Len())
	}
}

// sineTape returns a two-channel tape with a sine on the first channel and
// its negation on the second.
func sineTape(rate float64, frames int) *Tape {
	l := make([]float32, frames)
	r := make([]float32, frames)
	for i := range l {
		v := float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/rate))
		l[i] = v
		r[i] = -v
	}
	return NewTape(rate, [][]float32{l, r})
}

func checkRoundTrip(t *testing.T, src Source, want *Tape) {
	t.Helper()
	if src.SampleRate() != want.SampleRate() {
		t.Errorf("sample rate = %v, expected %v", src.SampleRate(), want.SampleRate())
	}
	if src.Channels() != 2 {
		t.Fatalf("channels = %d, expected 2", src.Channels())
	}
	got, err := Record(src, want.Len()+100)
	if err != nil {
		t.Fatalf("reading back failed: %v", err)
	}
	if got.Len() != want.Len() {
		t.Fatalf("read %d frames, expected %d", got.Len(), want.Len())
	}
	for c := 0; c < 2; c++ {
		for i := 0; i < want.Len(); i++ {
			d := math.Abs(float64(got.Samples()[c][i] - want.Samples()[c][i]))
			if d > 1.0/16384 {
				t.Fatalf("channel %d frame %d: got %v, expected %v", c, i, got.Samples()[c][i], want.Samples()[c][i])
			}
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	tape := sineTape(48000, 5000)

	if err := WriteWAV(path, tape, tape.Len()); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	tape.Rewind()

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()
	checkRoundTrip(t, src, tape)
}

func TestCompressedWAV(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "sine.wav")
	tape := sineTape(44100, 3000)
	if err := WriteWAV(plain, tape, tape.Len()); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	tape.Rewind()

	raw, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	var packed bytes.Buffer
	if err := Compress(&packed, bytes.NewReader(raw)); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	compressed := filepath.Join(dir, "sine.wav.zst")
	if err := os.WriteFile(compressed, packed.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(compressed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()
	checkRoundTrip(t, src, tape)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "capture.flac")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unknown extension: error = %v, expected ErrUnknownFormat", err)
	}
	if _, err := Open(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for a missing file")
	}

	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("this is not a wave file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(junk); err == nil {
		t.Error("expected error for an invalid WAV file")
	}
}

func TestToPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-2, -32768},
		{0.5, 16384},
	}
	for _, tt := range tests {
		if got := toPCM16(tt.in); got != tt.want {
			t.Errorf("toPCM16(%v) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}

func testEncoder(t *testing.T, color bool, picture Picture) *Encoder {
	t.Helper()
	enc, err := NewEncoder(EncoderConfig{
		Color:       color,
		SampleRate:  48000,
		HFreq:       225,
		VFreq:       3,
		PulseLength: 0.2 / 1000,
		OverScan:    0.82,
		HOffset:     0.06525,
	}, picture)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	return enc
}

func gray(x, y float64) (r, g, b float64) { return 0.5, 0.5, 0.5 }

func TestEncoderGeometry(t *testing.T) {
	enc := testEncoder(t, true, gray)
	if enc.LinesPerField() != 75 {
		t.Errorf("lines per field = %d, expected 75", enc.LinesPerField())
	}
	if math.Abs(enc.FieldLength()-16000) > 1e-6 {
		t.Errorf("field length = %v, expected 16000", enc.FieldLength())
	}
	if enc.Channels() != 2 {
		t.Errorf("channels = %d, expected 2", enc.Channels())
	}
}

func TestEncoderColorSync(t *testing.T) {
	enc := testEncoder(t, true, gray)
	line := int64(math.Ceil(enc.LineLength()))

	// Field 0, line 0: opposite tips, luma positive on the second tip.
	if l, c := enc.Sample(2); l != -SyncLevel || c != SyncLevel {
		t.Errorf("marker first tip = %v, %v", l, c)
	}
	if l, c := enc.Sample(12); l != SyncLevel || c != -SyncLevel {
		t.Errorf("marker second tip = %v, %v", l, c)
	}

	// Line 1 carries Cr: both second tips positive.
	if l, c := enc.Sample(line + 12); l != SyncLevel || c != SyncLevel {
		t.Errorf("odd line second tip = %v, %v", l, c)
	}
	// Line 2 carries Cb: both second tips negative.
	if l, c := enc.Sample(2*line + 12); l != -SyncLevel || c != -SyncLevel {
		t.Errorf("even line second tip = %v, %v", l, c)
	}

	// Field 1 marker: luma negative on the second tip.
	start := int64(math.Ceil(enc.FieldLength()))
	if l, c := enc.Sample(start + 12); l != -SyncLevel || c != SyncLevel {
		t.Errorf("field 1 marker second tip = %v, %v", l, c)
	}
}

func TestEncoderVideoLevels(t *testing.T) {
	enc := testEncoder(t, true, gray)
	l, c := enc.Sample(100)
	// Mid gray has no color difference and zero luma level.
	if math.Abs(l) > 1e-9 {
		t.Errorf("gray luma = %v, expected 0", l)
	}
	if want := ChromaScale * 0.5 / 255; math.Abs(c-want) > 1e-9 {
		t.Errorf("gray chroma = %v, expected %v", c, want)
	}

	white := testEncoder(t, true, func(x, y float64) (float64, float64, float64) { return 1, 1, 1 })
	if l, _ := white.Sample(100); math.Abs(l-Amplitude) > 1e-9 {
		t.Errorf("white luma = %v, expected %v", l, Amplitude)
	}

	// Video never reaches the half-envelope sync threshold.
	red := testEncoder(t, true, func(x, y float64) (float64, float64, float64) { return 1, 0, 0 })
	for n := int64(0); n < 2000; n++ {
		l, c := red.Sample(n)
		if math.Abs(l) != SyncLevel && (math.Abs(l) >= 0.5 || math.Abs(c) >= 0.5) {
			t.Fatalf("sample %d: video level %v, %v crosses the sync threshold", n, l, c)
		}
	}
}

func TestEncoderMonoSync(t *testing.T) {
	enc := testEncoder(t, false, gray)
	if l, c := enc.Sample(12); l != -SyncLevel || c != -SyncLevel {
		t.Errorf("field 0 second tip = %v, %v", l, c)
	}
	start := int64(math.Ceil(enc.FieldLength()))
	if l, c := enc.Sample(start + 12); l != SyncLevel || c != SyncLevel {
		t.Errorf("field 1 second tip = %v, %v", l, c)
	}
	if l, c := enc.Sample(start + 100); l != c {
		t.Errorf("mono channels differ: %v, %v", l, c)
	}
}

func TestEncoderReadBlock(t *testing.T) {
	enc := testEncoder(t, true, gray)
	block := NewBlock(2, 1000)
	for i := 0; i < 3; i++ {
		n, err := enc.ReadBlock(block)
		if err != nil || n != 1000 {
			t.Fatalf("ReadBlock = %d, %v", n, err)
		}
	}
	l, c := enc.Sample(2999)
	if block[0][999] != float32(l) || block[1][999] != float32(c) {
		t.Errorf("block does not continue the stream")
	}

	if _, err := NewEncoder(EncoderConfig{SampleRate: 48000}, gray); err == nil {
		t.Error("expected error for missing timing")
	}
}
