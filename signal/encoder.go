package signal

import (
	"errors"
	"fmt"
	"math"
)

// Picture returns the color at screen position (x,y), both in [0,1).
// Components are in [0,1].
type Picture func(x, y float64) (r, g, b float64)

// Signal levels of the synthetic encoder.
// Video stays inside +/- Amplitude so that only sync tips cross the
// half-envelope thresholds of the sync separator.
const (
	SyncLevel   = 1.0
	Amplitude   = 0.45 // Luma swing around zero
	ChromaScale = 0.9  // Chroma gain applied before encoding
)

// EncoderConfig describes the signal the encoder produces.
type EncoderConfig struct {
	Color       bool
	SampleRate  float64
	HFreq       float64
	VFreq       float64
	PulseLength float64 // Seconds
	OverScan    float64
	HOffset     float64
}

// Encoder produces an endless composite signal for a picture.
//
// Every line starts with a two-part sync: a tip of one polarity followed by
// a tip of the opposite polarity, each one pulse long. The second tip
// carries the line information. In color mode the luma channel holds Y and
// the chroma channel alternates Cr and Cb by line; the first line of each
// field has opposite tips on the two channels. In monochrome mode both
// channels hold the same signal and the tip polarity identifies the field.
type Encoder struct {
	cfg     EncoderConfig
	picture Picture

	lineLength    float64 // Samples per line
	pulse         float64 // Samples per sync tip
	linesPerField int64
	n             int64 // Next sample index
}

// NewEncoder creates an encoder drawing the given picture.
func NewEncoder(cfg EncoderConfig, picture Picture) (*Encoder, error) {
	if picture == nil {
		return nil, errors.New("encoder needs a picture")
	}
	if !(cfg.SampleRate > 0) || !(cfg.HFreq > 0) || !(cfg.VFreq > 0) || !(cfg.PulseLength > 0) || !(cfg.OverScan > 0) {
		return nil, fmt.Errorf("invalid encoder timing %+v", cfg)
	}
	e := &Encoder{
		cfg:           cfg,
		picture:       picture,
		lineLength:    cfg.SampleRate / cfg.HFreq,
		pulse:         cfg.PulseLength * cfg.SampleRate,
		linesPerField: int64(math.Round(cfg.HFreq / cfg.VFreq)),
	}
	if e.linesPerField < 2 {
		return nil, fmt.Errorf("line frequency %v gives fewer than two lines per field", cfg.HFreq)
	}
	if 2*e.pulse >= e.lineLength {
		return nil, fmt.Errorf("sync of %.1f samples does not fit a line of %.1f samples", 2*e.pulse, e.lineLength)
	}
	return e, nil
}

// LineLength returns the number of samples per line.
func (e *Encoder) LineLength() float64 { return e.lineLength }

// LinesPerField returns the number of lines per field.
func (e *Encoder) LinesPerField() int { return int(e.linesPerField) }

// FieldLength returns the number of samples per field.
func (e *Encoder) FieldLength() float64 { return e.lineLength * float64(e.linesPerField) }

// SampleRate implements Source.
func (e *Encoder) SampleRate() float64 { return e.cfg.SampleRate }

// Channels implements Source. Monochrome output repeats the signal on
// both channels.
func (e *Encoder) Channels() int { return 2 }

// ReadBlock implements Source. The stream never ends.
func (e *Encoder) ReadBlock(block [][]float32) (int, error) {
	if err := checkBlock(block, 2); err != nil {
		return 0, err
	}
	for i := range block[0] {
		l, c := e.Sample(e.n)
		e.n++
		block[0][i] = float32(l)
		block[1][i] = float32(c)
	}
	return len(block[0]), nil
}

// Close implements Source.
func (e *Encoder) Close() error { return nil }

// Sample returns the luma and chroma channel values at sample index n.
func (e *Encoder) Sample(n int64) (luma, chroma float64) {
	line := int64(math.Floor(float64(n) / e.lineLength))
	pos := float64(n) - float64(line)*e.lineLength
	fieldLine := line % e.linesPerField
	field := int((line / e.linesPerField) % 2)

	if !e.cfg.Color {
		tip := SyncLevel
		if field == 0 {
			tip = -SyncLevel
		}
		switch {
		case pos < e.pulse:
			return -tip, -tip
		case pos < 2*e.pulse:
			return tip, tip
		}
		y, _, _ := e.video(pos, fieldLine, field)
		return y, y
	}

	// Odd lines carry Cr, even lines Cb; line zero marks the field.
	crLine := fieldLine%2 == 1
	lumaTip, chromaTip := -SyncLevel, -SyncLevel
	switch {
	case fieldLine == 0:
		lumaTip = SyncLevel
		if field == 1 {
			lumaTip = -SyncLevel
		}
		chromaTip = -lumaTip
	case crLine:
		lumaTip, chromaTip = SyncLevel, SyncLevel
	}
	switch {
	case pos < e.pulse:
		return -lumaTip, -chromaTip
	case pos < 2*e.pulse:
		return lumaTip, chromaTip
	}

	y, cb, cr := e.video(pos, fieldLine, field)
	cv := cb
	if crLine {
		cv = cr
	}
	return y, ChromaScale * (cv + 0.5) / 255
}

// video returns the luma level and the 8-bit scale color differences of
// the picture at a line position.
func (e *Encoder) video(pos float64, fieldLine int64, field int) (y, cb, cr float64) {
	// The decoder starts a line when the second tip is half seen.
	phase := (pos - 1.5*e.pulse) / e.lineLength
	x := (phase - e.cfg.HOffset) / e.cfg.OverScan
	v := (float64(fieldLine) + float64(field)*0.5) / float64(e.linesPerField)
	if x < 0 || x >= 1 {
		return -Amplitude, 0, 0
	}

	r, g, b := e.picture(x, v)
	r, g, b = unit(r)*255, unit(g)*255, unit(b)*255
	luma := 0.299*r + 0.587*g + 0.114*b
	cb = (b - luma) / 1.765625
	cr = (r - luma) / 1.40625
	return Amplitude * (2*luma/255 - 1), cb, cr
}

func unit(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
