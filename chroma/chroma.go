// Package chroma recovers color from a line-alternating chroma channel.
//
// Successive lines carry the two color-difference components in turn.
// A delay line keeps the chroma of the previous line so each sample can be
// paired with its counterpart at the same position, and a one-bit field
// decides which of the two plays Cb and which plays Cr.
package chroma

import "math"

// DelayLine stores one decoded chroma value per sample position of a line.
// Writes beyond its capacity are dropped, so the start of a long line is
// preserved rather than overwritten.
type DelayLine struct {
	buf   []float64
	index int
}

// NewDelayLine creates a delay line holding capacity positions.
func NewDelayLine(capacity int) *DelayLine {
	if capacity < 0 {
		capacity = 0
	}
	return &DelayLine{
		buf: make([]float64, capacity),
	}
}

// DelayCapacity returns the delay line size for a sample rate: a tenth of a second.
func DelayCapacity(sampleRate float64) int {
	return int(math.Ceil(sampleRate / 10.0))
}

// Cap returns the number of positions the delay line can hold.
func (d *DelayLine) Cap() int {
	return len(d.buf)
}

// Index returns the current position within the line.
func (d *DelayLine) Index() int {
	return d.index
}

// Rewind moves back to the first position at a line boundary.
func (d *DelayLine) Rewind() {
	d.index = 0
}

// Exchange returns the value stored at the current position by an earlier
// line (0 if never written) and stores v in its place. The position
// advances only while it is below the capacity.
func (d *DelayLine) Exchange(v float64) float64 {
	if d.index >= len(d.buf) {
		return 0
	}
	last := d.buf[d.index]
	d.buf[d.index] = v
	d.index++
	return last
}

// Demodulator pairs the current chroma sample with the delayed one.
type Demodulator struct {
	Delay *DelayLine
	Field int // 0: current sample is Cr; 1: current sample is Cb
}

// NewDemodulator creates a demodulator with a delay line sized for the sample rate.
func NewDemodulator(sampleRate float64) *Demodulator {
	return &Demodulator{
		Delay: NewDelayLine(DelayCapacity(sampleRate)),
	}
}

// Toggle flips the component assignment, as on every line boundary.
func (d *Demodulator) Toggle() {
	d.Field ^= 1
}

// Decode combines luma y with the current chroma sample c and returns RGB.
func (d *Demodulator) Decode(y, c float64) (r, g, b uint8) {
	last := d.Delay.Exchange(c)
	if d.Field == 0 {
		return ToRGB(y, last, c)
	}
	return ToRGB(y, c, last)
}

// ToRGB converts Y, Cb, Cr (0..255 luma, signed chroma) into clamped 8-bit RGB.
func ToRGB(y, cb, cr float64) (r, g, b uint8) {
	return Clamp(y + 45*cr/32),
		Clamp(y - (11*cb+23*cr)/32),
		Clamp(y + 113*cb/64)
}

// Clamp rounds half up to the nearest integer and clamps to [0,255].
func Clamp(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
