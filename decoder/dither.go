package decoder

import "math/rand/v2"

// DitherAmplitude is the peak-to-peak size of the noise added to every sample.
// It keeps flat inputs from producing banding and degenerate envelopes.
const DitherAmplitude = 0.01

// Dither supplies uniformly distributed values in [0,1).
// *rand.Rand satisfies it.
type Dither interface {
	Float64() float64
}

// NewDither returns a seeded dither source.
func NewDither(seed uint64) Dither {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Flat is a dither source that adds nothing; useful for exact tests.
type Flat struct{}

// Float64 returns the midpoint, which maps to a zero offset.
func (Flat) Float64() float64 { return 0.5 }

func offset(d Dither) float64 {
	return d.Float64()*DitherAmplitude - DitherAmplitude/2
}
