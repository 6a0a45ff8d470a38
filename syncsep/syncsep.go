// Package syncsep separates sync pulses from a composite signal.
//
// Each sample is classified as -1, 0 or +1 against the half-extremes of its
// channel envelope. A polarity run that lasts longer than half the nominal
// pulse length after an edge counts once; a sync pulse is confirmed on every
// second counted edge that arrives within the timeout window. The pairing
// rejects isolated noise spikes, and a timeout abandons a half-seen pulse so
// it cannot leak into the next detection cycle.
package syncsep

import (
	"github.com/sergev/cvdecode/envelope"
)

// MaxChannels is the number of channels the separator can watch at once.
const MaxChannels = 2

const (
	qualifyFraction = 0.5  // Run length (in pulse lengths) that qualifies an edge
	timeoutFraction = 1.25 // Window (in pulse lengths) for the paired edge
	edgesPerPulse   = 2
)

// Pulse describes a confirmed sync pulse.
// Polarity holds the polarity of each watched channel at the moment
// of confirmation; unused channels are zero.
type Pulse struct {
	Polarity [MaxChannels]int
}

// Luma returns the polarity of the first channel.
func (p Pulse) Luma() int { return p.Polarity[0] }

// Chroma returns the polarity of the second channel.
func (p Pulse) Chroma() int { return p.Polarity[1] }

// Separator holds the pulse state for one or two channels.
type Separator struct {
	channels    int
	pulseLength float64 // Nominal pulse width in seconds
	tick        float64 // Seconds per sample

	polarity [MaxChannels]int
	previous [MaxChannels]int
	length   float64 // Duration of the current non-zero run
	timeout  float64 // Remaining window for the paired edge
	edge     bool    // Set after a polarity change until the run qualifies
	count    int     // Qualified edges seen in the current pair

	present bool
}

// New creates a separator watching the given number of channels (1 or 2).
func New(channels int, pulseLength, sampleRate float64) *Separator {
	if channels < 1 {
		channels = 1
	}
	if channels > MaxChannels {
		channels = MaxChannels
	}
	return &Separator{
		channels:    channels,
		pulseLength: pulseLength,
		tick:        1.0 / sampleRate,
	}
}

// Channels returns the number of watched channels.
func (s *Separator) Channels() int {
	return s.channels
}

// Present reports whether the last step saw a signal wide enough for sync.
func (s *Separator) Present() bool {
	return s.present
}

// Pending returns the number of qualified edges waiting for their pair.
func (s *Separator) Pending() int {
	return s.count
}

// Reset returns all pulse state to neutral.
func (s *Separator) Reset() {
	s.polarity = [MaxChannels]int{}
	s.previous = [MaxChannels]int{}
	s.edge = false
	s.count = 0
}

// Step processes one sample per channel against its envelope.
// It returns the confirmed pulse and true when a sync pulse completes on
// this sample. When any channel envelope is too narrow the separator resets
// and reports nothing.
func (s *Separator) Step(samples [MaxChannels]float64, envs [MaxChannels]*envelope.Tracker) (Pulse, bool) {
	for c := 0; c < s.channels; c++ {
		if !envs[c].Present() {
			s.present = false
			s.Reset()
			return Pulse{}, false
		}
	}
	s.present = true

	changed := false
	active := true
	for c := 0; c < s.channels; c++ {
		s.polarity[c] = envs[c].Polarity(samples[c])
		if s.polarity[c] != s.previous[c] {
			changed = true
		}
		if s.polarity[c] == 0 {
			active = false
		}
	}

	if changed {
		s.length = 0
		s.previous = s.polarity
		s.edge = true
	}

	var pulse Pulse
	confirmed := false

	if active {
		s.length += s.tick

		if s.length > s.pulseLength*qualifyFraction && s.edge {
			s.edge = false
			s.count++
			s.timeout = s.pulseLength * timeoutFraction

			if s.count == edgesPerPulse {
				s.count = 0
				pulse.Polarity = s.polarity
				confirmed = true
			}
		}
	}

	if s.count > 0 {
		s.timeout -= s.tick
		if s.timeout <= 0 {
			s.count = 0
		}
	}

	return pulse, confirmed
}
