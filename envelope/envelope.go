package envelope

// Floor values keep max-min away from zero for each channel kind.
const (
	LumaFloor   = 0.025
	ChromaFloor = 0.05

	// PresenceRange is the minimum envelope width treated as a live signal.
	PresenceRange = 0.1
)

// Tracker follows the decaying min/max envelope of one channel.
// Both extremes relax toward zero with a time constant of about one second,
// and are held outside +/- Floor so the normalization never divides by zero.
type Tracker struct {
	Min   float64 // Lowest recent excursion, always <= -Floor
	Max   float64 // Highest recent excursion, always >= +Floor
	Floor float64 // Minimum magnitude of both extremes

	decay float64 // Per-tick multiplier, 1 - 1/sampleRate
}

// New creates a tracker with the given floor and starting extremes.
func New(floor, sampleRate, min, max float64) *Tracker {
	t := &Tracker{
		Min:   min,
		Max:   max,
		Floor: floor,
		decay: 1.0 - 1.0/sampleRate,
	}
	t.clamp()
	return t
}

// NewLuma creates a tracker for the luma (or monochrome) channel.
func NewLuma(sampleRate float64) *Tracker {
	return New(LumaFloor, sampleRate, 0, 1)
}

// NewChroma creates a tracker for the chroma channel.
func NewChroma(sampleRate float64) *Tracker {
	return New(ChromaFloor, sampleRate, -1, 1)
}

// Update widens the envelope to include the sample, decays it and clamps
// it to the floor.
func (t *Tracker) Update(sample float64) {
	if sample < t.Min {
		t.Min = sample
	}
	if sample > t.Max {
		t.Max = sample
	}

	t.Min *= t.decay
	t.Max *= t.decay

	t.clamp()
}

func (t *Tracker) clamp() {
	if t.Min > -t.Floor {
		t.Min = -t.Floor
	}
	if t.Max < t.Floor {
		t.Max = t.Floor
	}
}

// Range returns max-min, which is at least 2*Floor.
func (t *Tracker) Range() float64 {
	return t.Max - t.Min
}

// Present reports whether the envelope is wide enough to carry sync.
func (t *Tracker) Present() bool {
	return t.Range() > PresenceRange
}

// Normalize maps a sample to the unit scale used by the decoder:
// (sample*2 - min) / (max - min).
func (t *Tracker) Normalize(sample float64) float64 {
	return (sample*2.0 - t.Min) / (t.Max - t.Min)
}

// Polarity classifies a sample against the half-extremes of the envelope:
// -1 below Min/2, +1 above Max/2, 0 in between.
func (t *Tracker) Polarity(sample float64) int {
	switch {
	case sample < t.Min*0.5:
		return -1
	case sample > t.Max*0.5:
		return 1
	default:
		return 0
	}
}
