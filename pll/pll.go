package pll

// Timing recovery constants
const (
	// LockWindowMin and LockWindowMax bound an accepted sync interval,
	// as a multiple of the nominal period. Anything outside is treated as
	// a spurious double- or half-rate detection and does not move the period.
	LockWindowMin = 0.5
	LockWindowMax = 1.5

	// HorizontalBlend is the weight of a measured line interval
	HorizontalBlend = 0.1
	// VerticalBlend is the weight of a measured field interval
	VerticalBlend = 0.25
)

// Oscillator is a free-running phase accumulator driven by a period estimate.
// Every tick the period relaxes toward Target with a time constant of about
// one second; a confirmed sync pulls it toward the measured interval.
type Oscillator struct {
	Target float64 // Nominal period in samples
	Period float64 // Current period estimate in samples
	Phase  float64 // Position within the period, in [0,1)
	Last   uint64  // Sample counter at the most recent confirmed sync
	Blend  float64 // Weight of a measured interval on lock

	pull float64 // Free-run weight per tick, 1/sampleRate
}

// Init initializes the oscillator for a nominal frequency in Hz.
func Init(osc *Oscillator, freq, sampleRate, blend float64) {
	osc.Target = sampleRate / freq
	osc.Period = osc.Target
	osc.Phase = 0
	osc.Last = 0
	osc.Blend = blend
	osc.pull = 1.0 / sampleRate
}

// Advance moves the phase forward by one sample.
func (osc *Oscillator) Advance() {
	osc.Phase += 1.0 / osc.Period
}

// Pull relaxes the period toward the nominal target by one tick.
func (osc *Oscillator) Pull() {
	osc.Period = osc.Period*(1.0-osc.pull) + osc.Target*osc.pull
}

// Wrap folds the phase back into [0,1) and reports whether it wrapped.
func (osc *Oscillator) Wrap() bool {
	if osc.Phase < 1.0 {
		return false
	}
	osc.Phase -= 1.0
	return true
}

// InWindow reports whether an interval is a plausible period measurement.
func (osc *Oscillator) InWindow(interval float64) bool {
	return interval > osc.Target*LockWindowMin && interval < osc.Target*LockWindowMax
}

// Lock handles a confirmed sync at the given sample counter.
// The period is blended toward the measured interval only when it lies
// inside the lock window; the sync time and phase are always re-anchored.
// Returns true when the period was adjusted.
func (osc *Oscillator) Lock(time uint64) bool {
	interval := float64(time - osc.Last)
	adjusted := false
	if osc.InWindow(interval) {
		osc.Period = osc.Period*(1.0-osc.Blend) + interval*osc.Blend
		adjusted = true
	}
	osc.Last = time
	osc.Phase = 0
	return adjusted
}

// Timing holds the sample counter and the two oscillators of a video signal.
type Timing struct {
	Time uint64     // Samples processed since the engine started
	H    Oscillator // Line oscillator
	V    Oscillator // Field oscillator
}

// NewTiming creates line and field oscillators for the nominal rates.
func NewTiming(hFreq, vFreq, sampleRate float64) *Timing {
	t := &Timing{}
	Init(&t.H, hFreq, sampleRate, HorizontalBlend)
	Init(&t.V, vFreq, sampleRate, VerticalBlend)
	return t
}

// Advance moves both phases forward by one sample.
func (t *Timing) Advance() {
	t.H.Advance()
	t.V.Advance()
}

// Pull relaxes both periods toward their targets.
func (t *Timing) Pull() {
	t.H.Pull()
	t.V.Pull()
}
