package scanline

const (
	// MinSamples is the sample count a line must exceed to be emitted.
	MinSamples = 5
)

// Sample is one colored point along a scanline.
type Sample struct {
	Phase float64 `msgpack:"phase"` // Horizontal phase at which the sample was taken
	R     uint8   `msgpack:"r"`
	G     uint8   `msgpack:"g"`
	B     uint8   `msgpack:"b"`
}

// Line is a completed scanline ready for gradient rendering.
// It spans from (X1, Y) to (X2, Y); each sample sits at Phase/MaxPhase
// along that span.
type Line struct {
	X1       float64  `msgpack:"x1"`
	Y        float64  `msgpack:"y"`
	X2       float64  `msgpack:"x2"`
	MaxPhase float64  `msgpack:"maxPhase"`
	Samples  []Sample `msgpack:"colors"`
}

// Emittable reports whether the line carries enough content to be drawn.
func (l *Line) Emittable() bool {
	return len(l.Samples) > MinSamples && l.MaxPhase > 0
}

// Stop returns the relative position of a sample along the line, in [0,1].
func (l *Line) Stop(i int) float64 {
	if l.MaxPhase <= 0 {
		return 0
	}
	return l.Samples[i].Phase / l.MaxPhase
}
