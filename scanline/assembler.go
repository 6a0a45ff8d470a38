package scanline

// Assembler builds the current scanline sample by sample and flushes it
// to a queue on blanking.
type Assembler struct {
	queue     *Queue
	maxLength int // Sample cap per line
	current   *Line

	discarded uint64
}

// NewAssembler creates an assembler that caps lines at maxLength samples.
func NewAssembler(queue *Queue, maxLength int) *Assembler {
	if maxLength < 0 {
		maxLength = 0
	}
	a := &Assembler{
		queue:     queue,
		maxLength: maxLength,
	}
	a.current = a.newLine(0, 0)
	return a
}

func (a *Assembler) newLine(x1, y float64) *Line {
	return &Line{
		X1:      x1,
		Y:       y,
		Samples: make([]Sample, 0, a.maxLength),
	}
}

// Current returns the line under construction.
func (a *Assembler) Current() *Line {
	return a.current
}

// Discarded returns the number of lines filtered out as too short.
func (a *Assembler) Discarded() uint64 {
	return a.discarded
}

// Append adds a sample to the current line unless it is already full.
// The line's MaxPhase always follows the latest phase.
func (a *Assembler) Append(phase float64, r, g, b uint8) {
	l := a.current
	if len(l.Samples) < a.maxLength {
		l.Samples = append(l.Samples, Sample{Phase: phase, R: r, G: g, B: b})
	}
	l.MaxPhase = phase
}

// SetEnd records the horizontal end position of the current line.
func (a *Assembler) SetEnd(x2 float64) {
	a.current.X2 = x2
}

// Flush completes the current line and starts a new one at (x1, y).
// Lines with too little content are discarded and their storage reused.
// Returns true when the line was accepted by the queue.
func (a *Assembler) Flush(x1, y float64) bool {
	l := a.current
	if !l.Emittable() {
		a.discarded++
		l.Samples = l.Samples[:0]
		l.X1, l.Y, l.X2, l.MaxPhase = x1, y, 0, 0
		return false
	}

	pushed := a.queue.Push(l)
	if pushed {
		a.current = a.newLine(x1, y)
	} else {
		// Nobody will see the dropped line; recycle it.
		l.Samples = l.Samples[:0]
		l.X1, l.Y, l.X2, l.MaxPhase = x1, y, 0, 0
	}
	return pushed
}
