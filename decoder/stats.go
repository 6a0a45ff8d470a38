package decoder

// Stats is a snapshot of the engine state taken at the end of a block.
type Stats struct {
	Time        uint64  // Samples processed
	HPeriod     float64 // Current line period in samples
	VPeriod     float64 // Current field period in samples
	HTarget     float64
	VTarget     float64
	HPhase      float64
	VPhase      float64
	Field       int
	ChromaField int
	Present     bool // Signal wide enough for sync detection

	HSyncs uint64 // Confirmed horizontal sync pulses
	VSyncs uint64 // Confirmed vertical sync pulses
	HWraps uint64 // Line boundaries from the free-running oscillator
	VWraps uint64 // Field boundaries from the free-running oscillator

	LinesPushed    uint64 // Lines accepted by the output queue
	LinesDropped   uint64 // Lines rejected by a full queue
	LinesDiscarded uint64 // Lines filtered out as too short

	BlocksProcessed uint64
	BlocksSkipped   uint64 // Blocks rejected for their shape
}

// publish copies the current state into the stats snapshot.
// It runs once per block, outside the sample loop.
func (e *Engine) publish() {
	t := e.timing
	q := e.queue.Stats()
	s := Stats{
		Time:            t.Time,
		HPeriod:         t.H.Period,
		VPeriod:         t.V.Period,
		HTarget:         t.H.Target,
		VTarget:         t.V.Target,
		HPhase:          t.H.Phase,
		VPhase:          t.V.Phase,
		Field:           e.field,
		Present:         e.sep.Present(),
		HSyncs:          e.hSyncs,
		VSyncs:          e.vSyncs,
		HWraps:          e.hWraps,
		VWraps:          e.vWraps,
		LinesPushed:     q.Pushed,
		LinesDropped:    q.Dropped,
		LinesDiscarded:  e.asm.Discarded(),
		BlocksProcessed: e.blocks,
		BlocksSkipped:   e.skipped,
	}
	if e.demod != nil {
		s.ChromaField = e.demod.Field
	}

	e.statsMu.Lock()
	e.stats = s
	e.statsMu.Unlock()
}

// Stats returns the snapshot taken at the end of the last block.
// It is safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}
