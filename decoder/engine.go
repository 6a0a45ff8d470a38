// Package decoder turns a composite-video signal carried on audio channels
// into scanline records.
//
// An Engine is driven by a single producer: each call to Process consumes a
// block of samples and mutates the decoder state, which carries over
// unchanged to the next block. Completed scanlines leave through a bounded
// queue that drops lines rather than blocking when the consumer falls
// behind.
package decoder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sergev/cvdecode/chroma"
	"github.com/sergev/cvdecode/envelope"
	"github.com/sergev/cvdecode/pll"
	"github.com/sergev/cvdecode/scanline"
	"github.com/sergev/cvdecode/syncsep"
)

// Engine is one decoding state machine.
type Engine struct {
	cfg    Config
	dither Dither
	logger *slog.Logger

	envs   [syncsep.MaxChannels]*envelope.Tracker
	sep    *syncsep.Separator
	timing *pll.Timing
	demod  *chroma.Demodulator // nil in monochrome mode
	field  int

	asm   *scanline.Assembler
	queue *scanline.Queue

	hSyncs, vSyncs  uint64
	hWraps, vWraps  uint64
	blocks, skipped uint64
	present         bool

	scratch [][]float32 // De-interleaved block for ProcessInterleaved

	statsMu sync.Mutex
	stats   Stats
}

// Option customizes an Engine.
type Option func(*Engine)

// WithDither replaces the default dither source.
func WithDither(d Dither) Option {
	return func(e *Engine) {
		e.dither = d
	}
}

// WithLogger sets the logger for signal state changes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithQueue sends completed lines to an existing queue.
func WithQueue(q *scanline.Queue) Option {
	return func(e *Engine) {
		e.queue = q
	}
}

// New creates an engine for the given configuration.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.dither == nil {
		e.dither = NewDither(uint64(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.queue == nil {
		e.queue = scanline.NewQueue(scanline.QueueCapacity)
	}

	e.envs[0] = envelope.NewLuma(cfg.SampleRate)
	channels := 1
	if cfg.Color {
		channels = 2
		e.envs[1] = envelope.NewChroma(cfg.SampleRate)
		e.demod = chroma.NewDemodulator(cfg.SampleRate)
	}
	e.sep = syncsep.New(channels, cfg.PulseLength, cfg.SampleRate)
	e.timing = pll.NewTiming(cfg.HFreq, cfg.VFreq, cfg.SampleRate)
	e.asm = scanline.NewAssembler(e.queue, cfg.MaxLineSamples())

	e.logger.Debug("decoder created",
		"color", cfg.Color,
		"sampleRate", cfg.SampleRate,
		"hTarget", e.timing.H.Target,
		"vTarget", e.timing.V.Target,
		"maxLineSamples", cfg.MaxLineSamples(),
	)
	e.publish()
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Queue returns the output queue.
func (e *Engine) Queue() *scanline.Queue {
	return e.queue
}

// Lines returns the stream of completed scanlines.
func (e *Engine) Lines() <-chan *scanline.Line {
	return e.queue.Lines()
}

// Accepts reports whether blocks with the given channel count can be
// decoded: exactly 2 in color mode, 1 or 2 in monochrome mode.
func (e *Engine) Accepts(channels int) bool {
	if e.cfg.Color {
		return channels == 2
	}
	return channels == 1 || channels == 2
}

// blockLength validates the block shape and returns its sample count.
func (e *Engine) blockLength(block [][]float32) (int, bool) {
	switch len(block) {
	case 1:
		if e.cfg.Color {
			return 0, false
		}
		return len(block[0]), true
	case 2:
		if len(block[0]) != len(block[1]) {
			return 0, false
		}
		return len(block[0]), true
	default:
		return 0, false
	}
}

// Process decodes one block of parallel channel samples.
// Blocks with the wrong channel count or unequal channel lengths are
// skipped. Process must not be called concurrently.
func (e *Engine) Process(block [][]float32) {
	n, ok := e.blockLength(block)
	if !ok {
		e.skipped++
		e.publish()
		return
	}

	switch {
	case e.cfg.Color:
		l, c := block[0], block[1]
		for i := 0; i < n; i++ {
			e.tick(float64(l[i]), float64(c[i]))
		}
	case len(block) == 2:
		l, r := block[0], block[1]
		for i := 0; i < n; i++ {
			e.tick((float64(l[i])+float64(r[i]))/2.0, 0)
		}
	default:
		l := block[0]
		for i := 0; i < n; i++ {
			e.tick(float64(l[i]), 0)
		}
	}

	e.blocks++
	if present := e.sep.Present(); present != e.present {
		e.present = present
		if present {
			e.logger.Debug("signal acquired", "time", e.timing.Time)
		} else {
			e.logger.Debug("signal lost, free running", "time", e.timing.Time)
		}
	}
	e.publish()
}

// ProcessInterleaved decodes a block of interleaved samples.
func (e *Engine) ProcessInterleaved(samples []float32, channels int) {
	if channels < 1 || channels > syncsep.MaxChannels || len(samples)%channels != 0 {
		e.skipped++
		e.publish()
		return
	}
	n := len(samples) / channels
	if len(e.scratch) != channels {
		e.scratch = make([][]float32, channels)
	}
	for c := range e.scratch {
		if cap(e.scratch[c]) < n {
			e.scratch[c] = make([]float32, n)
		}
		e.scratch[c] = e.scratch[c][:n]
	}
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			e.scratch[c][i] = samples[i*channels+c]
		}
	}
	e.Process(e.scratch)
}

// tick runs the whole pipeline for one sample pair.
func (e *Engine) tick(luma, chromaSample float64) {
	t := e.timing
	t.Time++

	luma += offset(e.dither)
	e.envs[0].Update(luma)
	y := e.envs[0].Normalize(luma) * e.cfg.Brightness * 255

	var r, g, b uint8
	if e.demod != nil {
		chromaSample += offset(e.dither)
		e.envs[1].Update(chromaSample)
		c := e.envs[1].Normalize(chromaSample)*e.cfg.Saturation*255 - 128
		r, g, b = e.demod.Decode(y, c)
	} else {
		v := chroma.Clamp(y)
		r, g, b = v, v, v
	}

	e.asm.Append(t.H.Phase, r, g, b)

	t.Advance()
	e.asm.SetEnd(e.x(t.H.Phase))

	blank := false
	if pulse, ok := e.sep.Step([syncsep.MaxChannels]float64{luma, chromaSample}, e.envs); ok {
		blank = true
		e.sync(pulse)
	}

	t.Pull()

	if t.H.Wrap() {
		blank = true
		e.hWraps++
		if e.demod != nil {
			e.demod.Delay.Rewind()
			e.demod.Toggle()
		}
	}
	if t.V.Wrap() {
		blank = true
		e.vWraps++
		e.field ^= 1
	}

	if blank {
		e.asm.Flush(e.x(t.H.Phase), e.y(t.V.Phase))
	}
}

// sync applies a confirmed sync pulse to the timing state.
func (e *Engine) sync(pulse syncsep.Pulse) {
	t := e.timing
	t.H.Lock(t.Time)
	e.hSyncs++

	if e.demod == nil {
		// Monochrome: a pulse whose polarity disagrees with the current
		// field marks the start of the other field.
		pulseField := 1
		if pulse.Luma() < 0 {
			pulseField = 0
		}
		if pulseField != e.field {
			t.V.Lock(t.Time)
			e.vSyncs++
			e.field = pulseField
		}
		return
	}

	e.demod.Delay.Rewind()
	if pulse.Luma() > 0 {
		e.demod.Field = 0
	} else {
		e.demod.Field = 1
	}

	// Color: luma and chroma pulses of opposite polarity mark a field start.
	if pulse.Luma() != pulse.Chroma() {
		t.V.Lock(t.Time)
		e.vSyncs++
		e.demod.Field = 1
		if pulse.Luma() > 0 {
			e.field = 0
		} else {
			e.field = 1
		}
	}
}

// x maps a horizontal phase to a screen coordinate.
func (e *Engine) x(hPhase float64) float64 {
	return (hPhase - e.cfg.HOffset) / e.cfg.OverScan
}

// y maps a vertical phase to a screen coordinate; odd fields sit half a
// line lower to emulate interlace.
func (e *Engine) y(vPhase float64) float64 {
	t := e.timing
	return vPhase + (float64(e.field)/t.V.Period)*t.H.Period*0.5
}

// Close ends the line stream. No Process call may follow.
func (e *Engine) Close() {
	e.queue.Close()
}
