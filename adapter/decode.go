package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/sergev/cvdecode/config"
	"github.com/sergev/cvdecode/decoder"
	"github.com/sergev/cvdecode/render"
	"github.com/sergev/cvdecode/scanline"
	"github.com/sergev/cvdecode/signal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// DecodeOptions configure one decoding session.
type DecodeOptions struct {
	Adapter  string  // Registered adapter name
	Options  Options // Adapter and decoder settings
	Duration float64 // Seconds of signal to decode; zero for no limit
	Lossless bool    // Hold input back instead of dropping lines

	Dump       io.Writer // Scanline record stream; nil to skip
	Preview    string    // PNG file to render into; empty to skip
	Render     render.Options
	FadePeriod int // Samples between preview fades; zero to never fade
}

// DecodeResult summarizes a finished session.
type DecodeResult struct {
	Session string
	Stats   decoder.Stats
	Dumped  uint64 // Records written to the dump
	Drawn   uint64 // Lines drawn on the preview
}

// Decode runs an adapter into a decoder until the input ends, the duration
// is reached or ctx is canceled. Scanlines are consumed on a separate
// goroutine, as a renderer would.
func Decode(ctx context.Context, o DecodeOptions) (*DecodeResult, error) {
	session := uuid.NewString()
	logger := o.Options.Log().With("session", session)
	o.Options.Logger = logger

	a, err := NewAdapter(o.Adapter, o.Options)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	cfg := o.Options.Decoder
	if rate := a.SampleRate(); rate != cfg.SampleRate {
		logger.Info("using input sample rate", "profile", cfg.SampleRate, "input", rate)
		cfg.SampleRate = rate
	}
	engine, err := decoder.New(cfg, decoder.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if !engine.Accepts(a.Channels()) {
		return nil, fmt.Errorf("%s input has %d channel(s), not usable for color=%v", o.Adapter, a.Channels(), cfg.Color)
	}

	var canvas *render.Canvas
	if o.Preview != "" {
		canvas, err = render.New(o.Render)
		if err != nil {
			return nil, err
		}
	}
	var dump *scanline.Writer
	if o.Dump != nil {
		dump = scanline.NewWriter(o.Dump)
	}

	// Fade after the number of lines that fit the fade period.
	fadeLines := 0
	if o.FadePeriod > 0 {
		fadeLines = max(1, int(float64(o.FadePeriod)/engine.Config().HTarget()))
	}

	done := make(chan error, 1)
	go func() {
		done <- consume(engine.Lines(), dump, canvas, fadeLines)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sink Sink = engine
	if o.Lossless {
		sink = holdBack(ctx, engine)
	}
	if o.Duration > 0 {
		sink = Limit(sink, int(o.Duration*cfg.SampleRate), cancel)
	}

	logger.Info("decoding", "adapter", o.Adapter, "color", cfg.Color, "sampleRate", cfg.SampleRate)
	start := time.Now()
	runErr := a.Run(ctx, sink)
	engine.Close()
	consumeErr := <-done

	stats := engine.Stats()
	logger.Info("decoding finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"samples", stats.Time,
		"lines", stats.LinesPushed,
		"dropped", stats.LinesDropped,
	)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return nil, runErr
	}
	if consumeErr != nil {
		return nil, consumeErr
	}

	result := &DecodeResult{
		Session: session,
		Stats:   stats,
	}
	if dump != nil {
		result.Dumped = dump.Lines()
	}
	if canvas != nil {
		result.Drawn = canvas.Lines()
		legend := fmt.Sprintf("H %.2f V %.1f lines %d", stats.HPeriod, stats.VPeriod, stats.LinesPushed)
		if err := canvas.WritePNG(o.Preview, legend); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// consume drains the line stream into the dump and the preview.
// It keeps draining after a dump error so the producer never stalls.
func consume(lines <-chan *scanline.Line, dump *scanline.Writer, canvas *render.Canvas, fadeLines int) error {
	var dumpErr error
	n := 0
	for l := range lines {
		if dump != nil && dumpErr == nil {
			dumpErr = dump.Write(l)
		}
		if canvas != nil {
			canvas.Draw(l)
			n++
			if fadeLines > 0 && n%fadeLines == 0 {
				canvas.Fade()
			}
		}
	}
	if dump != nil && dumpErr == nil {
		dumpErr = dump.Flush()
	}
	return dumpErr
}

// holdBack delays each block until the queue has room for every line the
// block could produce. It suits file input, where nothing is lost by waiting.
func holdBack(ctx context.Context, e *decoder.Engine) Sink {
	q := e.Queue()
	return SinkFunc(func(block [][]float32) {
		if len(block) > 0 {
			need := min(len(block[0])/(scanline.MinSamples+1)+1, q.Cap())
			for q.Cap()-q.Len() < need && ctx.Err() == nil {
				time.Sleep(time.Millisecond)
			}
		}
		e.Process(block)
	})
}

var (
	decodeAdapter  string
	decodeRealtime bool
	decodeDump     string
	decodePreview  string
	decodeDuration float64
	decodeBlock    int
	decodeMono     bool
	decodeHFreq    float64
	decodeVFreq    float64
	decodeBright   float64
	decodeSat      float64
	decodeOverScan float64
	decodeHOffset  float64
)

var decodeCmd = &cobra.Command{
	Use:   "decode [INPUT]",
	Short: "Decode composite video from a recording or live input",
	Long: `Decode composite video from INPUT, or from the default audio input device
when INPUT is not given. INPUT may also be "pattern:NAME" to decode the
built-in signal generator.
` + signal.SupportedFormatsText,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile := config.Active
		o := DecodeOptions{
			Adapter:    decodeAdapter,
			Duration:   decodeDuration,
			Preview:    decodePreview,
			Render:     profile.Render(),
			FadePeriod: profile.FadePeriod(),
			Options: Options{
				Decoder:   profile.Decoder(),
				BlockSize: profile.BlockSize,
				Realtime:  decodeRealtime,
			},
		}
		if len(args) > 0 {
			o.Options.Input = args[0]
			if o.Adapter == "" {
				o.Adapter = "file"
			}
		} else if o.Adapter == "" {
			o.Adapter = "live"
		}
		o.Lossless = o.Adapter == "file" && !decodeRealtime

		applyOverrides(cmd, &o.Options)

		switch decodeDump {
		case "":
		case "-":
			if term.IsTerminal(int(os.Stdout.Fd())) {
				cobra.CheckErr(errors.New("refusing to write binary scanline records to a terminal"))
			}
			o.Dump = os.Stdout
		default:
			f, err := os.Create(decodeDump)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to create dump file: %w", err))
			}
			defer f.Close()
			o.Dump = f
		}

		ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := Decode(ctx, o)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("decode failed: %w", err))
		}
		printStats(os.Stderr, result)
	},
}

// applyOverrides copies explicitly set command line options over the profile.
func applyOverrides(cmd *cobra.Command, o *Options) {
	flags := cmd.Flags()
	if flags.Changed("mono") {
		o.Decoder.Color = !decodeMono
	}
	if flags.Changed("hfreq") {
		o.Decoder.HFreq = decodeHFreq
	}
	if flags.Changed("vfreq") {
		o.Decoder.VFreq = decodeVFreq
	}
	if flags.Changed("brightness") {
		o.Decoder.Brightness = decodeBright
	}
	if flags.Changed("saturation") {
		o.Decoder.Saturation = decodeSat
	}
	if flags.Changed("overscan") {
		o.Decoder.OverScan = decodeOverScan
	}
	if flags.Changed("hoffset") {
		o.Decoder.HOffset = decodeHOffset
	}
	if flags.Changed("block-size") {
		o.BlockSize = decodeBlock
	}
}

func printStats(w io.Writer, r *DecodeResult) {
	s := r.Stats
	fmt.Fprintf(w, "Session: %s\n", r.Session)
	fmt.Fprintf(w, "Samples: %d (%d blocks, %d skipped)\n", s.Time, s.BlocksProcessed, s.BlocksSkipped)
	fmt.Fprintf(w, "Line period: %.3f samples (nominal %.3f)\n", s.HPeriod, s.HTarget)
	fmt.Fprintf(w, "Field period: %.1f samples (nominal %.1f)\n", s.VPeriod, s.VTarget)
	fmt.Fprintf(w, "Syncs: %d horizontal, %d vertical\n", s.HSyncs, s.VSyncs)
	fmt.Fprintf(w, "Free-run wraps: %d horizontal, %d vertical\n", s.HWraps, s.VWraps)
	fmt.Fprintf(w, "Lines: %d delivered, %d dropped, %d discarded\n", s.LinesPushed, s.LinesDropped, s.LinesDiscarded)
	if r.Dumped > 0 {
		fmt.Fprintf(w, "Records dumped: %d\n", r.Dumped)
	}
	if r.Drawn > 0 {
		fmt.Fprintf(w, "Lines drawn: %d\n", r.Drawn)
	}
}

func init() {
	flags := decodeCmd.Flags()
	flags.StringVarP(&decodeAdapter, "adapter", "a", "", `delivery adapter (default "file" with INPUT, "live" without)`)
	flags.BoolVar(&decodeRealtime, "realtime", false, "pace file input at its sample rate")
	flags.StringVar(&decodeDump, "dump", "", `write scanline records to FILE ("-" for stdout)`)
	flags.StringVar(&decodePreview, "preview", "", "render scanlines into a PNG file")
	flags.Float64VarP(&decodeDuration, "duration", "d", 0, "stop after this many seconds of signal")
	flags.IntVar(&decodeBlock, "block-size", 1024, "samples per channel per block")
	flags.BoolVar(&decodeMono, "mono", false, "decode a monochrome signal")
	flags.Float64Var(&decodeHFreq, "hfreq", 225, "line frequency in Hz")
	flags.Float64Var(&decodeVFreq, "vfreq", 3, "field frequency in Hz")
	flags.Float64Var(&decodeBright, "brightness", 1, "luma gain")
	flags.Float64Var(&decodeSat, "saturation", 1, "chroma gain")
	flags.Float64Var(&decodeOverScan, "overscan", 0.82, "horizontal scale divisor")
	flags.Float64Var(&decodeHOffset, "hoffset", 0.06525, "horizontal phase bias")
	rootCmd.AddCommand(decodeCmd)
}
