package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergev/cvdecode/config"
	"github.com/sergev/cvdecode/decoder"
	"github.com/sergev/cvdecode/patterns"
	"github.com/sergev/cvdecode/signal"
	"github.com/spf13/cobra"
)

var (
	generatePattern  string
	generateDuration float64
	generateMono     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate OUT.wav",
	Short: "Generate a test signal",
	Long: `Generate a composite video test signal and save it as a 16-bit stereo WAV
file, using the timing of the active profile. Append .zst to the file name
to compress it.
Built-in patterns: ` + strings.Join(patterns.Names(), ", ") + `
A pattern of the form "image:FILE" encodes a PNG, JPEG, GIF or BMP picture.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Active.Decoder()
		if cmd.Flags().Changed("mono") {
			cfg.Color = !generateMono
		}
		frames := int(generateDuration * cfg.SampleRate)
		if frames <= 0 {
			cobra.CheckErr(fmt.Errorf("invalid duration %v", generateDuration))
		}

		err := Generate(args[0], generatePattern, cfg, frames)
		if err != nil {
			cobra.CheckErr(err)
		}
		fmt.Printf("Pattern '%s' saved to file '%s' (%.1f seconds).\n", generatePattern, args[0], generateDuration)
	},
}

// EncoderConfig returns the encoder setup matching a decoder configuration.
func EncoderConfig(cfg decoder.Config) signal.EncoderConfig {
	return signal.EncoderConfig{
		Color:       cfg.Color,
		SampleRate:  cfg.SampleRate,
		HFreq:       cfg.HFreq,
		VFreq:       cfg.VFreq,
		PulseLength: cfg.PulseLength,
		OverScan:    cfg.OverScan,
		HOffset:     cfg.HOffset,
	}
}

// Generate writes frames samples of an encoded pattern to a WAV file,
// compressed when the name ends in .zst.
func Generate(path, pattern string, cfg decoder.Config, frames int) error {
	picture, err := patterns.GetPattern(pattern)
	if err != nil {
		return err
	}
	enc, err := signal.NewEncoder(EncoderConfig(cfg), picture)
	if err != nil {
		return err
	}

	format, compressed := signal.DetectFormat(path)
	if format != signal.FormatWAV {
		return fmt.Errorf("%w: %s (generate writes WAV only)", signal.ErrUnknownFormat, path)
	}
	if !compressed {
		return signal.WriteWAV(path, enc, frames)
	}

	// The WAV encoder seeks back to patch the header, so build the file
	// first and compress it afterwards.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".generate-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := signal.WriteWAV(tmpName, enc, frames); err != nil {
		return err
	}
	in, err := os.Open(tmpName)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := signal.Compress(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return out.Close()
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVar(&generatePattern, "pattern", "bars", "picture to encode")
	flags.Float64VarP(&generateDuration, "duration", "d", 2, "length in seconds")
	flags.BoolVar(&generateMono, "mono", false, "generate a monochrome signal")
	rootCmd.AddCommand(generateCmd)
}
