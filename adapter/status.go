package adapter

import (
	"fmt"

	"github.com/sergev/cvdecode/config"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active profile and delivery adapters",
	Long:  "Show the active decoder profile, its derived timing and the available delivery adapters.",
	Run: func(cmd *cobra.Command, args []string) {
		p := config.Active
		cfg := p.Decoder()

		path := configPath
		if path == "" {
			path, _ = config.Path()
		}
		fmt.Printf("Configuration script: %s\n", path)
		fmt.Printf("Profile: %s\n", p.Name)
		if cfg.Color {
			fmt.Printf("Mode: color (luma + chroma)\n")
		} else {
			fmt.Printf("Mode: monochrome\n")
		}
		fmt.Printf("Sample Rate: %.0f Hz, %d samples per block\n", cfg.SampleRate, p.BlockSize)
		fmt.Printf("Line: %.2f Hz, %.3f samples, at most %d samples\n", cfg.HFreq, cfg.HTarget(), cfg.MaxLineSamples())
		fmt.Printf("Field: %.2f Hz, %.1f samples, %.1f lines\n", cfg.VFreq, cfg.VTarget(), cfg.LinesPerField())
		fmt.Printf("Sync Pulse: %.3f ms\n", cfg.PulseLength*1000)
		fmt.Printf("Picture: overscan %.3f, offset %.5f, brightness %.2f, saturation %.2f\n",
			cfg.OverScan, cfg.HOffset, cfg.Brightness, cfg.Saturation)

		fmt.Printf("\nDelivery adapters:\n")
		for _, info := range Adapters() {
			fmt.Printf("  %-8s %s\n", info.Name, info.Description)
		}

		// Live input status, if a device is present
		if _, ok := registeredAdapters["live"]; ok {
			fmt.Printf("\n")
			a, err := NewAdapter("live", Options{Decoder: cfg, BlockSize: p.BlockSize})
			if err != nil {
				fmt.Printf("Live input not available: %v\n", err)
				return
			}
			defer a.Close()
			a.PrintStatus()
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
