package adapter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sergev/cvdecode/config"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	profileName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "cvdecode",
	Short: "A CLI program which decodes composite video carried on audio",
	Long: `The cvdecode tool recovers a composite video signal encoded into an audio
stream and turns it into scanlines: one channel carries luma and sync, the
other carries line-alternating chroma.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)

		// Initialize configuration
		err := config.Initialize(configPath, profileName)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize config: %w", err))
		}
		slog.Debug("configuration loaded", "profile", config.Active.Name)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (default ~/.cvdecode)")
	flags.StringVarP(&profileName, "profile", "p", "", "profile name (default from the configuration file)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug messages")
}

// setupLogging installs the default logger on stderr.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
