// Package cli implements the doratracker command line interface.
package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/opsmetrics/doratracker/internal/config"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "doratracker",
	Short: "Collect and report DORA metrics",
	Long: `doratracker collects deployment and incident records from delivery
systems (GitHub, CircleCI, Google Cloud Deploy, or exported files) and
computes the four DORA metrics: deployment frequency, lead time for
changes, change failure rate, and time to restore service.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
		}
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		}
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doratracker %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: standard search paths)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Logging.Level == "debug" && !quiet {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	return cfg, nil
}
