package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsmetrics/doratracker/internal/collector"
	"github.com/opsmetrics/doratracker/internal/config"
	"github.com/opsmetrics/doratracker/internal/dora"
	"github.com/opsmetrics/doratracker/internal/report"
)

var (
	daemonInterval int
	daemonFormat   string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Periodically collect records and write reports",
	Long: `Daemon runs the collect-and-report cycle on a fixed interval until
interrupted. Each cycle writes a timestamped report to the configured
output directory. A failing cycle is logged and the daemon keeps
going.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().IntVar(&daemonInterval, "interval", 0, "minutes between cycles (default: collection.interval_minutes from config)")
	daemonCmd.Flags().StringVar(&daemonFormat, "format", "json", "report format: html, json or csv")

	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval := daemonInterval
	if interval <= 0 {
		interval = cfg.Collection.IntervalMinutes
	}

	source, cleanup, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting daemon: source=%s interval=%dm period=%dd", source.Name(), interval, cfg.Collection.Days)

	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	defer ticker.Stop()

	// First cycle immediately, then on the ticker
	runCycle(ctx, cfg, source)
	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down")
			return nil
		case <-ticker.C:
			runCycle(ctx, cfg, source)
		}
	}
}

func runCycle(ctx context.Context, cfg *config.Config, source collector.Source) {
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -cfg.Collection.Days)

	deployments, incidents, err := collectRecords(ctx, source, startDate, endDate)
	if err != nil {
		log.Printf("Cycle failed: %v", err)
		return
	}

	result := dora.Compute(deployments, incidents)
	rep := report.New(result, source.Name(), cfg.Collection.Days)

	content, err := report.Generate(rep, daemonFormat)
	if err != nil {
		log.Printf("Cycle failed: %v", err)
		return
	}

	if err := os.MkdirAll(cfg.Reporting.OutputDirectory, 0o755); err != nil {
		log.Printf("Cycle failed: %v", err)
		return
	}

	path := filepath.Join(cfg.Reporting.OutputDirectory, report.Filename(rep, daemonFormat))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Printf("Cycle failed: %v", err)
		return
	}

	log.Printf("Wrote %s (%d deployments, %d incidents)", path, len(deployments), len(incidents))
}
