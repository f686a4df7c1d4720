package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsmetrics/doratracker/internal/dora"
	"github.com/opsmetrics/doratracker/internal/report"
)

var (
	reportDays   int
	reportFormat string
	reportOutput string
	reportStdout bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute DORA metrics and write a report",
	Long: `Report collects records from the configured source, computes the four
DORA metrics with their performance classifications, and writes a
report file in the chosen format.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "period to report on in days (default: collection.days from config)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "html", "report format: html, json or csv")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output directory (default: reporting.output_directory from config)")
	reportCmd.Flags().BoolVar(&reportStdout, "stdout", false, "print the report instead of writing a file")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days := reportDays
	if days <= 0 {
		days = cfg.Collection.Days
	}

	source, cleanup, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	deployments, incidents, err := collectRecords(cmd.Context(), source, startDate, endDate)
	if err != nil {
		return err
	}

	result := dora.Compute(deployments, incidents)
	rep := report.New(result, source.Name(), days)

	content, err := report.Generate(rep, reportFormat)
	if err != nil {
		return err
	}

	if reportStdout {
		fmt.Println(content)
		return nil
	}

	outDir := reportOutput
	if outDir == "" {
		outDir = cfg.Reporting.OutputDirectory
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	path := filepath.Join(outDir, report.Filename(rep, reportFormat))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
