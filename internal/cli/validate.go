package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var validateCheckSource bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate loads the configuration the same way every other command
does and reports whether it is usable. With --check-source it also
performs a one-day collection against the configured source to verify
connectivity and credentials.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateCheckSource, "check-source", false, "verify the source is reachable")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("Configuration OK: source=%s period=%dd interval=%dm\n",
		cfg.Source, cfg.Collection.Days, cfg.Collection.IntervalMinutes)

	if !validateCheckSource {
		return nil
	}

	source, cleanup, err := buildRawSource(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -1)

	deployments, incidents, err := collectRecords(cmd.Context(), source, startDate, endDate)
	if err != nil {
		return fmt.Errorf("source check failed: %w", err)
	}

	fmt.Printf("Source %s OK: %d deployments, %d incidents in the last day\n",
		source.Name(), len(deployments), len(incidents))
	return nil
}
