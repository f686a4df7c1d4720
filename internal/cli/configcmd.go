package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsmetrics/doratracker/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Long: `Init writes a configuration file with every section filled in with
defaults, ready to edit. With --from-current it saves the loaded
configuration instead, with tokens redacted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configFromCurrent bool

func init() {
	configInitCmd.Flags().BoolVar(&configFromCurrent, "from-current", false, "save the currently loaded configuration")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "config.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	var cfg *config.Config
	if configFromCurrent {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = templateConfig()
	}

	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// templateConfig returns a config with defaults and placeholder source
// settings for every backend
func templateConfig() *config.Config {
	return &config.Config{
		Source: "file",
		GitHub: config.GitHubConfig{
			Owner:         "your-org",
			Repo:          "your-repo",
			Environment:   "production",
			IncidentLabel: "incident",
		},
		CircleCI: config.CircleCIConfig{
			Org:      "your-org",
			Repo:     "your-repo",
			Workflow: "deploy",
			Branch:   "main",
		},
		CloudDeploy: config.CloudDeployConfig{
			ProjectID: "your-project",
			Region:    "us-central1",
		},
		Files: config.FilesConfig{
			Deployments: "deployments.json",
			Incidents:   "incidents.json",
		},
		Collection: config.CollectionConfig{
			Days:            30,
			IntervalMinutes: 60,
		},
		Reporting: config.ReportingConfig{
			OutputDirectory: "reports",
		},
		Cache: config.CacheConfig{
			Enabled: true,
		},
		Logging: config.LoggingConfig{
			Level: "info",
		},
	}
}
