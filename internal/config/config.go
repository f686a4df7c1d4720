// Package config loads and validates doratracker configuration from
// YAML files and environment variables using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the full doratracker configuration
type Config struct {
	Source      string            `yaml:"source"`
	GitHub      GitHubConfig      `yaml:"github"`
	CircleCI    CircleCIConfig    `yaml:"circleci"`
	CloudDeploy CloudDeployConfig `yaml:"clouddeploy"`
	Files       FilesConfig       `yaml:"files"`
	Collection  CollectionConfig  `yaml:"collection"`
	Reporting   ReportingConfig   `yaml:"reporting"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type GitHubConfig struct {
	Owner         string `yaml:"owner"`
	Repo          string `yaml:"repo"`
	Environment   string `yaml:"environment"`
	IncidentLabel string `yaml:"incident_label"`
	Token         string `yaml:"token"`
}

type CircleCIConfig struct {
	Org      string `yaml:"org"`
	Repo     string `yaml:"repo"`
	Workflow string `yaml:"workflow"`
	Branch   string `yaml:"branch"`
	Token    string `yaml:"token"`
}

type CloudDeployConfig struct {
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
	Pipeline  string `yaml:"pipeline"`
}

type FilesConfig struct {
	Deployments string `yaml:"deployments"`
	Incidents   string `yaml:"incidents"`
}

type CollectionConfig struct {
	Days            int `yaml:"days"`
	IntervalMinutes int `yaml:"interval_minutes"`
}

type ReportingConfig struct {
	OutputDirectory string `yaml:"output_directory"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

var validSources = map[string]bool{
	"file":        true,
	"github":      true,
	"circleci":    true,
	"clouddeploy": true,
}

// Load reads configuration from the given path, or from the default
// search paths when path is empty. Missing files fall back to
// defaults; environment variables with the DORATRACKER_ prefix
// override file values, and GITHUB_TOKEN / CIRCLECI_TOKEN fill in
// tokens left out of the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".doratracker"))
		}
		v.AddConfigPath("/etc/doratracker")
	}

	v.SetEnvPrefix("DORATRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if path != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		// No config file found, run on defaults
	}

	cfg := &Config{
		Source: v.GetString("source"),
		GitHub: GitHubConfig{
			Owner:         v.GetString("github.owner"),
			Repo:          v.GetString("github.repo"),
			Environment:   v.GetString("github.environment"),
			IncidentLabel: v.GetString("github.incident_label"),
			Token:         v.GetString("github.token"),
		},
		CircleCI: CircleCIConfig{
			Org:      v.GetString("circleci.org"),
			Repo:     v.GetString("circleci.repo"),
			Workflow: v.GetString("circleci.workflow"),
			Branch:   v.GetString("circleci.branch"),
			Token:    v.GetString("circleci.token"),
		},
		CloudDeploy: CloudDeployConfig{
			ProjectID: v.GetString("clouddeploy.project_id"),
			Region:    v.GetString("clouddeploy.region"),
			Pipeline:  v.GetString("clouddeploy.pipeline"),
		},
		Files: FilesConfig{
			Deployments: v.GetString("files.deployments"),
			Incidents:   v.GetString("files.incidents"),
		},
		Collection: CollectionConfig{
			Days:            v.GetInt("collection.days"),
			IntervalMinutes: v.GetInt("collection.interval_minutes"),
		},
		Reporting: ReportingConfig{
			OutputDirectory: v.GetString("reporting.output_directory"),
		},
		Cache: CacheConfig{
			Enabled:   v.GetBool("cache.enabled"),
			Directory: v.GetString("cache.directory"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
		},
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.CircleCI.Token == "" {
		cfg.CircleCI.Token = os.Getenv("CIRCLECI_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "file")
	v.SetDefault("github.incident_label", "incident")
	v.SetDefault("circleci.workflow", "deploy")
	v.SetDefault("clouddeploy.region", "us-central1")
	v.SetDefault("collection.days", 30)
	v.SetDefault("collection.interval_minutes", 60)
	v.SetDefault("reporting.output_directory", "reports")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("logging.level", "info")
}

// Validate checks the configuration for values the rest of the system
// cannot work with
func (c *Config) Validate() error {
	if !validSources[c.Source] {
		return fmt.Errorf("unknown source %q (expected file, github, circleci or clouddeploy)", c.Source)
	}
	if c.Collection.Days < 1 {
		return fmt.Errorf("collection.days must be at least 1, got %d", c.Collection.Days)
	}
	if c.Collection.IntervalMinutes < 1 {
		return fmt.Errorf("collection.interval_minutes must be at least 1, got %d", c.Collection.IntervalMinutes)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}

	switch c.Source {
	case "github":
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("github source requires github.owner and github.repo")
		}
	case "circleci":
		if c.CircleCI.Org == "" || c.CircleCI.Repo == "" {
			return fmt.Errorf("circleci source requires circleci.org and circleci.repo")
		}
	case "clouddeploy":
		if c.CloudDeploy.ProjectID == "" {
			return fmt.Errorf("clouddeploy source requires clouddeploy.project_id")
		}
	case "file":
		if c.Files.Deployments == "" && c.Files.Incidents == "" {
			return fmt.Errorf("file source requires files.deployments or files.incidents")
		}
	}

	return nil
}

// Save writes the configuration to path as YAML with tokens redacted,
// so a saved file is safe to commit
func (c *Config) Save(path string) error {
	sanitized := *c
	if sanitized.GitHub.Token != "" {
		sanitized.GitHub.Token = "REDACTED"
	}
	if sanitized.CircleCI.Token != "" {
		sanitized.CircleCI.Token = "REDACTED"
	}

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
