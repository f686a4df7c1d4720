package cli

import (
	"fmt"
	"log"

	"github.com/opsmetrics/doratracker/internal/cache"
	"github.com/opsmetrics/doratracker/internal/circleci"
	"github.com/opsmetrics/doratracker/internal/collector"
	"github.com/opsmetrics/doratracker/internal/config"
	"github.com/opsmetrics/doratracker/internal/github"
)

// buildSource wires the configured collection source, wrapped in the
// file cache when caching is enabled. The returned cleanup function
// releases whatever the source holds open.
func buildSource(cfg *config.Config) (collector.Source, func(), error) {
	source, cleanup, err := buildRawSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Cache.Enabled || cfg.Source == "file" {
		return source, cleanup, nil
	}

	var c cache.Cache
	if cfg.Cache.Directory != "" {
		c, err = cache.NewFileCacheWithDir(cfg.Cache.Directory)
	} else {
		c, err = cache.NewDefaultCache()
	}
	if err != nil {
		// Caching is an optimization, run without it
		log.Printf("Warning: cache unavailable, collecting without it: %v", err)
		return source, cleanup, nil
	}

	wrapped := collector.NewCachedSource(source, c)
	combined := func() {
		if err := c.Close(); err != nil {
			log.Printf("Error closing cache: %v", err)
		}
		cleanup()
	}
	return wrapped, combined, nil
}

func buildRawSource(cfg *config.Config) (collector.Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case "file":
		return collector.NewFileSource(cfg.Files.Deployments, cfg.Files.Incidents), noop, nil

	case "github":
		if cfg.GitHub.Token == "" {
			return nil, nil, fmt.Errorf("github source requires a token (github.token or GITHUB_TOKEN)")
		}
		client := github.NewClient(cfg.GitHub.Token)
		return github.NewCollector(client, cfg.GitHub.Owner, cfg.GitHub.Repo,
			cfg.GitHub.Environment, cfg.GitHub.IncidentLabel), noop, nil

	case "circleci":
		if cfg.CircleCI.Token == "" {
			return nil, nil, fmt.Errorf("circleci source requires a token (circleci.token or CIRCLECI_TOKEN)")
		}
		client := circleci.NewClient(cfg.CircleCI.Token)
		src := circleci.NewCollector(client, cfg.CircleCI.Org, cfg.CircleCI.Repo,
			cfg.CircleCI.Workflow, cfg.CircleCI.Branch)
		return src, func() { client.Close() }, nil

	case "clouddeploy":
		return buildCloudDeploySource(cfg)

	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
