package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/opsmetrics/doratracker/internal/clouddeploy"
	"github.com/opsmetrics/doratracker/internal/collector"
	"github.com/opsmetrics/doratracker/internal/config"
)

func buildCloudDeploySource(cfg *config.Config) (collector.Source, func(), error) {
	client, err := clouddeploy.NewClient(context.Background(),
		cfg.CloudDeploy.ProjectID, cfg.CloudDeploy.Region, cfg.CloudDeploy.Pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cloud deploy client: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing cloud deploy client: %v", err)
		}
	}
	return clouddeploy.NewCollector(client), cleanup, nil
}
