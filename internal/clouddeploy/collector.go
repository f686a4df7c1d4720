package clouddeploy

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/deploy/apiv1/deploypb"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// Collector gathers deployment records from Google Cloud Deploy
// releases. The release carries the start time; the outcome and end
// time come from its rollouts. Cloud Deploy has no incident concept,
// so incidents are always empty.
type Collector struct {
	client ClientInterface
}

func NewCollector(client ClientInterface) *Collector {
	return &Collector{client: client}
}

func (c *Collector) Name() string {
	return "clouddeploy"
}

func (c *Collector) CollectDeployments(ctx context.Context, startDate, endDate time.Time) ([]dora.DeploymentRecord, error) {
	releases, err := c.client.FetchReleases(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to collect deployments: %w", err)
	}

	records := make([]dora.DeploymentRecord, 0, len(releases))
	for _, release := range releases {
		record := dora.DeploymentRecord{
			ID:        releaseID(release.Name),
			Type:      "deployment",
			Timestamp: release.CreateTime.AsTime(),
			StartTime: release.CreateTime.AsTime(),
			Metadata: map[string]string{
				"release": release.Name,
			},
		}

		rollouts, err := c.client.FetchRollouts(ctx, release.Name)
		if err != nil {
			// A release we cannot resolve rollouts for still counts
			log.Printf("Error fetching rollouts for release %s: %v", release.Name, err)
		} else {
			status, endTime := rolloutOutcome(rollouts)
			record.Status = status
			if !endTime.IsZero() {
				record.EndTime = endTime
			}
		}

		records = append(records, record)
	}

	return records, nil
}

func (c *Collector) CollectIncidents(ctx context.Context, startDate, endDate time.Time) ([]dora.IncidentRecord, error) {
	return nil, nil
}

// rolloutOutcome folds a release's rollouts into one deployment
// outcome. Any failed rollout fails the release; otherwise the release
// succeeds once every rollout finished, and the latest finish time is
// the release's end.
func rolloutOutcome(rollouts []*deploypb.Rollout) (string, time.Time) {
	if len(rollouts) == 0 {
		return "", time.Time{}
	}

	status := "success"
	var endTime time.Time

	for _, rollout := range rollouts {
		switch rollout.State {
		case deploypb.Rollout_FAILED:
			status = "failed"
		case deploypb.Rollout_SUCCEEDED:
		default:
			if status == "success" {
				status = "pending"
			}
		}

		if rollout.DeployEndTime != nil {
			finished := rollout.DeployEndTime.AsTime()
			if finished.After(endTime) {
				endTime = finished
			}
		}
	}

	return status, endTime
}

// releaseID returns the short release name from its full resource name
func releaseID(name string) string {
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
