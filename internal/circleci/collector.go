package circleci

import (
	"context"
	"fmt"
	"time"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// Collector gathers deployment records from the runs of a deployment
// workflow. CircleCI has no incident concept, so incidents are always
// empty; pair this source with another that tracks incidents.
type Collector struct {
	client   ClientInterface
	org      string
	repo     string
	workflow string
	branch   string
}

func NewCollector(client ClientInterface, org, repo, workflow, branch string) *Collector {
	return &Collector{
		client:   client,
		org:      org,
		repo:     repo,
		workflow: workflow,
		branch:   branch,
	}
}

func (c *Collector) Name() string {
	return "circleci"
}

func (c *Collector) CollectDeployments(ctx context.Context, startDate, endDate time.Time) ([]dora.DeploymentRecord, error) {
	runs, err := c.client.FetchWorkflowRuns(ctx, c.org, c.repo, c.workflow, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to collect deployments from workflow %s: %w", c.workflow, err)
	}

	records := make([]dora.DeploymentRecord, 0, len(runs))
	for _, run := range runs {
		if c.branch != "" && run.Branch != c.branch {
			continue
		}
		if run.Status == "running" || run.Status == "on_hold" {
			continue
		}

		record := dora.DeploymentRecord{
			ID:        run.ID,
			Type:      "deployment",
			Timestamp: run.CreatedAt,
			StartTime: run.CreatedAt,
			Status:    mapRunStatus(run.Status),
			Metadata: map[string]string{
				"workflow": c.workflow,
				"branch":   run.Branch,
			},
		}
		if !run.StoppedAt.IsZero() {
			record.EndTime = run.StoppedAt
		}
		records = append(records, record)
	}

	return records, nil
}

func (c *Collector) CollectIncidents(ctx context.Context, startDate, endDate time.Time) ([]dora.IncidentRecord, error) {
	return nil, nil
}

// mapRunStatus folds CircleCI workflow statuses into deployment
// outcomes. Anything that did not finish cleanly counts as failed.
func mapRunStatus(status string) string {
	switch status {
	case "success":
		return "success"
	case "failed", "error", "failing":
		return "failed"
	case "canceled", "cancelled":
		return "canceled"
	default:
		return status
	}
}
