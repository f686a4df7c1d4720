package github

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/go-github/v39/github"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// Collector gathers deployment and incident records from a GitHub
// repository. Deployments come from the Deployments API; incidents are
// issues carrying the configured label.
type Collector struct {
	client        ClientInterface
	owner         string
	repo          string
	environment   string
	incidentLabel string
}

func NewCollector(client ClientInterface, owner, repo, environment, incidentLabel string) *Collector {
	if incidentLabel == "" {
		incidentLabel = "incident"
	}
	return &Collector{
		client:        client,
		owner:         owner,
		repo:          repo,
		environment:   environment,
		incidentLabel: incidentLabel,
	}
}

func (c *Collector) Name() string {
	return "github"
}

func (c *Collector) CollectDeployments(ctx context.Context, startDate, endDate time.Time) ([]dora.DeploymentRecord, error) {
	deployments, err := c.client.FetchDeployments(ctx, c.owner, c.repo, c.environment, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to collect deployments for %s/%s: %w", c.owner, c.repo, err)
	}

	records := make([]dora.DeploymentRecord, 0, len(deployments))
	for _, d := range deployments {
		record := dora.DeploymentRecord{
			ID:          strconv.FormatInt(d.GetID(), 10),
			Type:        "deployment",
			Timestamp:   d.GetCreatedAt().Time,
			StartTime:   d.GetCreatedAt().Time,
			Environment: d.GetEnvironment(),
			Metadata: map[string]string{
				"ref": d.GetRef(),
				"sha": d.GetSHA(),
			},
		}

		status, finishedAt, err := c.terminalStatus(ctx, d.GetID())
		if err != nil {
			// A deployment without status history still counts
			log.Printf("Error fetching statuses for deployment %d: %v", d.GetID(), err)
		} else {
			record.Status = status
			if !finishedAt.IsZero() {
				record.EndTime = finishedAt
			}
		}

		records = append(records, record)
	}

	return records, nil
}

func (c *Collector) CollectIncidents(ctx context.Context, startDate, endDate time.Time) ([]dora.IncidentRecord, error) {
	issues, err := c.client.FetchIssuesByLabel(ctx, c.owner, c.repo, c.incidentLabel, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to collect incidents for %s/%s: %w", c.owner, c.repo, err)
	}

	records := make([]dora.IncidentRecord, 0, len(issues))
	for _, issue := range issues {
		record := dora.IncidentRecord{
			ID:        strconv.Itoa(issue.GetNumber()),
			Type:      "incident",
			Timestamp: issue.GetCreatedAt(),
			StartTime: issue.GetCreatedAt(),
			Status:    issue.GetState(),
			Severity:  severityFromLabels(issue.Labels),
			Metadata: map[string]string{
				"title": issue.GetTitle(),
				"url":   issue.GetHTMLURL(),
			},
		}
		if issue.ClosedAt != nil {
			record.ResolvedTime = issue.GetClosedAt()
			record.EndTime = issue.GetClosedAt()
		}
		records = append(records, record)
	}

	return records, nil
}

// terminalStatus returns the first terminal state in the deployment's
// status history along with when it was reported. Statuses come newest
// first, so the first terminal entry is the deployment's outcome.
func (c *Collector) terminalStatus(ctx context.Context, deploymentID int64) (string, time.Time, error) {
	statuses, err := c.client.FetchDeploymentStatuses(ctx, c.owner, c.repo, deploymentID)
	if err != nil {
		return "", time.Time{}, err
	}

	for _, s := range statuses {
		switch s.GetState() {
		case "success", "failure", "error", "inactive":
			return s.GetState(), s.GetCreatedAt().Time, nil
		}
	}

	return "", time.Time{}, nil
}

func severityFromLabels(labels []*github.Label) string {
	for _, l := range labels {
		switch l.GetName() {
		case "sev1", "severity:critical":
			return "critical"
		case "sev2", "severity:high":
			return "high"
		case "sev3", "severity:medium":
			return "medium"
		}
	}
	return "unknown"
}
