package github

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v39/github"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// MockClient implements ClientInterface for testing
type MockClient struct {
	deployments []*github.Deployment
	statuses    map[int64][]*github.DeploymentStatus
	issues      []*github.Issue
	err         error
	statusErr   error
}

func (m *MockClient) FetchDeployments(ctx context.Context, owner, repo, environment string, startDate, endDate time.Time) ([]*github.Deployment, error) {
	return m.deployments, m.err
}

func (m *MockClient) FetchDeploymentStatuses(ctx context.Context, owner, repo string, deploymentID int64) ([]*github.DeploymentStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.statuses[deploymentID], nil
}

func (m *MockClient) FetchIssuesByLabel(ctx context.Context, owner, repo, label string, startDate, endDate time.Time) ([]*github.Issue, error) {
	return m.issues, m.err
}

func deployment(id int64, created time.Time, env string) *github.Deployment {
	return &github.Deployment{
		ID:          github.Int64(id),
		CreatedAt:   &github.Timestamp{Time: created},
		Environment: github.String(env),
		Ref:         github.String("main"),
		SHA:         github.String("abc123"),
	}
}

func status(state string, created time.Time) *github.DeploymentStatus {
	return &github.DeploymentStatus{
		State:     github.String(state),
		CreatedAt: &github.Timestamp{Time: created},
	}
}

func TestCollectDeployments_MapsFields(t *testing.T) {
	created := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	finished := created.Add(15 * time.Minute)

	client := &MockClient{
		deployments: []*github.Deployment{deployment(42, created, "production")},
		statuses: map[int64][]*github.DeploymentStatus{
			42: {status("success", finished)},
		},
	}

	collector := NewCollector(client, "owner", "repo", "production", "")
	records, err := collector.CollectDeployments(context.Background(), created.Add(-time.Hour), created.Add(time.Hour))
	if err != nil {
		t.Fatalf("CollectDeployments returned error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.ID != "42" {
		t.Errorf("Expected ID 42, got %s", r.ID)
	}
	if r.Status != "success" {
		t.Errorf("Expected status success, got %s", r.Status)
	}
	if r.Environment != "production" {
		t.Errorf("Expected environment production, got %s", r.Environment)
	}
	ts, ok := dora.NormalizeTime(r.Timestamp)
	if !ok || !ts.Equal(created) {
		t.Errorf("Expected timestamp %v, got %v", created, r.Timestamp)
	}
	end, ok := dora.NormalizeTime(r.EndTime)
	if !ok || !end.Equal(finished) {
		t.Errorf("Expected end time %v, got %v", finished, r.EndTime)
	}
}

func TestCollectDeployments_FirstTerminalStatusWins(t *testing.T) {
	created := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	// Statuses newest first: a retry succeeded after an earlier failure
	client := &MockClient{
		deployments: []*github.Deployment{deployment(7, created, "production")},
		statuses: map[int64][]*github.DeploymentStatus{
			7: {
				status("pending", created.Add(20*time.Minute)),
				status("failure", created.Add(10*time.Minute)),
				status("success", created.Add(5*time.Minute)),
			},
		},
	}

	collector := NewCollector(client, "owner", "repo", "", "")
	records, err := collector.CollectDeployments(context.Background(), created.Add(-time.Hour), created.Add(time.Hour))
	if err != nil {
		t.Fatalf("CollectDeployments returned error: %v", err)
	}

	if records[0].Status != "failure" {
		t.Errorf("Expected first terminal status failure, got %s", records[0].Status)
	}
}

func TestCollectDeployments_StatusErrorKeepsRecord(t *testing.T) {
	created := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	client := &MockClient{
		deployments: []*github.Deployment{deployment(1, created, "production")},
		statusErr:   errors.New("rate limited"),
	}

	collector := NewCollector(client, "owner", "repo", "", "")
	records, err := collector.CollectDeployments(context.Background(), created.Add(-time.Hour), created.Add(time.Hour))
	if err != nil {
		t.Fatalf("CollectDeployments returned error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record despite status error, got %d", len(records))
	}
	if records[0].Status != "" {
		t.Errorf("Expected empty status, got %s", records[0].Status)
	}
}

func TestCollectDeployments_Error(t *testing.T) {
	client := &MockClient{err: errors.New("boom")}
	collector := NewCollector(client, "owner", "repo", "", "")

	_, err := collector.CollectDeployments(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestCollectIncidents_MapsIssues(t *testing.T) {
	opened := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	closed := opened.Add(2 * time.Hour)

	client := &MockClient{
		issues: []*github.Issue{
			{
				Number:    github.Int(101),
				Title:     github.String("Checkout is down"),
				State:     github.String("closed"),
				CreatedAt: &opened,
				ClosedAt:  &closed,
				Labels: []*github.Label{
					{Name: github.String("incident")},
					{Name: github.String("sev1")},
				},
			},
			{
				Number:    github.Int(102),
				Title:     github.String("Elevated error rate"),
				State:     github.String("open"),
				CreatedAt: &opened,
				Labels: []*github.Label{
					{Name: github.String("incident")},
				},
			},
		},
	}

	collector := NewCollector(client, "owner", "repo", "", "incident")
	records, err := collector.CollectIncidents(context.Background(), opened.Add(-time.Hour), opened.Add(time.Hour))
	if err != nil {
		t.Fatalf("CollectIncidents returned error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "101" {
		t.Errorf("Expected ID 101, got %s", first.ID)
	}
	if first.Severity != "critical" {
		t.Errorf("Expected severity critical, got %s", first.Severity)
	}
	resolved, ok := dora.NormalizeTime(first.ResolvedTime)
	if !ok || !resolved.Equal(closed) {
		t.Errorf("Expected resolved time %v, got %v", closed, first.ResolvedTime)
	}

	second := records[1]
	if second.Severity != "unknown" {
		t.Errorf("Expected severity unknown, got %s", second.Severity)
	}
	if second.ResolvedTime != nil {
		t.Errorf("Expected nil resolved time for open issue, got %v", second.ResolvedTime)
	}
}

func TestNewCollector_DefaultIncidentLabel(t *testing.T) {
	collector := NewCollector(&MockClient{}, "owner", "repo", "", "")
	if collector.incidentLabel != "incident" {
		t.Errorf("Expected default label incident, got %s", collector.incidentLabel)
	}
}
