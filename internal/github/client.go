package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"
)

// ClientInterface defines the GitHub operations the collector needs
type ClientInterface interface {
	FetchDeployments(ctx context.Context, owner, repo, environment string, startDate, endDate time.Time) ([]*github.Deployment, error)
	FetchDeploymentStatuses(ctx context.Context, owner, repo string, deploymentID int64) ([]*github.DeploymentStatus, error)
	FetchIssuesByLabel(ctx context.Context, owner, repo, label string, startDate, endDate time.Time) ([]*github.Issue, error)
}

type Client struct {
	client *github.Client
}

func NewClient(token string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// FetchDeployments lists deployments for a repository, filtered to the
// given date window. An empty environment matches all environments.
func (c *Client) FetchDeployments(ctx context.Context, owner, repo, environment string, startDate, endDate time.Time) ([]*github.Deployment, error) {
	var allDeployments []*github.Deployment
	opts := &github.DeploymentsListOptions{
		Environment: environment,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		deployments, resp, err := c.client.Repositories.ListDeployments(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch deployments: %w", err)
		}

		for _, d := range deployments {
			created := d.GetCreatedAt().Time
			if !created.Before(startDate) && !created.After(endDate) {
				allDeployments = append(allDeployments, d)
			}
		}

		if resp.NextPage == 0 {
			break
		}

		// Deployments come newest first; once a page ends before our start
		// date there is nothing older worth fetching
		if len(deployments) > 0 {
			last := deployments[len(deployments)-1]
			if last.GetCreatedAt().Time.Before(startDate) {
				break
			}
		}
		opts.Page = resp.NextPage
	}

	return allDeployments, nil
}

// FetchDeploymentStatuses lists the status history of one deployment.
func (c *Client) FetchDeploymentStatuses(ctx context.Context, owner, repo string, deploymentID int64) ([]*github.DeploymentStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	statuses, _, err := c.client.Repositories.ListDeploymentStatuses(ctx, owner, repo, deploymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deployment statuses for %d: %w", deploymentID, err)
	}

	return statuses, nil
}

// FetchIssuesByLabel lists issues carrying a label, created inside the
// date window. Both open and closed issues are returned.
func (c *Client) FetchIssuesByLabel(ctx context.Context, owner, repo, label string, startDate, endDate time.Time) ([]*github.Issue, error) {
	var allIssues []*github.Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Labels:      []string{label},
		Since:       startDate,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues: %w", err)
		}

		for _, issue := range issues {
			// The issues API returns pull requests too
			if issue.IsPullRequest() {
				continue
			}
			created := issue.GetCreatedAt()
			if !created.Before(startDate) && !created.After(endDate) {
				allIssues = append(allIssues, issue)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allIssues, nil
}
