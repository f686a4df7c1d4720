package circleci

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	circleAPIBaseURL = "https://circleci.com/api/v2"
	defaultTimeout   = 30 * time.Second
)

// ClientInterface defines the CircleCI operations the collector needs
type ClientInterface interface {
	FetchWorkflowRuns(ctx context.Context, org, repo, workflow string, startDate, endDate time.Time) ([]WorkflowRun, error)
}

// Client handles CircleCI API operations
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// NewClient creates a new CircleCI client
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		token:   token,
		baseURL: circleAPIBaseURL,
	}
}

// FetchWorkflowRuns fetches runs of a workflow within the date window
func (c *Client) FetchWorkflowRuns(ctx context.Context, org, repo, workflow string, startDate, endDate time.Time) ([]WorkflowRun, error) {
	projectSlug := fmt.Sprintf("gh/%s/%s", org, repo)

	var allRuns []WorkflowRun
	nextPageToken := ""

	for {
		runs, token, err := c.fetchWorkflowRunsPage(ctx, projectSlug, workflow, startDate, endDate, nextPageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch workflow runs for project %s: %w", projectSlug, err)
		}

		allRuns = append(allRuns, runs...)

		if token == "" {
			break
		}
		nextPageToken = token
	}

	return allRuns, nil
}

// fetchWorkflowRunsPage fetches a single page of workflow runs
func (c *Client) fetchWorkflowRunsPage(ctx context.Context, projectSlug, workflow string, startDate, endDate time.Time, pageToken string) ([]WorkflowRun, string, error) {
	endpoint := fmt.Sprintf("%s/insights/%s/workflows/%s", c.baseURL, projectSlug, workflow)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Circle-Token", c.token)
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	q.Add("start-date", startDate.UTC().Format(time.RFC3339))
	q.Add("end-date", endDate.UTC().Format(time.RFC3339))
	if pageToken != "" {
		q.Add("page-token", pageToken)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == 404 {
			return nil, "", fmt.Errorf("Project %s or workflow %s not found. This could mean:\n"+
				"  1. The project doesn't exist in CircleCI\n"+
				"  2. Your token doesn't have access to this project\n"+
				"  3. The workflow name is wrong or has no insights data yet\n"+
				"URL: %s", projectSlug, workflow, endpoint)
		}

		return nil, "", fmt.Errorf("API returned status %d for URL %s: %s", resp.StatusCode, endpoint, resp.Status)
	}

	var response WorkflowRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Items, response.NextPageToken, nil
}

// Close cleans up the client (no-op for HTTP client)
func (c *Client) Close() error {
	return nil
}
