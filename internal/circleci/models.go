package circleci

import "time"

// WorkflowRun represents one run of a workflow from the insights API
type WorkflowRun struct {
	ID        string    `json:"id"`
	Branch    string    `json:"branch"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	StoppedAt time.Time `json:"stopped_at"`
}

// WorkflowRunsResponse is the insights workflow runs API response
type WorkflowRunsResponse struct {
	Items         []WorkflowRun `json:"items"`
	NextPageToken string        `json:"next_page_token"`
}
