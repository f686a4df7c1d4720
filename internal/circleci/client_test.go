package circleci

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_FetchWorkflowRuns(t *testing.T) {
	// Create a mock server that returns sample workflow run data
	mockResponse := WorkflowRunsResponse{
		Items: []WorkflowRun{
			{
				ID:        "run-1",
				Branch:    "main",
				Status:    "success",
				Duration:  420,
				CreatedAt: time.Now().Add(-2 * time.Hour),
				StoppedAt: time.Now().Add(-2*time.Hour + 7*time.Minute),
			},
			{
				ID:        "run-2",
				Branch:    "main",
				Status:    "failed",
				Duration:  180,
				CreatedAt: time.Now().Add(-1 * time.Hour),
				StoppedAt: time.Now().Add(-1*time.Hour + 3*time.Minute),
			},
		},
		NextPageToken: "",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify the request
		expectedPath := "/insights/gh/test-org/test-repo/workflows/deploy"
		if r.URL.Path != expectedPath {
			t.Errorf("Expected path %s, got %s", expectedPath, r.URL.Path)
		}

		// Verify auth header
		authHeader := r.Header.Get("Circle-Token")
		if authHeader != "test-token" {
			t.Errorf("Expected Circle-Token header to be 'test-token', got '%s'", authHeader)
		}

		if r.URL.Query().Get("start-date") == "" {
			t.Error("Expected start-date query parameter")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResponse)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	ctx := context.Background()
	runs, err := client.FetchWorkflowRuns(ctx, "test-org", "test-repo", "deploy",
		time.Now().Add(-24*time.Hour), time.Now())

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-1" {
		t.Errorf("Expected run-1, got %s", runs[0].ID)
	}
	if runs[1].Status != "failed" {
		t.Errorf("Expected failed, got %s", runs[1].Status)
	}
}

func TestClient_FetchWorkflowRuns_Pagination(t *testing.T) {
	pageCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageCount++
		response := WorkflowRunsResponse{
			Items: []WorkflowRun{{ID: r.URL.Query().Get("page-token") + "run", Status: "success"}},
		}
		if pageCount == 1 {
			response.NextPageToken = "page2-"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	runs, err := client.FetchWorkflowRuns(context.Background(), "org", "repo", "deploy",
		time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pageCount != 2 {
		t.Errorf("Expected 2 pages fetched, got %d", pageCount)
	}
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs across pages, got %d", len(runs))
	}
}

func TestClient_FetchWorkflowRuns_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-token")
	client.baseURL = server.URL

	_, err := client.FetchWorkflowRuns(context.Background(), "org", "repo", "deploy",
		time.Now().Add(-24*time.Hour), time.Now())
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
}
