package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsmetrics/doratracker/internal/cache"
	"github.com/opsmetrics/doratracker/internal/dora"
)

// countingSource records how many times each collection runs
type countingSource struct {
	deployments     []dora.DeploymentRecord
	incidents       []dora.IncidentRecord
	err             error
	deployCalls     int
	incidentCalls   int
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) CollectDeployments(ctx context.Context, start, end time.Time) ([]dora.DeploymentRecord, error) {
	s.deployCalls++
	return s.deployments, s.err
}

func (s *countingSource) CollectIncidents(ctx context.Context, start, end time.Time) ([]dora.IncidentRecord, error) {
	s.incidentCalls++
	return s.incidents, s.err
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCacheWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Error creating cache: %v", err)
	}
	return c
}

func TestCachedSource_SecondReadHitsCache(t *testing.T) {
	inner := &countingSource{
		deployments: []dora.DeploymentRecord{
			{ID: "d1", Timestamp: "2023-06-01T10:00:00Z", Status: "success"},
		},
	}
	src := NewCachedSource(inner, newTestCache(t))

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		records, err := src.CollectDeployments(context.Background(), start, end)
		if err != nil {
			t.Fatalf("Error collecting deployments: %v", err)
		}
		if len(records) != 1 || records[0].ID != "d1" {
			t.Fatalf("Unexpected records on read %d: %+v", i, records)
		}
	}

	if inner.deployCalls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", inner.deployCalls)
	}
}

func TestCachedSource_DistinctWindowsCollectSeparately(t *testing.T) {
	inner := &countingSource{}
	src := NewCachedSource(inner, newTestCache(t))

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, err := src.CollectIncidents(context.Background(), start, start.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("Error collecting incidents: %v", err)
	}
	if _, err := src.CollectIncidents(context.Background(), start, start.AddDate(0, 0, 14)); err != nil {
		t.Fatalf("Error collecting incidents: %v", err)
	}

	if inner.incidentCalls != 2 {
		t.Errorf("Expected 2 upstream calls for distinct windows, got %d", inner.incidentCalls)
	}
}

func TestCachedSource_UpstreamErrorsPropagateUncached(t *testing.T) {
	upstreamErr := errors.New("connection refused")
	inner := &countingSource{err: upstreamErr}
	src := NewCachedSource(inner, newTestCache(t))

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	if _, err := src.CollectDeployments(context.Background(), start, end); !errors.Is(err, upstreamErr) {
		t.Fatalf("Expected upstream error to propagate, got %v", err)
	}
	if _, err := src.CollectDeployments(context.Background(), start, end); !errors.Is(err, upstreamErr) {
		t.Fatalf("Expected upstream error on retry, got %v", err)
	}

	// Failures must not be cached
	if inner.deployCalls != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", inner.deployCalls)
	}
}
