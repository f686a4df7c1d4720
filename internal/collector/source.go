package collector

import (
	"context"
	"time"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// Source supplies deployment and incident records for a time window.
// Implementations own transport and auth; their errors propagate unchanged
// to the caller. The calculator never sees a partially failed collection.
type Source interface {
	// Name identifies the source in cache keys and log lines.
	Name() string

	// CollectDeployments returns deployment records whose timestamps fall
	// inside [start, end].
	CollectDeployments(ctx context.Context, start, end time.Time) ([]dora.DeploymentRecord, error)

	// CollectIncidents returns incident records for the same window.
	CollectIncidents(ctx context.Context, start, end time.Time) ([]dora.IncidentRecord, error)
}
