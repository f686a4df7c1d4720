package collector

import (
	"context"
	"log"
	"time"

	"github.com/opsmetrics/doratracker/internal/cache"
	"github.com/opsmetrics/doratracker/internal/dora"
)

// CachedSource wraps a Source with caching of whole collection windows.
type CachedSource struct {
	source Source
	cache  cache.Cache
	kb     *cache.KeyBuilder
}

// NewCachedSource creates a caching wrapper around a source.
func NewCachedSource(source Source, cacheImpl cache.Cache) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cacheImpl,
		kb:     cache.NewKeyBuilder(source.Name()),
	}
}

func (c *CachedSource) Name() string {
	return c.source.Name()
}

// CollectDeployments fetches deployments with caching.
func (c *CachedSource) CollectDeployments(ctx context.Context, start, end time.Time) ([]dora.DeploymentRecord, error) {
	cacheKey := c.kb.DeploymentsKey(start, end)

	var cached []dora.DeploymentRecord
	if err := c.cache.Get(cacheKey, &cached); err == nil {
		return cached, nil
	} else if err != cache.ErrCacheMiss {
		log.Printf("Cache error for %s deployments: %v", c.source.Name(), err)
	}

	records, err := c.source.CollectDeployments(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(cacheKey, records, c.windowTTL(end)); err != nil {
		log.Printf("Failed to cache %s deployments: %v", c.source.Name(), err)
	}

	return records, nil
}

// CollectIncidents fetches incidents with caching.
func (c *CachedSource) CollectIncidents(ctx context.Context, start, end time.Time) ([]dora.IncidentRecord, error) {
	cacheKey := c.kb.IncidentsKey(start, end)

	var cached []dora.IncidentRecord
	if err := c.cache.Get(cacheKey, &cached); err == nil {
		return cached, nil
	} else if err != cache.ErrCacheMiss {
		log.Printf("Cache error for %s incidents: %v", c.source.Name(), err)
	}

	records, err := c.source.CollectIncidents(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(cacheKey, records, c.windowTTL(end)); err != nil {
		log.Printf("Failed to cache %s incidents: %v", c.source.Name(), err)
	}

	return records, nil
}

// windowTTL calculates TTL for a collection window based on how recent the
// data is: historical windows change rarely, recent ones keep moving.
func (c *CachedSource) windowTTL(end time.Time) time.Duration {
	daysSinceEnd := time.Since(end).Hours() / 24

	if daysSinceEnd > 7 {
		return 24 * time.Hour
	}
	return 1 * time.Hour
}
