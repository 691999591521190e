package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// ReportCache is a map-backed ports.ReportCache. Reports round-trip through
// JSON so cached copies never alias the caller's report, matching the
// on-disk implementation.
type ReportCache struct {
	Err error

	mu   sync.Mutex
	data map[string][]byte
	hits int
}

// NewReportCache creates an empty cache.
func NewReportCache() *ReportCache {
	return &ReportCache{data: make(map[string][]byte)}
}

func (c *ReportCache) Get(ctx context.Context, key string) (*entities.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	raw, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	var report entities.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, err
	}
	c.hits++
	return &report, true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, report *entities.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *ReportCache) Close() error {
	return nil
}

// Hits returns how many gets were served from the cache.
func (c *ReportCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
