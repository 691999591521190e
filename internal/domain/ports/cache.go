package ports

import (
	"context"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// ReportCache caches the deterministic portion of continuity reports, keyed
// by character id and version (or a content hash for free-text checks).
// Optional: a nil cache simply means every check recomputes.
type ReportCache interface {
	// Get returns the cached report and true, or nil and false on a miss.
	Get(ctx context.Context, key string) (*entities.Report, bool, error)

	// Set stores a report under the key, subject to the cache's TTL.
	Set(ctx context.Context, key string, report *entities.Report) error

	// Close releases the underlying store.
	Close() error
}
