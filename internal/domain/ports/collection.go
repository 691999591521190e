// Package ports defines interfaces for external service communication.
package ports

import "context"

// CollectionManager handles vector collection lifecycle. Separate from
// VectorDB so the data interface stays focused on point operations and
// implementations without collection management can skip it.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error
}
