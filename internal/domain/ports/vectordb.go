package ports

import (
	"context"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// ScoredReference is a reference point with its similarity score from a
// search, in [0, 1] for cosine distance.
type ScoredReference struct {
	Point entities.ReferencePoint `json:"point"`
	Score float32                 `json:"score"`
}

// VectorDB defines the interface for the continuity cross-reference index.
// One point per registered character; read-heavy, append-mostly.
type VectorDB interface {
	// Upsert stores or replaces the reference point for a character.
	Upsert(ctx context.Context, point entities.ReferencePoint) error

	// UpsertBatch stores many reference points in one round trip.
	UpsertBatch(ctx context.Context, points []entities.ReferencePoint) error

	// Search returns the closest reference points to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]ScoredReference, error)
}
