package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
)

// VectorDB is an in-memory ports.VectorDB. Search returns every stored
// point with the score configured in Scores, highest first; points without
// a configured score are omitted.
type VectorDB struct {
	mu     sync.Mutex
	points map[string]entities.ReferencePoint

	// Scores maps character id to the similarity Search should report.
	Scores map[string]float32
	Err    error
}

// NewVectorDB creates an empty in-memory vector index.
func NewVectorDB() *VectorDB {
	return &VectorDB{
		points: make(map[string]entities.ReferencePoint),
		Scores: make(map[string]float32),
	}
}

func (m *VectorDB) Upsert(ctx context.Context, point entities.ReferencePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.points[point.CharacterID] = point
	return nil
}

func (m *VectorDB) UpsertBatch(ctx context.Context, points []entities.ReferencePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, point := range points {
		m.points[point.CharacterID] = point
	}
	return nil
}

func (m *VectorDB) Search(ctx context.Context, embedding []float32, limit int) ([]ports.ScoredReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []ports.ScoredReference
	for id, point := range m.points {
		score, ok := m.Scores[id]
		if !ok {
			continue
		}
		out = append(out, ports.ScoredReference{Point: point, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Point.CharacterID < out[j].Point.CharacterID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stored returns the point stored for a character id, if any.
func (m *VectorDB) Stored(characterID string) (entities.ReferencePoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	point, ok := m.points[characterID]
	return point, ok
}
