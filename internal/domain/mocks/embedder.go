package mocks

import (
	"context"
	"sync"
)

// Embedder produces small deterministic embeddings derived from the input
// text, so equal texts embed equally across calls.
type Embedder struct {
	Err error

	mu         sync.Mutex
	calls      int
	batchCalls int
}

func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return fakeEmbedding(text), nil
}

func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = fakeEmbedding(text)
	}
	return out, nil
}

// Calls returns how many single-text embeddings were requested.
func (m *Embedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// BatchCalls returns how many batch embeddings were requested.
func (m *Embedder) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

func fakeEmbedding(text string) []float32 {
	out := make([]float32, 8)
	for i, r := range text {
		out[i%8] += float32(r%97) / 97
	}
	return out
}
