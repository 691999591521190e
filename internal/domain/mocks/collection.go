package mocks

import (
	"context"
	"sync"
)

// CollectionManager is a recording ports.CollectionManager.
type CollectionManager struct {
	Err error

	mu         sync.Mutex
	calls      int
	vectorSize uint64
}

func (m *CollectionManager) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.calls++
	m.vectorSize = vectorSize
	return nil
}

// Calls returns how many times EnsureCollection succeeded.
func (m *CollectionManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// VectorSize returns the size passed to the last EnsureCollection call.
func (m *CollectionManager) VectorSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vectorSize
}
