package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/visionforge/forge-core/internal/domain/ports"
)

// Enhancer is a scripted ports.Enhancer. Delay simulates a slow provider;
// it respects context cancellation like a real client would.
type Enhancer struct {
	Response string
	Err      error
	Delay    time.Duration

	mu    sync.Mutex
	calls int
}

func (m *Enhancer) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns how many completions were requested.
func (m *Enhancer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
