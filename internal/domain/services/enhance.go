package services

import (
	"context"
	"fmt"
	"time"

	"github.com/visionforge/forge-core/internal/domain/ports"
)

// Default per-call budgets for bounded completions.
const (
	DefaultTextTimeout   = 3 * time.Second
	DefaultVisionTimeout = 5 * time.Second
)

// EnhancementResult is the outcome of one bounded completion call. TimedOut
// is a valid outcome, not an error: callers keep their deterministic output
// and simply skip the enrichment.
type EnhancementResult struct {
	Text     string
	TimedOut bool
}

// EnhancementGateway is the single path to the completion provider. Every
// call through it carries an explicit timeout; when the budget expires the
// in-flight provider call is abandoned and its eventual result discarded.
type EnhancementGateway struct {
	provider ports.Enhancer
}

// NewEnhancementGateway creates a gateway around a provider. A nil provider
// yields a gateway whose calls return empty results, so callers do not need
// to special-case an unconfigured installation.
func NewEnhancementGateway(provider ports.Enhancer) *EnhancementGateway {
	return &EnhancementGateway{provider: provider}
}

// Configured reports whether a provider is wired in.
func (g *EnhancementGateway) Configured() bool {
	return g != nil && g.provider != nil
}

// Complete runs one completion bounded by timeout. A zero or negative
// timeout falls back to the default budget for the request kind. Provider
// errors other than expiry are returned so callers can decide whether the
// enrichment was optional.
func (g *EnhancementGateway) Complete(ctx context.Context, req ports.CompletionRequest, timeout time.Duration) (EnhancementResult, error) {
	if !g.Configured() {
		return EnhancementResult{}, nil
	}
	if timeout <= 0 {
		timeout = DefaultTextTimeout
		if req.Kind == ports.CompletionVision {
			timeout = DefaultVisionTimeout
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	// Buffered so the provider goroutine can finish after abandonment.
	done := make(chan outcome, 1)
	go func() {
		text, err := g.provider.Complete(callCtx, req)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if callCtx.Err() != nil {
				return EnhancementResult{TimedOut: true}, nil
			}
			return EnhancementResult{}, fmt.Errorf("completion: %w", out.err)
		}
		return EnhancementResult{Text: out.text}, nil
	case <-callCtx.Done():
		return EnhancementResult{TimedOut: true}, nil
	}
}
