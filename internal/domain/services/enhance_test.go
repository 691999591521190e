package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/mocks"
	"github.com/visionforge/forge-core/internal/domain/ports"
)

func TestEnhancementGateway_Completes(t *testing.T) {
	gateway := NewEnhancementGateway(&mocks.Enhancer{Response: "sharper phrasing"})

	res, err := gateway.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "improve this",
		Kind:   ports.CompletionText,
	}, time.Second)
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "sharper phrasing", res.Text)
}

func TestEnhancementGateway_TimeoutIsAResultNotAnError(t *testing.T) {
	gateway := NewEnhancementGateway(&mocks.Enhancer{
		Response: "too late",
		Delay:    200 * time.Millisecond,
	})

	start := time.Now()
	res, err := gateway.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "improve this",
		Kind:   ports.CompletionText,
	}, 20*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Empty(t, res.Text)
	// The call is abandoned at the budget, not awaited to completion.
	assert.Less(t, elapsed, 150*time.Millisecond)

	// The provider goroutine unblocks on cancellation; give it a tick to
	// drain before other tests check for leaks.
	time.Sleep(50 * time.Millisecond)
}

func TestEnhancementGateway_ProviderError(t *testing.T) {
	provider := &mocks.Enhancer{Err: errors.New("quota exhausted")}
	gateway := NewEnhancementGateway(provider)

	_, err := gateway.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "improve this",
		Kind:   ports.CompletionText,
	}, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestEnhancementGateway_Unconfigured(t *testing.T) {
	gateway := NewEnhancementGateway(nil)
	assert.False(t, gateway.Configured())

	res, err := gateway.Complete(context.Background(), ports.CompletionRequest{Prompt: "x"}, time.Second)
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Empty(t, res.Text)
}

func TestEnhancementGateway_ZeroTimeoutUsesDefaultBudget(t *testing.T) {
	provider := &mocks.Enhancer{Response: "ok"}
	gateway := NewEnhancementGateway(provider)

	res, err := gateway.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "x",
		Kind:   ports.CompletionVision,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 1, provider.Calls())
}

func TestEnhancementGateway_ParentCancellation(t *testing.T) {
	gateway := NewEnhancementGateway(&mocks.Enhancer{
		Response: "never delivered",
		Delay:    200 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := gateway.Complete(ctx, ports.CompletionRequest{Prompt: "x"}, time.Second)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)

	time.Sleep(50 * time.Millisecond)
}
