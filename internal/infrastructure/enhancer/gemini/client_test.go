package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("valid config", func(t *testing.T) {
		client, err := NewClient(ctx, config.GatewayConfig{APIKey: "test-key"})
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, defaultModel, client.model)
	})

	t.Run("model override", func(t *testing.T) {
		client, err := NewClient(ctx, config.GatewayConfig{APIKey: "test-key", Model: "gemini-2.5-pro"})
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-pro", client.model)
	})

	t.Run("missing API key", func(t *testing.T) {
		client, err := NewClient(ctx, config.GatewayConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
		assert.Nil(t, client)
	})
}

func TestComplete_VisionRequiresImage(t *testing.T) {
	client, err := NewClient(context.Background(), config.GatewayConfig{APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "describe this character",
		Kind:   ports.CompletionVision,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without image data")
}
