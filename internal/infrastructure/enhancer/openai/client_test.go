package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GatewayConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			cfg: config.GatewayConfig{
				APIKey: "test-key",
			},
			wantErr: false,
		},
		{
			name: "valid config with model",
			cfg: config.GatewayConfig{
				APIKey: "test-key",
				Model:  "gpt-4o",
			},
			wantErr: false,
		},
		{
			name:    "missing API key",
			cfg:     config.GatewayConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestComplete_VisionRequiresImage(t *testing.T) {
	client, err := NewClient(config.GatewayConfig{APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ports.CompletionRequest{
		Prompt: "describe this character",
		Kind:   ports.CompletionVision,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without image data")
}
