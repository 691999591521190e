package handlers

import (
	"context"
	"fmt"

	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
	embedder "github.com/visionforge/forge-core/internal/infrastructure/embedder/openai"
)

// InitHandler handles workspace initialization.
type InitHandler struct {
	collections ports.CollectionManager
}

// NewInitHandler creates a new init handler. A nil collection manager skips
// vector collection setup, for installations running without Qdrant.
func NewInitHandler(collections ports.CollectionManager) *InitHandler {
	return &InitHandler{collections: collections}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	CollectionName string
}

// Handle writes the default config and prepares the vector collection.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("forge already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if h.collections != nil {
		if err := h.collections.EnsureCollection(ctx, embedder.VectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	return &InitResult{
		ConfigPath:     config.ConfigFilePath(basePath),
		CollectionName: cfg.Qdrant.Collection,
	}, nil
}
