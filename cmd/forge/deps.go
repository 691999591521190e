package main

import (
	"context"
	"fmt"
	"os"

	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/domain/services"
	"github.com/visionforge/forge-core/internal/infrastructure/cache/badger"
	"github.com/visionforge/forge-core/internal/infrastructure/characterstore/sqlite"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
	embedder "github.com/visionforge/forge-core/internal/infrastructure/embedder/openai"
	enhanceGemini "github.com/visionforge/forge-core/internal/infrastructure/enhancer/gemini"
	enhanceOpenAI "github.com/visionforge/forge-core/internal/infrastructure/enhancer/openai"
	"github.com/visionforge/forge-core/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers and services are exposed - repositories stay internal.
type Deps struct {
	Config     *config.Config
	Characters *handlers.CharacterHandler
	Continuity *handlers.ContinuityHandler
	Export     *handlers.ExportHandler
	Import     *handlers.ImportHandler
	Sessions   *services.SessionService

	// VectorsEnabled reports whether the cross-reference index is wired in.
	// Core character commands work without it.
	VectorsEnabled bool
	// EnhancerEnabled reports whether an AI provider is wired in.
	EnhancerEnabled bool
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	store   *sqlite.Repository
	vectors *qdrant.Repository
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level
// components. The vector index, report cache and AI enhancer are optional;
// everything else is required.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.SQLitePath(cwd)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	// The vector index needs embeddings; without credentials both stay off
	// and continuity checks simply skip cross-references.
	var (
		vectors *qdrant.Repository
		embed   ports.Embedder
	)
	if cfg.Embedder.APIKey != "" {
		vectors, err = qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer vectors.Close()

		embed, err = embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
	}

	gateway, err := buildGateway(ctx, cfg.Gateway)
	if err != nil {
		return err
	}

	var reports ports.ReportCache
	if !cfg.Cache.Disabled {
		cache, err := badger.NewCache(cfg.CachePath(cwd), cfg.Cache.TTL.Std())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: report cache disabled: %v\n", err)
		} else {
			defer cache.Close()
			reports = cache
		}
	}

	var vectorPort ports.VectorDB
	if vectors != nil {
		vectorPort = vectors
	}

	engine := services.NewContinuityService(store, vectorPort, embed, gateway, reports, services.ContinuityOptions{
		EnhanceTimeout: cfg.Gateway.TextTimeout.Std(),
	})
	characterService := services.NewCharacterService(store)
	sessionService := services.NewSessionService(store)

	deps := &internalDeps{
		Deps: Deps{
			Config:          cfg,
			Characters:      handlers.NewCharacterHandler(characterService, sessionService),
			Continuity:      handlers.NewContinuityHandler(engine, services.NewImportService(store, engine), sessionService),
			Export:          handlers.NewExportHandler(characterService),
			Import:          handlers.NewImportHandler(characterService),
			Sessions:        sessionService,
			VectorsEnabled:  vectors != nil,
			EnhancerEnabled: gateway.Configured(),
		},
		store:   store,
		vectors: vectors,
	}

	return fn(deps)
}

// buildGateway wires the configured AI provider, or none at all. The engine
// treats a nil gateway as "enhancement off".
func buildGateway(ctx context.Context, cfg config.GatewayConfig) (*services.EnhancementGateway, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := enhanceOpenAI.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI enhancer: %w", err)
		}
		return services.NewEnhancementGateway(client), nil
	case config.ProviderGemini:
		client, err := enhanceGemini.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating Gemini enhancer: %w", err)
		}
		return services.NewEnhancementGateway(client), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Provider)
	}
}
