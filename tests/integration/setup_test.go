package integration

import (
	"context"
	"os"
	"testing"

	"github.com/visionforge/forge-core/internal/infrastructure/config"
	embedder "github.com/visionforge/forge-core/internal/infrastructure/embedder/openai"
	"github.com/visionforge/forge-core/internal/infrastructure/vectordb/qdrant"
)

const (
	testQdrantHost = "localhost"
	testQdrantPort = 6334
	testCollection = "forge_integration_test"
)

var testVectors *qdrant.Repository

func TestMain(m *testing.M) {
	// Skip if INTEGRATION_TEST is not set
	if os.Getenv("INTEGRATION_TEST") != "1" {
		os.Exit(0)
	}

	// Setup
	cfg := config.QdrantConfig{
		Host:       testQdrantHost,
		Port:       testQdrantPort,
		Collection: testCollection,
	}

	var err error
	testVectors, err = qdrant.NewRepository(cfg)
	if err != nil {
		panic("failed to create qdrant repository: " + err.Error())
	}

	// Ensure clean collection
	ctx := context.Background()
	_ = testVectors.DeleteCollection(ctx) // Ignore error if collection doesn't exist
	if err := testVectors.EnsureCollection(ctx, uint64(embedder.VectorSize)); err != nil {
		panic("failed to create collection: " + err.Error())
	}

	// Run tests
	code := m.Run()

	// Cleanup
	_ = testVectors.DeleteCollection(ctx)
	testVectors.Close()

	os.Exit(code)
}

// resetCollection drops and recreates the test collection between tests.
func resetCollection(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := testVectors.DeleteCollection(ctx); err != nil {
		t.Fatalf("failed to drop collection: %v", err)
	}
	if err := testVectors.EnsureCollection(ctx, uint64(embedder.VectorSize)); err != nil {
		t.Fatalf("failed to recreate collection: %v", err)
	}
}
