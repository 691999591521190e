package ports

import "context"

// Embedder generates vector embeddings for character summaries. Single-text
// Embed covers the check path; EmbedBatch covers bulk registration.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
