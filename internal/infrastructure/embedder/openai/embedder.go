// Package openai embeds character summaries for the continuity
// cross-reference index. Vectors produced here land in the Qdrant
// collection, so every embedding must come out at exactly VectorSize
// dimensions regardless of which model the config names.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

// VectorSize is the dimension of the continuity index collection.
const VectorSize = 1536

// maxInputRunes bounds a single embedding input. Registry summaries are
// normally a few hundred runes, but backstory_seeds pasted from long
// generator output can exceed the model's context window.
const maxInputRunes = 16000

// Embedder turns summary text into vectors via the OpenAI embeddings API.
type Embedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	pinDims bool
}

// NewEmbedder builds an embedder from config. The model defaults to
// text-embedding-3-small; third-generation models additionally get the
// dimensions parameter pinned so an override like text-embedding-3-large
// cannot silently produce vectors the collection rejects.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}

	return &Embedder{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		pinDims: supportsDimensions(model),
	}, nil
}

// Embed generates the vector for one character summary.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates vectors for multiple summaries in one request,
// preserving input order. Bulk registration goes through here to keep API
// calls down.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = truncateInput(text)
	}

	req := openai.EmbeddingRequest{
		Model: e.model,
		Input: inputs,
	}
	if e.pinDims {
		req.Dimensions = VectorSize
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d inputs, got %d vectors", len(inputs), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != VectorSize {
			return nil, fmt.Errorf("model %s returned %d-dimension vector, collection expects %d",
				e.model, len(data.Embedding), VectorSize)
		}
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

// supportsDimensions reports whether the model accepts the dimensions
// request parameter. Only third-generation embedding models do; sending it
// to ada-002 is a request error.
func supportsDimensions(model openai.EmbeddingModel) bool {
	return strings.HasPrefix(string(model), "text-embedding-3")
}

func truncateInput(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputRunes {
		return text
	}
	return string(runes[:maxInputRunes])
}
