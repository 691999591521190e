package a

import "context"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorDB interface {
	Upsert(ctx context.Context, id string) error
	UpsertBatch(ctx context.Context, ids []string) error
	Search(ctx context.Context, id string) error
}

type Index interface {
	Search(ctx context.Context, q string) []string
}

func bad(ctx context.Context, items []string, e Embedder, db VectorDB) {
	for _, item := range items {
		e.Embed(ctx, item)   // want "potential N\\+1: Embed called inside loop - use EmbedBatch"
		db.Upsert(ctx, item) // want "potential N\\+1: Upsert called inside loop - use UpsertBatch"
		db.Search(ctx, item) // want "potential N\\+1: Search called inside loop - reshape the query into one search"
	}
}

func nested(ctx context.Context, groups [][]string, e Embedder) {
	for _, group := range groups {
		for _, item := range group {
			e.Embed(ctx, item) // want "potential N\\+1: Embed called inside loop - use EmbedBatch"
		}
	}
}

func polls(ctx context.Context, db VectorDB) {
	for i := 0; db.Upsert(ctx, "probe") != nil; i++ { // want "potential N\\+1: Upsert called inside loop - use UpsertBatch"
	}
}

func once(ctx context.Context, ix Index) {
	// The range expression is evaluated a single time.
	for _, hit := range ix.Search(ctx, "q") {
		_ = hit
	}
}

func good(ctx context.Context, items []string, e Embedder, db VectorDB) {
	// Batched variants are fine.
	e.EmbedBatch(ctx, items)
	db.UpsertBatch(ctx, items)
	for _, item := range items {
		_ = len(item)
	}
}
