package a

import "context"

type CompletionRequest struct {
	Prompt string
}

type Enhancer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

func bad(ctx context.Context, e Enhancer) {
	e.Complete(ctx, CompletionRequest{Prompt: "improve this phrasing"}) // want "Complete called outside the enhancement gateway"
}

func good(ctx context.Context, items []string) {
	// No completion calls - should not flag
	_ = len(items)
}
