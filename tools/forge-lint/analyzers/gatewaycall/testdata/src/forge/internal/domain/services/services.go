package services

import "context"

type CompletionRequest struct {
	Prompt string
}

type Enhancer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// The gateway's own package calls providers directly.
func gatewayCall(ctx context.Context, e Enhancer) {
	e.Complete(ctx, CompletionRequest{Prompt: "x"})
}
