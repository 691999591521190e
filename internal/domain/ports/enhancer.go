package ports

import "context"

// CompletionKind selects the model family used for a completion.
type CompletionKind string

const (
	CompletionText   CompletionKind = "text"
	CompletionVision CompletionKind = "vision"
)

// CompletionRequest carries one completion call to a provider.
type CompletionRequest struct {
	Prompt    string
	Kind      CompletionKind
	ImageData []byte // raw image bytes, vision requests only
}

// Enhancer is a raw completion provider, assumed slow and unreliable.
// Application code must not call it directly: every call goes through
// services.EnhancementGateway, which bounds it with a timeout and turns
// expiry into a first-class TimedOut result.
type Enhancer interface {
	// Complete runs one completion and returns the model text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
