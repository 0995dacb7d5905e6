package ai

import "context"

// Prompt is the two-message payload understood by the completion service.
type Prompt struct {
	System string
	User   string
}

// Client sends a prompt to the external model and returns the verdict text.
type Client interface {
	Classify(ctx context.Context, p Prompt) (string, error)
}
