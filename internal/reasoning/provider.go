// Package reasoning defines the reasoning-service collaborator: a provider
// interface, an HTTP implementation with retry, and a mock for tests.
package reasoning

import (
	"context"
)

// Request is one structured review prompt.
type Request struct {
	Category     string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the free-text reply of the reasoning service. Callers parse
// it with the review line grammar.
type Response struct {
	Content string
	Model   string
}

// Provider abstracts the reasoning service.
type Provider interface {
	// Review sends one category prompt and returns the raw response.
	Review(ctx context.Context, req Request) (*Response, error)

	// Name identifies the provider for logging.
	Name() string
}
