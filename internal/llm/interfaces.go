package llm

import "context"

// Client provides a provider-neutral interface for making LLM API calls.
// Implementations handle provider-specific details internally.
type Client interface {
	// Complete sends a request and returns the full response.
	Complete(ctx context.Context, req *Request) (*Response, error)
}
