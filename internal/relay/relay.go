// Package relay forwards a single chat message to a completion backend and
// normalizes the answer into one fixed shape.
//
// Two backends satisfy the same interface: SDKRelay dispatches through the
// provider SDKs in-process, GatewayRelay forwards to a remote any-llm gateway
// that does its own metering. Deployment configuration picks one at startup;
// callers never branch on which is in use.
package relay

import "context"

// Request is one chat turn to complete.
type Request struct {
	Provider     string
	Model        string
	Message      string
	UserID       string
	ToolsEnabled bool
}

// Result is the normalized completion outcome.
type Result struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Relay is the completion backend contract. Implementations never retry;
// every failure is surfaced as an *Error and is terminal for the turn.
type Relay interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}

// Error is the uniform failure type for relay calls. Callers treat every
// relay error identically, so it carries only a message and the cause.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError wraps a failure in the uniform relay error.
func NewError(message string, cause error) *Error {
	return &Error{Message: message, Cause: cause}
}
