package llm

import "errors"

// Error represents a provider-neutral LLM error.
type Error struct {
	Type        ErrorType
	Message     string
	StatusCode  int
	ProviderErr error // original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeProvider       ErrorType = "provider"
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeUnsupported    ErrorType = "unsupported"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// NewInvalidRequestError creates an error for a malformed request.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrorTypeInvalidRequest, Message: message}
}

// NewNotFoundError creates an error for an unknown provider or model.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message}
}

// NewProviderError creates an error for a provider-side rejection.
func NewProviderError(message string, providerErr error) *Error {
	return &Error{Type: ErrorTypeProvider, Message: message, ProviderErr: providerErr}
}

// NewNetworkError creates an error for a transport failure.
func NewNetworkError(message string, providerErr error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: message, ProviderErr: providerErr}
}

// NewUnsupportedError creates an error for an operation the provider does
// not offer.
func NewUnsupportedError(message string) *Error {
	return &Error{Type: ErrorTypeUnsupported, Message: message}
}

// IsNotFound checks whether an error is a not-found error.
func IsNotFound(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsUnsupported checks whether an error is an unsupported-operation error.
func IsUnsupported(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeUnsupported
	}
	return false
}
