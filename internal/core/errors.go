package core

import "fmt"

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthenticationError reports a missing, invalid or expired session, or
// bad credentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NotFoundError covers both missing rows and rows owned by someone else;
// callers cannot tell the two apart.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// UpstreamError wraps a failed call to the generation endpoint.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// ConfigurationError reports a setting the service needs but does not have.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
