package types

import "fmt"

// ExternalServiceError indicates a backend (embedding, vector store,
// keyword store, cross-encoder, language model) was unavailable or timed
// out. The pipeline drops that data source and continues.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("external service %s unavailable", e.Service)
	}
	return fmt.Sprintf("external service %s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ExternalServiceError.
// This allows errors.Is(err, &ExternalServiceError{}) to work with wrapped errors.
func (e *ExternalServiceError) Is(target error) bool {
	_, ok := target.(*ExternalServiceError)
	return ok
}

// NewExternalServiceError creates an ExternalServiceError for the named
// service wrapping the underlying cause.
func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

// ValidationError indicates invalid caller input (empty query, empty
// candidate set). It produces an empty result with suggestions, not a
// failed response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new validation error (message is required)
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ParseError indicates an unstructured language-model response could not
// be interpreted. The affected batch falls back to its pre-rerank order.
type ParseError struct {
	Message string
	Raw     string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Is implements errors.Is support for ParseError.
func (e *ParseError) Is(target error) bool {
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a parse error carrying the raw model output.
func NewParseError(message, raw string) *ParseError {
	return &ParseError{Message: message, Raw: raw}
}
