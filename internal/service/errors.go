package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/mockview-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to status codes.
var (
	// ErrAttemptNotFound indicates that the attempt does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrNoDocumentContent indicates that no parsed document belongs to the
	// interview. API layer should map this to HTTP 404 Not Found.
	ErrNoDocumentContent = errors.New("no parsed document content for interview")

	// ErrInvalidRequest indicates missing or malformed request fields.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidRequest = errors.New("invalid request")
)

// ServiceError wraps errors from a service with the failing operation.
type ServiceError struct {
	// Service is the service that failed (e.g., "attempt", "scoring")
	Service string
	// Operation is the operation that failed (e.g., "submit_answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError. Known sentinel errors are returned
// directly without wrapping.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrAttemptNotFound), errors.Is(err, store.ErrAttemptNotFound):
		return ErrAttemptNotFound
	case errors.Is(err, ErrNoDocumentContent):
		return ErrNoDocumentContent
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
