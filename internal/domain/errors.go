package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidKey is returned when a resource key has an empty component.
	ErrInvalidKey = errors.New("invalid resource key")

	// ErrInvalidLane is returned for a lane name outside the known set.
	ErrInvalidLane = errors.New("invalid lane")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTransition is returned when an answer status would move backwards.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrScoreOutOfRange is returned when a category score leaves [MinCategoryScore, MaxCategoryScore].
	ErrScoreOutOfRange = errors.New("category score out of range")

	// ErrScoreSumMismatch is returned when final_score is not the sum of its categories.
	ErrScoreSumMismatch = errors.New("final score does not equal the sum of categories")
)

// ValidationError names the field that failed and wraps a sentinel so that
// errors.Is keeps working.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError wrapping err.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Field, e.Message, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
