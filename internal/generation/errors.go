package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrProducerFailure is returned when an opaque producer call fails.
	// Workers log it and end the job without writing a result.
	ErrProducerFailure = errors.New("producer call failed")

	// ErrValidationExhausted is returned when every attempt of the validated
	// pipeline produced output that failed to parse or validate.
	ErrValidationExhausted = errors.New("structured output validation exhausted")

	// ErrInvalidResponse is returned when a model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when a producer configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyInput is returned when a producer is called with no input.
	ErrEmptyInput = errors.New("producer input cannot be empty")
)
