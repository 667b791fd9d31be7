package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/mockview-api/internal/api/shared"
	"github.com/phrazzld/mockview-api/internal/dispatch"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/platform/filestore"
	"github.com/phrazzld/mockview-api/internal/service"
	"github.com/phrazzld/mockview-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	// Bad request errors
	case errors.As(err, &validationErrs),
		errors.Is(err, shared.ErrMalformedBody),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidLane),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, filestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge

	// Not found errors
	case errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrNoDocumentContent),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	// Shared store or queue down
	case errors.Is(err, dispatch.ErrUnavailable),
		errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, store.ErrQueueClosed):
		return http.StatusServiceUnavailable

	// Model providers
	case errors.Is(err, generation.ErrValidationExhausted),
		errors.Is(err, generation.ErrProducerFailure),
		errors.Is(err, generation.ErrContentBlocked):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, shared.ErrMalformedBody):
		return "Invalid request format"

	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid identifier"

	case errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidLane):
		return "Invalid resource key"

	case errors.Is(err, filestore.ErrTooLarge):
		return "Upload is too large"

	case errors.Is(err, service.ErrAttemptNotFound):
		return "Attempt not found"

	case errors.Is(err, service.ErrNoDocumentContent):
		return "No parsed document found for this interview"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidTransition):
		return "Invalid status change"

	case errors.Is(err, dispatch.ErrUnavailable),
		errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, store.ErrQueueClosed):
		return "Service temporarily unavailable"

	case errors.Is(err, generation.ErrValidationExhausted),
		errors.Is(err, generation.ErrProducerFailure),
		errors.Is(err, generation.ErrContentBlocked):
		return "Model provider failed to produce a valid result"

	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'StartAttemptRequest.AttemptID' Error:Field validation for 'AttemptID' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 5 {
				return fmt.Sprintf("Invalid %s: %s", fieldParts[1], getValidationTagMessage(fieldParts[3]))
			}
			if len(fieldParts) >= 3 {
				return fmt.Sprintf("Invalid %s", fieldParts[1])
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "must be a UUID"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "dive":
		return "invalid entry"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err. defaultMsg,
// when set, replaces the generic message of unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
