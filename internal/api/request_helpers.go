package api

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
)

// maxMultipartMemory is the in-memory part of multipart parsing; larger
// files spill to disk.
const maxMultipartMemory = 8 << 20

// parseUUID parses a required identifier field.
func parseUUID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, domain.NewValidationError(field, "is required", domain.ErrValidation)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// parseOptionalUUID parses an identifier that may be absent.
func parseOptionalUUID(field, value string) (uuid.NullUUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := parseUUID(field, value)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// formFile parses a multipart request bounded by maxBytes and returns the
// named file part.
func formFile(w http.ResponseWriter, r *http.Request, name string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, domain.NewValidationError("form", "could not be parsed", domain.ErrValidation)
	}
	file, header, err := r.FormFile(name)
	if err != nil {
		return nil, nil, domain.NewValidationError(name, "is required", domain.ErrValidation)
	}
	return file, header, nil
}
