// Package apperror defines the error kinds shared by repositories, services and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrTransient    = errors.New("transient store error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind names the category of err, "failure" when it matches none of the sentinels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "failure"
	}
}

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "access_denied":
		return http.StatusForbidden
	case "validation":
		return http.StatusBadRequest
	case "conflict":
		return http.StatusConflict
	case "unauthorized":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}
