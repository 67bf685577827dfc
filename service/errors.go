package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrFailedValidation     = errors.New("failed validation")
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("edit conflict")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrBadRequest           = errors.New("bad request")
	ErrDuplicateRecord      = errors.New("duplicate record")
	ErrNotPermitted         = errors.New("not permitted")
	ErrAlreadyAdded         = errors.New("book already added")
	ErrDuplicateIsbn        = errors.New("a book with this isbn already exists")
	ErrTagNotFound          = errors.New("tag not found")
	ErrLookupFailed         = errors.New("book lookup failed")
)

// ValidationError carries the field errors of a failed validation. It matches
// ErrFailedValidation with errors.Is.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q %s", k, e.Errors[k]))
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrFailedValidation
}

// failedValidation wraps a validation error map into a *ValidationError.
func failedValidation(errorMap map[string]string) error {
	return &ValidationError{Errors: errorMap}
}

// Kind returns the stable symbolic name of the error class err belongs to.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFailedValidation):
		return "ValidationError"
	case errors.Is(err, ErrRecordNotFound):
		return "NotFound"
	case errors.Is(err, ErrAlreadyAdded):
		return "AlreadyAdded"
	case errors.Is(err, ErrDuplicateIsbn):
		return "DuplicateIsbn"
	case errors.Is(err, ErrDuplicateRecord):
		return "AlreadyExists"
	case errors.Is(err, ErrTagNotFound):
		return "TagNotFound"
	case errors.Is(err, ErrLookupFailed):
		return "LookupFailed"
	case errors.Is(err, ErrNotPermitted):
		return "Forbidden"
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrEditConflict):
		return "EditConflict"
	case errors.Is(err, ErrUnsupportedMediaType):
		return "UnsupportedMediaType"
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	default:
		return "ServerError"
	}
}
