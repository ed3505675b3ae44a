package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	ErrValidation        = errors.New("validation failed")
)

// Session errors
var (
	ErrInvalidCredential = errors.New("credential does not decode to an identity")
)

// Renewal errors
var (
	ErrRenewalNotFound     = errors.New("renewal request not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidStatus       = errors.New("invalid renewal status")
	ErrMissingReason       = errors.New("rejection reason is required")
	ErrInvalidDocumentType = errors.New("invalid document type")
)

// ValidationError is a local guard failure reported before any remote call
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrValidation, e.Field, e.Reason)
}

// Unwrap exposes both the validation class and the concrete reason
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}
