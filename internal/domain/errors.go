package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrExpired            = errors.New("case expired")
	ErrQuotaExceeded      = errors.New("daily verdict quota exceeded")
	ErrBlockedQuota       = errors.New("case blocked by quota")
	ErrProvidersExhausted = errors.New("reasoning providers exhausted")
	ErrMalformedOutput    = errors.New("malformed engine output")
	ErrAlreadyProcessed   = errors.New("appeal already processed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ConflictError reports that a case already advanced past the requested step.
// VerdictID points at the existing verdict when the case is complete.
type ConflictError struct {
	CaseCode  string
	Status    CaseStatus
	VerdictID *uuid.UUID
	Reason    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: case %s is %s: %s", e.CaseCode, e.Status, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ProvidersExhaustedError is returned when every credential in the pool failed.
type ProvidersExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ProvidersExhaustedError) Error() string {
	return fmt.Sprintf("reasoning providers exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ProvidersExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrProvidersExhausted}
	}
	return []error{ErrProvidersExhausted, e.Last}
}

// MalformedOutputError wraps a structural problem found in engine output.
type MalformedOutputError struct {
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed engine output: %s: %v", e.Reason, e.Err)
	}
	return "malformed engine output: " + e.Reason
}

func (e *MalformedOutputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedOutput}
	}
	return []error{ErrMalformedOutput, e.Err}
}

// IsEngineFailure reports whether err comes from an unreliable reasoning engine
// rather than from the caller or storage.
func IsEngineFailure(err error) bool {
	return errors.Is(err, ErrProvidersExhausted) || errors.Is(err, ErrMalformedOutput)
}
