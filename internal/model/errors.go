package model

import (
	"errors"
	"fmt"
)

// Domain errors returned by entity state transitions.
// Use errors.Is() to check these in calling code.
var (
	// ErrTerminalStatus indicates the entity already reached a final status.
	ErrTerminalStatus = errors.New("status is terminal")

	// ErrInvalidTransition indicates the requested status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSelfReview indicates the reviewing actor is the same user who requested the payment.
	ErrSelfReview = errors.New("reviewer must differ from requester")
)

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError groups field errors for a single entity.
// Cause, when set, is reachable through errors.Is.
type ValidationError struct {
	Entity string
	Errors []FieldError
	Cause  error
}

// NewValidationError creates a validation error for an entity
func NewValidationError(entity string, cause error, errs ...FieldError) *ValidationError {
	return &ValidationError{Entity: entity, Errors: errs, Cause: cause}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	detail := "one or more fields failed validation"
	if len(v.Errors) > 0 {
		detail = fmt.Sprintf("%s: %s", v.Errors[0].Field, v.Errors[0].Message)
		if len(v.Errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(v.Errors)-1)
		}
	} else if v.Cause != nil {
		detail = v.Cause.Error()
	}
	return fmt.Sprintf("invalid %s: %s", v.Entity, detail)
}

// Unwrap returns the underlying cause
func (v *ValidationError) Unwrap() error {
	return v.Cause
}

// validationOrNil returns nil when there are no field errors
func validationOrNil(entity string, errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return NewValidationError(entity, nil, errs...)
}
