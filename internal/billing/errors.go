package billing

import (
	"errors"
	"fmt"
)

// Errors returned by the billing engine. Callers match them with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidLineItem     = errors.New("invalid line item")
	ErrInvalidDocument     = errors.New("invalid document")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrQuoteNotAccepted    = errors.New("quote is not accepted")
	ErrAlreadyConverted    = errors.New("quote already converted")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrNotFound            = errors.New("not found")

	// ErrNotEditable is returned when editable fields are replaced outside Draft/Pending.
	ErrNotEditable = fmt.Errorf("%w: document is not editable", ErrInvalidTransition)
)

// ValidationError reports malformed input together with the offending field.
type ValidationError struct {
	Field   string
	Err     error
	Details string
}

// Invalid returns a ValidationError for field with the given details.
func Invalid(field, details string) *ValidationError {
	return &ValidationError{Field: field, Err: ErrValidation, Details: details}
}

func (e *ValidationError) Error() string {
	cause := ErrValidation
	if e.Err != nil {
		cause = e.Err
	}
	msg := cause.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap makes a ValidationError match both its cause and ErrValidation.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil || e.Err == ErrValidation {
		return []error{ErrValidation}
	}
	return []error{e.Err, ErrValidation}
}
