package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the application returns wraps one of these so
// adapters can classify it with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// kinds is the classification order used by KindOf.
var kinds = []error{ErrValidation, ErrNotFound, ErrConflict, ErrForbidden, ErrUnavailable}

// KindOf returns the error kind err wraps, or nil when it wraps none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// ValidationError rejects an input before it reaches the directory.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError reports that field breaks a rule.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue is NewValidationError recording the offending value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError means a dependency could not be reached or refused to
// serve, e.g. an open circuit or an exhausted retry budget.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return e.Service + " is unavailable"
	}

	return fmt.Sprintf("%s is unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError reports that service cannot be used right now.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// RemoteError is a failure reported by an upstream system of record, carried
// with the diagnostic fields that system supplied. Kind is one of the error
// kinds and drives classification; Cause is the adapter's original error.
type RemoteError struct {
	Kind     error
	Service  string
	Status   int
	Type     string
	Title    string
	Detail   string
	Instance string
	Fields   map[string]string
	Cause    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Cause != nil:
		return e.Cause.Error()
	case e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Service, e.Title, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Service, e.Title)
	}
}

// Unwrap exposes both the kind and the original cause.
func (e *RemoteError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Kind, e.Cause} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// AsRemoteError extracts a *RemoteError from the chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	ok := errors.As(err, &remote)

	return remote, ok
}
