package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client error detected before any storage access.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// ConflictError reports a uniqueness or state-machine conflict.
// Field is optional and names the request field the conflict relates to.
type ConflictError struct {
	Err   error
	Field string
}

func NewConflictError(err error, field ...string) error {
	ce := &ConflictError{Err: err}
	if len(field) > 0 {
		ce.Field = field[0]
	}
	return ce
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

func (err ConflictError) Unwrap() error { return err.Err }

// ForbiddenError reports a caller whose role does not allow the operation.
type ForbiddenError struct {
	Err error
}

func NewForbiddenError(err error) error {
	return &ForbiddenError{err}
}

func (err ForbiddenError) Error() string {
	if err.Err == nil {
		return "permission denied"
	}
	return err.Err.Error()
}

func (err ForbiddenError) Unwrap() error { return err.Err }

// NotFoundError reports a reference that does not resolve.
type NotFoundError struct {
	Err error
}

func NewNotFoundError(err error) error {
	return &NotFoundError{err}
}

func (err NotFoundError) Error() string {
	if err.Err == nil {
		return "not found"
	}
	return err.Err.Error()
}

func (err NotFoundError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
