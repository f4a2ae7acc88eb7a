package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable reason code a rejection carries across the boundary.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "not_found"
	CodeConflict     ErrorCode = "conflict"
	CodeInvalidState ErrorCode = "invalid_state"
	CodeValidation   ErrorCode = "validation_error"
	CodeDependency   ErrorCode = "dependency_failure"
)

// DomainError is a rejected operation with a stable code and a message safe
// to show to callers. Internal detail stays in the wrapped error.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func NewNotFound(format string, args ...any) error {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...any) error {
	return &DomainError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(format string, args ...any) error {
	return &DomainError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewValidation(format string, args ...any) error {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewDependency(err error, format string, args ...any) error {
	return &DomainError{Code: CodeDependency, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the reason code, or empty when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
