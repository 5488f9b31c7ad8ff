// Package errs provides coded domain errors. Services return these so callers
// and the transport layer can branch on the failure class without string
// matching. Precondition violations and invariant violations share the same
// shape; invariant codes mark checks that should be unreachable by
// construction.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	CodeInvalidInput        Code = "invalid_input"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeUnauthorized        Code = "unauthorized"
	CodeNotVerified         Code = "not_verified"
	CodePaused              Code = "paused"
	CodeFrozen              Code = "frozen"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeComplianceRejected  Code = "compliance_rejected"
	CodeInvalidState        Code = "invalid_state"
	CodeCapExceeded         Code = "cap_exceeded"
	CodeInvariant           Code = "invariant_violation"
	CodeInternal            Code = "internal"
)

// Error is a coded domain error. The zero value is not usable; construct via
// New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
