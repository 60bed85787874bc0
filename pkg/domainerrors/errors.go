package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can decide whether and how to report it
// without string-matching messages.
type Code string

const (
	CodeMalformedInput      Code = "malformed_input"
	CodeUntrustedSource     Code = "untrusted_source"
	CodeCrossTenant         Code = "cross_tenant_violation"
	CodeValidation          Code = "field_validation"
	CodeConflictingDispatch Code = "conflicting_dispatch"
	CodeNoEligibleWorker    Code = "no_eligible_worker"
	CodeUnsupportedPlatform Code = "unsupported_worker_platform"
	CodeInvalidWorkerTarget Code = "invalid_worker_target"
	CodeCallbackDelivery    Code = "callback_delivery_failure"
	CodeNotFound            Code = "not_found"
	CodeInternal            Code = "internal"
)

// Error carries a code alongside the message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context message to an underlying error.
func Wrap(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when
// the chain has none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
