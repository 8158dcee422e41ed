// Package errors provides the unified error type and factory functions for
// the ip-assist-lite service. Every layer (domain, application,
// infrastructure, interfaces) uses AppError as the single carrier for
// structured error information, enabling consistent HTTP responses,
// logging, and propagation policy: component-level failures are
// caught at the orchestrator boundary and converted to structured warnings
// rather than bubbling up as hard failures.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames
// above the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// AppError is the single structured error type used throughout the service.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so errors.Is / errors.As / errors.Unwrap work across layers.
//
//	return errors.New(errors.ErrCodeCodingLowConfidence, "no pattern matched")
//	return errors.Wrap(err, errors.ErrCodeDenseStoreError, "milvus search failed")
type AppError struct {
	Code ErrorCode

	// Message is the primary human-readable description, suitable for
	// direct inclusion in an API response.
	Message string

	// Detail carries supplementary context (query, chunk_id, request_id)
	// that aids debugging without leaking internals to end users.
	Detail string

	// Cause is the underlying error, enabling errors.Is / errors.As to
	// traverse the full chain.
	Cause error

	// Stack is the formatted call stack captured at construction time. It
	// is deliberately excluded from Error so API responses stay clean;
	// a logging middleware can read the field directly.
	Stack string
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// WithInternalMessage is an alias for WithDetail.
func (e *AppError) WithInternalMessage(detail string) *AppError {
	return e.WithDetail(detail)
}

// WithDetails appends a key/value pair to the receiver's Detail field,
// allowing multiple pairs to be chained.
func (e *AppError) WithDetails(key, value string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	pair := fmt.Sprintf("%s=%s", key, value)
	if clone.Detail == "" {
		clone.Detail = pair
	} else {
		clone.Detail = clone.Detail + ", " + pair
	}
	return &clone
}

// New constructs a fresh AppError with the given code and message and
// captures a call-stack snapshot.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code: code,
		Message: message,
		Stack: captureStack(1),
	}
}

// Wrap constructs an AppError wrapping an existing error. Returns nil if err
// is nil so it can be used inline. When code is empty and err already
// carries an AppError, the original code is preserved; an empty code with
// no AppError in the chain becomes ErrCodeInternal.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == "" {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		} else {
			code = ErrCodeInternal
		}
	}
	return &AppError{
		Code: code,
		Message: message,
		Cause: err,
		Stack: captureStack(1),
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether any error in err's chain carries a not-found
// class code.
func IsNotFound(err error) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			switch ae.Code {
			case ErrCodeNotFound, ErrCodeKBProcedureNotFound, ErrCodeCitationNotFound:
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsDegraded reports whether err represents a degraded-but-answerable
// condition: an AppError whose code is not retrieval_unavailable and maps
// to an HTTP status below 500. Errors that carry no AppError are not
// degraded.
func IsDegraded(err error) bool {
	var ae *AppError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code != ErrCodeRetrievalUnavailable && HTTPStatusForCode(ae.Code) < 500
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain. If
// none is present, returns CodeOK for nil and CodeInternal otherwise — this
// is the single code metrics/logging middleware should emit as a label.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// NotFound constructs a generic ErrCodeNotFound AppError.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// InvalidParam constructs an ErrCodeBadRequest AppError.
func InvalidParam(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// Unauthorized constructs an ErrCodeUnauthorized AppError.
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

// ErrUnauthorized is an alias for Unauthorized, kept for call sites that use
// the Err-prefixed factory name.
func ErrUnauthorized(message string) *AppError {
	return Unauthorized(message)
}

// Forbidden constructs an ErrCodeForbidden AppError.
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

// ErrForbidden is an alias for Forbidden, kept for call sites that use the
// Err-prefixed factory name.
func ErrForbidden(message string) *AppError {
	return Forbidden(message)
}

// Internal constructs an ErrCodeInternal AppError. Always log the
// underlying cause before or after calling Internal.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Conflict constructs an ErrCodeConflict AppError.
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// Unavailable constructs an ErrCodeServiceUnavailable AppError.
func Unavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message)
}
