package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
)

// PlatformError is an error carrying an ErrorCode, a message, an optional cause
// and structured context that is emitted alongside the error in logs.
type PlatformError struct {
	code    ErrorCode
	message string
	cause   error
	context map[string]any
}

// New creates a PlatformError with the given code and message.
func New(code ErrorCode, message string) *PlatformError {
	return &PlatformError{code: code, message: message}
}

// Newf creates a PlatformError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. It returns nil when err is nil.
// A context cancellation anywhere in the chain takes precedence over code.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) {
		code = CodeCanceled
	} else if stderrors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
	}
	return &PlatformError{code: code, message: message, cause: err}
}

// WrapWithContext wraps err like Wrap and attaches the given context.
func WrapWithContext(err error, code ErrorCode, message string, fields map[string]any) error {
	wrapped := Wrap(err, code, message)
	if wrapped == nil {
		return nil
	}
	pe := wrapped.(*PlatformError) //nolint:errcheck,forcetypeassert // Wrap always returns *PlatformError
	pe.context = maps.Clone(fields)
	return pe
}

// Wrapf wraps err with a code and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

// Unwrap returns the wrapped cause.
func (e *PlatformError) Unwrap() error {
	return e.cause
}

// Code returns the error code.
func (e *PlatformError) Code() ErrorCode {
	return e.code
}

// Message returns the message without the cause.
func (e *PlatformError) Message() string {
	return e.message
}

// Context returns a copy of the structured context.
func (e *PlatformError) Context() map[string]any {
	return maps.Clone(e.context)
}

// WithContext attaches a key/value pair and returns the same error for chaining.
func (e *PlatformError) WithContext(key string, value any) *PlatformError {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// Retryable reports whether a later attempt may succeed.
func (e *PlatformError) Retryable() bool {
	return retryableCodes[e.code]
}

// GetCode returns the code of the outermost PlatformError in the chain,
// or CodeUnknown when there is none.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe *PlatformError
	if stderrors.As(err, &pe) {
		return pe.code
	}
	if stderrors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeUnknown
}

// HasCode reports whether any PlatformError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var pe *PlatformError
		if !stderrors.As(err, &pe) {
			return false
		}
		if pe.code == code {
			return true
		}
		err = pe.cause
	}
	return false
}

// IsRetryable reports whether err is classified as retryable.
func IsRetryable(err error) bool {
	var pe *PlatformError
	if stderrors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// ContextOf merges the structured context of every PlatformError in the chain.
// Inner values are overridden by outer ones.
func ContextOf(err error) map[string]any {
	out := make(map[string]any)
	var chain []*PlatformError
	for err != nil {
		var pe *PlatformError
		if !stderrors.As(err, &pe) {
			break
		}
		chain = append(chain, pe)
		err = pe.cause
	}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].context)
	}
	return out
}

// Is, As and Join re-export the standard library helpers so callers
// need a single errors import.
var (
	Is   = stderrors.Is
	As   = stderrors.As
	Join = stderrors.Join
)
