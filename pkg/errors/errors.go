// Package errors provides structured error values for spawnpool.
//
// Nothing in the pooling core is allowed to abort a simulation tick, so these
// errors rarely travel up a call stack. They are built at the point where a
// pool recovers from a fault (duplicate registration, exhaustion, an invalid
// handle, an unknown kind) and handed to the logger and the metrics layer,
// which use the ErrorType as a stable label.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents invalid or duplicate configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeExhausted represents an acquire against an empty free list
	ErrorTypeExhausted ErrorType = "exhausted"
	// ErrorTypeInvalidHandle represents an instance destroyed outside the pool
	ErrorTypeInvalidHandle ErrorType = "invalid_handle"
	// ErrorTypeUnknownKind represents a request for a kind that was never registered
	ErrorTypeUnknownKind ErrorType = "unknown_kind"
	// ErrorTypeDoubleRelease represents a release of a handle that is not active
	ErrorTypeDoubleRelease ErrorType = "double_release"
	// ErrorTypeTornDown represents use of a pool or registry after teardown
	ErrorTypeTornDown ErrorType = "torn_down"
	// ErrorTypeCancelled represents warm-up aborted by context or teardown
	ErrorTypeCancelled ErrorType = "cancelled"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. If the error is
// already a structured Error its stack is preserved. Returns nil for a nil error.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the ErrorType of err, or the empty type when err is not structured.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// IsRecoverable reports whether the pooling layer recovers from err locally.
// Everything except cancellation and file errors is absorbed by the pool
// that detected it.
func IsRecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeConfig, ErrorTypeExhausted, ErrorTypeInvalidHandle,
		ErrorTypeUnknownKind, ErrorTypeDoubleRelease, ErrorTypeTornDown:
		return true
	case ErrorTypeCancelled, ErrorTypeFile:
		return false
	default:
		return false
	}
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
