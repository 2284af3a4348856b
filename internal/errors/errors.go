// Package errors provides error helpers shared across the orchestrator:
// panic recovery, error aggregation, and transient-failure classification.
package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError wraps a recovered panic so it can travel as a normal error.
type PanicError struct {
	Value      interface{} // The value passed to panic()
	StackTrace string      // Stack captured at recovery time
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts a panic into a *PanicError.
// Errors returned by fn pass through unchanged.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}

// MultiError collects errors from multi-step operations (shutdown paths,
// batched persistence) and reports them as one.
type MultiError struct {
	Errors []error
}

// Append adds an error to the collection. Nil errors are ignored.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	parts := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.Errors), strings.Join(parts, "; "))
}

// ErrorOrNil returns nil when no errors were collected, otherwise the
// MultiError itself (or the single error when only one was appended).
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is/As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// TransientError marks a failure that is retryable or safe to continue
// past (rate limits, timeouts, shutdown stragglers).
type TransientError struct {
	Op  string // The operation that failed
	Err error  // The underlying error
}

// NewTransientError wraps err as transient, tagged with the failing operation.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
