// Package errz defines the structured runtime errors produced by the
// virtual machine. Every error carries a kind from a closed taxonomy, a
// source location resolved through the chunk's line table, and a snapshot
// of the call stack at the point of failure. All kinds are fatal to the
// run that raised them; the dispatch loop never retries or recovers
// internally.
package errz

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrorKind represents the category of a runtime error.
type ErrorKind int

const (
	// TypeMismatch indicates an operand variant that does not satisfy an
	// operator's required type.
	TypeMismatch ErrorKind = iota
	// UndefinedVariable indicates a global load or store on an unbound name.
	UndefinedVariable
	// NotCallable indicates a call on a value that is not a function.
	NotCallable
	// ArityMismatch indicates a call whose argument count does not equal the
	// callee's declared parameter count.
	ArityMismatch
	// StackOverflow indicates a call that would exceed the configured
	// maximum frame depth.
	StackOverflow
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case UndefinedVariable:
		return "undefined variable"
	case NotCallable:
		return "not callable"
	case ArityMismatch:
		return "arity mismatch"
	case StackOverflow:
		return "stack overflow"
	default:
		return "error"
	}
}

// RuntimeError is a rich error type with a kind, source location, and stack
// trace for actionable diagnostics.
type RuntimeError struct {
	Message  string
	Kind     ErrorKind
	Location SourceLocation
	Stack    []StackFrame
	Cause    error
}

// New creates a new RuntimeError with the given kind and message.
func New(kind ErrorKind, message string) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: message}
}

// Newf creates a new RuntimeError with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind.String(), e.Message, e.Location.String())
}

// Unwrap returns the underlying cause of the error.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// WithLocation sets the source location and returns the error.
func (e *RuntimeError) WithLocation(loc SourceLocation) *RuntimeError {
	e.Location = loc
	return e
}

// WithStack sets the captured call stack and returns the error.
func (e *RuntimeError) WithStack(stack []StackFrame) *RuntimeError {
	e.Stack = stack
	return e
}

// WithCause wraps the error with a cause.
func (e *RuntimeError) WithCause(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// FriendlyErrorMessage returns a human-friendly error message including the
// stack trace when one was captured.
func (e *RuntimeError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// AsRuntimeError returns the RuntimeError in err's chain, if any.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var e *RuntimeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the RuntimeError in err's chain. The second
// return value reports whether one was found.
func KindOf(err error) (ErrorKind, bool) {
	if e, ok := AsRuntimeError(err); ok {
		return e.Kind, true
	}
	return 0, false
}
