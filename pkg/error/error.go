package error

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling
// strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid user input or
	// operations, e.g. a privilege violation. These are fixable by changing
	// the request.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents errors that may succeed on retry,
	// e.g. a cooperatively canceled query re-run with a fresh context.
	ErrCategoryTransient

	// ErrCategoryInternal represents violated programming invariants, e.g.
	// a filter joined to itself. These indicate a bug upstream and are not
	// recoverable.
	ErrCategoryInternal

	// ErrCategorySystem represents environmental failures surfaced by a
	// collaborator (storage, index) and propagated untouched.
	ErrCategorySystem
)

// Error codes used by the join executor.
const (
	// CodeSelfJoin: a filter's join or nestedJoin link points at itself.
	CodeSelfJoin = "SELF_JOIN"

	// CodeNestedJoinSet: a second nested join was attached to a filter that
	// already has one.
	CodeNestedJoinSet = "NESTED_JOIN_SET"

	// CodeAccessDenied: the session lacks the SELECT right on a table.
	CodeAccessDenied = "ACCESS_DENIED"

	// CodeQueryCanceled: cooperative cancellation was detected during the
	// scan loop.
	CodeQueryCanceled = "QUERY_CANCELED"
)

// DBError is a structured engine error with context about where and during
// which operation it occurred.
type DBError struct {
	// Code is a stable identifier for this error type, e.g. "SELF_JOIN".
	Code string

	// Category classifies the error for handling purposes.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail adds context about the specific instance, e.g. the alias of
	// the offending filter.
	Detail string

	// Operation identifies the operation in progress, e.g. "Prepare",
	// "Next", "AddJoin".
	Operation string

	// Component identifies where the error originated, e.g. "TableFilter".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is the call stack captured at creation time.
	Stack []uintptr
}

// New creates a DBError with the given code, category and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Internal creates a fatal invariant-violation error. These indicate a bug
// in join-tree assembly, never a recoverable condition.
func Internal(code, message string) *DBError {
	return New(ErrCategoryInternal, code, message)
}

// AccessDenied creates a privilege-violation error for the given table.
func AccessDenied(table string) *DBError {
	err := New(ErrCategoryUser, CodeAccessDenied, "access denied")
	err.Detail = fmt.Sprintf("SELECT right required on table %q", table)
	return err
}

// Canceled creates a query-cancellation error wrapping the context error.
func Canceled(cause error) *DBError {
	err := New(ErrCategoryTransient, CodeQueryCanceled, "query canceled")
	err.Cause = cause
	return err
}

// Wrap wraps an error with operation and component context. If the error is
// already a DBError the existing error is enriched instead (only fields not
// already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	if dbErr, ok := err.(*DBError); ok {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// HasCode reports whether err is a DBError carrying the given code.
func HasCode(err error, code string) bool {
	dbErr, ok := err.(*DBError)
	return ok && dbErr.Code == code
}

// captureStack captures the current call stack, skipping the frames of this
// package itself.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard error interface. The format is:
// [CODE] Message: Detail (operation: Op, component: Comp) caused by: cause
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is / errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
