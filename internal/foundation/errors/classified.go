package errors

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorCategory routes an error to an exit code or an HTTP status.
type ErrorCategory string

const (
	// Caller mistakes: bad config, bad input, unknown or duplicate ids.
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// CategoryNetwork covers the broker and other remote systems.
	CategoryNetwork ErrorCategory = "network"

	// Persistence: the timer database, the run journal and plain files.
	CategoryStore      ErrorCategory = "store"
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryScheduler ErrorCategory = "scheduler"
	CategoryRuntime   ErrorCategory = "runtime"
	CategoryDaemon    ErrorCategory = "daemon"
	CategoryInternal  ErrorCategory = "internal"
)

// ErrorSeverity is how far an error reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // the process cannot continue
	SeverityError   ErrorSeverity = "error"   // the operation failed
	SeverityWarning ErrorSeverity = "warning" // degraded, carrying on
)

// RetryStrategy tells callers whether trying again can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // fix the input first
)

// ErrorContext is structured detail attached to an error.
type ErrorContext map[string]any

func (c ErrorContext) with(key string, value any) ErrorContext {
	next := make(ErrorContext, len(c)+1)
	maps.Copy(next, c)
	next[key] = value
	return next
}

// ClassifiedError is the error type every steptimer package reports failures with.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }

// Context returns the attached detail. Callers must not modify it.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := *e
	c.context = e.context.with(key, value)
	return &c
}

// Is matches another ClassifiedError with the same category and message, so package level
// sentinels match the wrapped errors built from them.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// CanRetry reports whether retrying without a change might succeed.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry == RetryBackoff
}

// IsFatal reports whether the process should stop.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// IsClassified reports whether err's chain holds a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory reports whether err's first ClassifiedError has category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.category == category
}

// GetCategory returns err's category, or CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.category
	}
	return CategoryInternal
}
