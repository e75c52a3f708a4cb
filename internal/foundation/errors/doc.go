// Package errors provides the classified error type used across steptimer.
//
// Errors carry a category (config, validation, not_found, store, scheduler, ...), a
// severity, and a retry strategy, plus structured context. The CLI and HTTP adapters turn
// a category into an exit code or a status code.
//
// Example usage:
//
//	err := errors.StoreError("load timer failed").
//		WithCause(sqlErr).
//		WithContext("timer_id", id).
//		Build()
package errors
