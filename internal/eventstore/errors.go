package eventstore

import (
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

// Sentinel errors classify journal failures. Operations wrap them with a cause and context.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize journal schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.EventStoreError("failed to append event to journal").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.EventStoreError("failed to query events from journal").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of an event payload failed.
	ErrMarshalPayloadFailed = errors.EventStoreError("failed to marshal event payload").Build()
)

// wrap builds an error that matches sentinel under errors.Is and carries cause.
func wrap(sentinel *errors.ClassifiedError, cause error) *errors.ErrorBuilder {
	return errors.WrapError(cause, errors.CategoryEventStore, sentinel.Message())
}
