package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving journal events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, e Event) error

	// GetByRunID retrieves all events of one run, in append order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events that occurred within [start, end], in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
