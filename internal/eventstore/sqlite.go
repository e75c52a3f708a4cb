package eventstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based journal.
// Use ":memory:" for in-memory database, or a file path for persistent storage. The journal
// may share a database file with the timer store; it only touches the events table.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err).WithContext("path", dbPath).Build()
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(ctx); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, wrap(ErrInitializeSchemaFailed, err).WithContext("path", dbPath).Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		run_id TEXT NOT NULL,
		timer_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append adds a new event to the store. Timestamps are kept with millisecond precision.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := e.Payload()
	if payload == nil {
		payload = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, run_id, timer_id, event_type, timestamp, payload) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID(), e.RunID(), e.TimerID(), e.Type(), e.Timestamp().UnixMilli(), payload,
	)
	if err != nil {
		return wrap(ErrEventAppendFailed, err).
			WithContext("event_id", e.ID()).
			WithContext("event_type", e.Type()).
			Build()
	}

	return nil
}

// GetByRunID retrieves all events for a specific run.
func (s *SQLiteStore) GetByRunID(ctx context.Context, runID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, timer_id, event_type, timestamp, payload FROM events WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err).WithContext("run_id", runID).Build()
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, timer_id, event_type, timestamp, payload FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY seq",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err).Build()
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *SQLiteStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var timestampMS int64

		err := rows.Scan(&e.EventID, &e.EventRunID, &e.EventTimerID, &e.EventType, &timestampMS, &e.EventPayload)
		if err != nil {
			return nil, wrap(ErrEventQueryFailed, err).Build()
		}

		e.EventTimestamp = time.UnixMilli(timestampMS).UTC()
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventQueryFailed, err).Build()
	}

	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
