// Package store persists timers and the records around them in SQLite.
//
// One Store owns one database file. Timers are kept as rows whose step tree, start/end
// steps and options are JSON documents in the same format backups and the API use.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Folder names seeded into a new database.
const (
	DefaultFolderName = "Default"
	TrashFolderName   = "Trash"
)

const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS timers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	loop INTEGER NOT NULL,
	steps TEXT NOT NULL,
	start_step TEXT,
	end_step TEXT,
	more TEXT,
	folder_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timers_folder ON timers(folder_id);
CREATE TABLE IF NOT EXISTS schedulers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timer_id INTEGER NOT NULL,
	label TEXT NOT NULL,
	action INTEGER NOT NULL,
	hour INTEGER NOT NULL,
	minute INTEGER NOT NULL,
	repeat_mode TEXT NOT NULL,
	days INTEGER NOT NULL,
	enable INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedulers_timer ON schedulers(timer_id);
CREATE TABLE IF NOT EXISTS stamps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timer_id INTEGER NOT NULL,
	start_ms INTEGER NOT NULL,
	end_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stamps_timer ON stamps(timer_id);
CREATE INDEX IF NOT EXISTS idx_stamps_end ON stamps(end_ms);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the SQLite backed repository of timers, folders, schedulers, stamps and
// settings. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StoreError("could not open database").
			WithCause(err).WithContext("path", path).Build()
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" databases whole.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.StoreError("failed to initialize schema").
			WithCause(err).WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO folders (id, name) VALUES (?, ?), (?, ?)",
		timer.DefaultFolderID, DefaultFolderName, timer.TrashFolderID, TrashFolderName,
	)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", "", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() // Best effort; the original error matters more
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", "", err)
	}
	return nil
}

func storeErr(op, table string, err error) error {
	b := errors.StoreError(fmt.Sprintf("failed to %s", op)).WithCause(err)
	if table != "" {
		b = b.WithContext("table", table)
	}
	return b.Build()
}

func notFound(table string, id int64) error {
	return errors.NotFoundError(fmt.Sprintf("%s row not found", table)).
		WithContext("table", table).WithContext("id", id).Build()
}

// checkAffected turns "no row changed" into a not found error.
func checkAffected(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("read affected rows", table, err)
	}
	if n == 0 {
		return notFound(table, id)
	}
	return nil
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
