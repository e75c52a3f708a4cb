// Package backup exports and imports everything the store holds as one JSON document.
package backup

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/renameio/v2"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/store"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// FormatVersion is written into every export. Imports reject newer versions.
const FormatVersion = 1

// Document is the on-disk form of a backup.
type Document struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Folders    []timer.Folder    `json:"folders"`
	Timers     []timer.Doc       `json:"timers"`
	Notifier   *timer.ElementDoc `json:"notifier,omitempty"`
	Stamps     []timer.Stamp     `json:"stamps"`
	Schedulers []timer.Scheduler `json:"schedulers"`
	Prefs      map[string]string `json:"prefs,omitempty"`
}

// Source provides the data to export.
type Source interface {
	Snapshot(ctx context.Context) (*timer.AppData, error)
}

// Sink receives imported data.
type Sink interface {
	Restore(ctx context.Context, data *timer.AppData, wipe bool) (store.RestoreResult, error)
}

// Encode converts data to its document form.
func Encode(data *timer.AppData, exportedAt time.Time) Document {
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: exportedAt.UTC(),
		Folders:    data.Folders,
		Timers:     make([]timer.Doc, 0, len(data.Timers)),
		Stamps:     data.Stamps,
		Schedulers: data.Schedulers,
		Prefs:      data.Prefs,
	}
	for _, t := range data.Timers {
		doc.Timers = append(doc.Timers, timer.Encode(t))
	}
	if data.Notifier != nil {
		n := timer.EncodeStep(*data.Notifier)
		doc.Notifier = &n
	}
	return doc
}

// AppData decodes and validates the document.
func (d Document) AppData() (*timer.AppData, error) {
	if d.Version > FormatVersion {
		return nil, errors.ValidationError("backup was written by a newer version").
			WithContext("version", d.Version).Build()
	}
	data := &timer.AppData{
		Folders:    d.Folders,
		Stamps:     d.Stamps,
		Schedulers: d.Schedulers,
		Prefs:      d.Prefs,
	}
	for i, td := range d.Timers {
		t, err := td.Timer()
		if err != nil {
			return nil, errors.ValidationError("invalid timer in backup").
				WithCause(err).
				WithContext("position", i).
				WithContext("name", td.Name).
				Build()
		}
		data.Timers = append(data.Timers, t)
	}
	if d.Notifier != nil {
		s, err := d.Notifier.Step()
		if err != nil {
			return nil, errors.ValidationError("invalid notifier in backup").WithCause(err).Build()
		}
		s.Type = timer.StepNotifier
		data.Notifier = &s
	}
	return data, nil
}

// Write encodes a snapshot of src to w.
func Write(ctx context.Context, src Source, w io.Writer, now time.Time) error {
	data, err := src.Snapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Encode(data, now)); err != nil {
		return errors.FileSystemError("failed to write backup").WithCause(err).Build()
	}
	return nil
}

// Export writes a snapshot of src to path. The file is replaced atomically, so a failed
// export never leaves a truncated backup behind.
func Export(ctx context.Context, src Source, path string, now time.Time) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return errors.FileSystemError("failed to create backup file").
			WithCause(err).WithContext("path", path).Build()
	}
	defer func() { _ = pending.Cleanup() }()

	if err := Write(ctx, src, pending, now); err != nil {
		return err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return errors.FileSystemError("failed to replace backup file").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Read decodes a backup from r and restores it into dst.
func Read(ctx context.Context, dst Sink, r io.Reader, wipe bool) (store.RestoreResult, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return store.RestoreResult{}, errors.ValidationError("malformed backup").WithCause(err).Build()
	}
	data, err := doc.AppData()
	if err != nil {
		return store.RestoreResult{}, err
	}
	return dst.Restore(ctx, data, wipe)
}

// Import restores the backup at path into dst. With wipe, dst is emptied first.
func Import(ctx context.Context, dst Sink, path string, wipe bool) (store.RestoreResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.RestoreResult{}, errors.NotFoundError("backup file not found").
				WithCause(err).WithContext("path", path).Build()
		}
		return store.RestoreResult{}, errors.FileSystemError("failed to open backup").
			WithCause(err).WithContext("path", path).Build()
	}
	defer f.Close()
	return Read(ctx, dst, f, wipe)
}
