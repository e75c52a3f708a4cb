package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

const timerColumns = "id, name, loop, steps, start_step, end_step, more, folder_id"

type timerRow struct {
	steps, start, end, more []byte
}

func encodeTimer(t *timer.Timer) (timerRow, error) {
	var (
		row timerRow
		err error
	)
	if row.steps, err = timer.MarshalSteps(t.Steps); err != nil {
		return row, err
	}
	if row.start, err = timer.MarshalStep(t.StartStep); err != nil {
		return row, err
	}
	if row.end, err = timer.MarshalStep(t.EndStep); err != nil {
		return row, err
	}
	row.more, err = json.Marshal(timer.EncodeMore(t.More))
	return row, err
}

func scanTimer(scan func(dest ...any) error) (*timer.Timer, error) {
	var (
		t   timer.Timer
		row timerRow
	)
	if err := scan(&t.ID, &t.Name, &t.Loop, &row.steps, &row.start, &row.end, &row.more, &t.FolderID); err != nil {
		return nil, err
	}
	var err error
	if t.Steps, err = timer.UnmarshalSteps(row.steps); err != nil {
		return nil, malformed(t.ID, "steps", err)
	}
	if t.StartStep, err = timer.UnmarshalStep(row.start); err != nil {
		return nil, malformed(t.ID, "start_step", err)
	}
	if t.EndStep, err = timer.UnmarshalStep(row.end); err != nil {
		return nil, malformed(t.ID, "end_step", err)
	}
	var more *timer.MoreDoc
	if len(row.more) > 0 {
		if err := json.Unmarshal(row.more, &more); err != nil {
			return nil, malformed(t.ID, "more", err)
		}
	}
	t.More = more.More()
	return &t, nil
}

func malformed(id int64, column string, err error) error {
	return errors.StoreError("malformed timer row").
		WithCause(err).
		WithContext("table", "timers").
		WithContext("id", id).
		WithContext("column", column).
		Build()
}

// AddTimer validates and inserts t and returns its new id. t.ID is ignored.
func (s *Store) AddTimer(ctx context.Context, t *timer.Timer) (int64, error) {
	return addTimer(ctx, s.db, t)
}

func addTimer(ctx context.Context, q queryer, t *timer.Timer) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	row, err := encodeTimer(t)
	if err != nil {
		return 0, storeErr("encode timer", "timers", err)
	}
	folder := t.FolderID
	if folder == timer.NullID {
		folder = timer.DefaultFolderID
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO timers (name, loop, steps, start_step, end_step, more, folder_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.Name, t.Loop, row.steps, row.start, row.end, row.more, folder,
	)
	if err != nil {
		return 0, storeErr("insert timer", "timers", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("read timer id", "timers", err)
	}
	return id, nil
}

// SaveTimer validates t and overwrites the stored timer with the same id.
func (s *Store) SaveTimer(ctx context.Context, t *timer.Timer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	row, err := encodeTimer(t)
	if err != nil {
		return storeErr("encode timer", "timers", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE timers SET name = ?, loop = ?, steps = ?, start_step = ?, end_step = ?, more = ?, folder_id = ? WHERE id = ?",
		t.Name, t.Loop, row.steps, row.start, row.end, row.more, t.FolderID, t.ID,
	)
	if err != nil {
		return storeErr("update timer", "timers", err)
	}
	return checkAffected(res, "timers", t.ID)
}

// GetTimer loads timer id.
func (s *Store) GetTimer(ctx context.Context, id int64) (*timer.Timer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+timerColumns+" FROM timers WHERE id = ?", id)
	t, err := scanTimer(row.Scan)
	if isNoRows(err) {
		return nil, notFound("timers", id)
	}
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, storeErr("query timer", "timers", err)
	}
	return t, nil
}

// Timers loads every timer, ordered by id.
func (s *Store) Timers(ctx context.Context) ([]*timer.Timer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+timerColumns+" FROM timers ORDER BY id")
	if err != nil {
		return nil, storeErr("query timers", "timers", err)
	}
	defer rows.Close()

	var timers []*timer.Timer
	for rows.Next() {
		t, err := scanTimer(rows.Scan)
		if err != nil {
			if errors.IsClassified(err) {
				return nil, err
			}
			return nil, storeErr("scan timer", "timers", err)
		}
		timers = append(timers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate timers", "timers", err)
	}
	return timers, nil
}

// ListTimers lists the timers of folderID, or of every folder but the trash when folderID
// is timer.NullID.
func (s *Store) ListTimers(ctx context.Context, folderID int64) ([]timer.Info, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if folderID == timer.NullID {
		rows, err = s.db.QueryContext(ctx,
			"SELECT id, name, folder_id FROM timers WHERE folder_id != ? ORDER BY id", timer.TrashFolderID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			"SELECT id, name, folder_id FROM timers WHERE folder_id = ? ORDER BY id", folderID)
	}
	if err != nil {
		return nil, storeErr("query timers", "timers", err)
	}
	defer rows.Close()

	infos := []timer.Info{}
	for rows.Next() {
		var info timer.Info
		if err := rows.Scan(&info.ID, &info.Name, &info.FolderID); err != nil {
			return nil, storeErr("scan timer", "timers", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate timers", "timers", err)
	}
	return infos, nil
}

// ChangeFolder moves timer id into folderID.
func (s *Store) ChangeFolder(ctx context.Context, id, folderID int64) error {
	if _, err := s.GetFolder(ctx, folderID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE timers SET folder_id = ? WHERE id = ?", folderID, id)
	if err != nil {
		return storeErr("move timer", "timers", err)
	}
	return checkAffected(res, "timers", id)
}

// DeleteTimer removes timer id together with its schedulers and stamps.
func (s *Store) DeleteTimer(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM timers WHERE id = ?", id)
		if err != nil {
			return storeErr("delete timer", "timers", err)
		}
		if err := checkAffected(res, "timers", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schedulers WHERE timer_id = ?", id); err != nil {
			return storeErr("delete schedulers", "schedulers", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM stamps WHERE timer_id = ?", id); err != nil {
			return storeErr("delete stamps", "stamps", err)
		}
		return nil
	})
}
