package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Snapshot reads everything a backup carries.
func (s *Store) Snapshot(ctx context.Context) (*timer.AppData, error) {
	data := &timer.AppData{}
	var err error
	if data.Folders, err = s.Folders(ctx); err != nil {
		return nil, err
	}
	if data.Timers, err = s.Timers(ctx); err != nil {
		return nil, err
	}
	if data.Notifier, err = s.Notifier(ctx); err != nil {
		return nil, err
	}
	if data.Stamps, err = s.Stamps(ctx, timer.NullID, time.Time{}); err != nil {
		return nil, err
	}
	if data.Schedulers, err = s.Schedulers(ctx, false); err != nil {
		return nil, err
	}
	if data.Prefs, err = s.Prefs(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

// RestoreResult counts what a restore wrote.
type RestoreResult struct {
	Folders    int `json:"folders"`
	Timers     int `json:"timers"`
	Schedulers int `json:"schedulers"`
	Stamps     int `json:"stamps"`
}

// Restore writes data in one transaction. With wipe, existing timers, folders, schedulers,
// stamps and settings are removed first; otherwise data is added next to them.
//
// Stored ids are never reused: folders, timers and the records pointing at them get new
// ids, and trigger and scheduler references follow. References to timers missing from data
// are dropped.
func (s *Store) Restore(ctx context.Context, data *timer.AppData, wipe bool) (RestoreResult, error) {
	var result RestoreResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if wipe {
			if err := wipeAll(ctx, tx); err != nil {
				return err
			}
		}

		folders := map[int64]int64{
			timer.DefaultFolderID: timer.DefaultFolderID,
			timer.TrashFolderID:   timer.TrashFolderID,
		}
		for _, f := range data.Folders {
			if f.IsDefault() || f.IsTrash() {
				continue
			}
			res, err := tx.ExecContext(ctx, "INSERT INTO folders (name) VALUES (?)", f.Name)
			if err != nil {
				return storeErr("insert folder", "folders", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return storeErr("read folder id", "folders", err)
			}
			folders[f.ID] = id
			result.Folders++
		}

		timers := make(map[int64]int64, len(data.Timers))
		for _, t := range data.Timers {
			c := t.Clone()
			folder, ok := folders[c.FolderID]
			if !ok {
				folder = timer.DefaultFolderID
			}
			c.FolderID = folder
			c.More.TriggerTimerID = timer.NullID
			id, err := addTimer(ctx, tx, c)
			if err != nil {
				return err
			}
			timers[t.ID] = id
			result.Timers++
		}
		for _, t := range data.Timers {
			if t.More.TriggerTimerID == timer.NullID {
				continue
			}
			more := t.More
			more.TriggerTimerID = timers[t.More.TriggerTimerID]
			encoded, err := json.Marshal(timer.EncodeMore(more))
			if err != nil {
				return storeErr("encode timer", "timers", err)
			}
			if _, err := tx.ExecContext(ctx, "UPDATE timers SET more = ? WHERE id = ?", encoded, timers[t.ID]); err != nil {
				return storeErr("update timer", "timers", err)
			}
		}

		for _, sc := range data.Schedulers {
			id, ok := timers[sc.TimerID]
			if !ok {
				continue
			}
			sc.TimerID = id
			if _, err := addScheduler(ctx, tx, sc); err != nil {
				return err
			}
			result.Schedulers++
		}
		for _, st := range data.Stamps {
			id, ok := timers[st.TimerID]
			if !ok {
				continue
			}
			st.TimerID = id
			if _, err := addStamp(ctx, tx, st); err != nil {
				return err
			}
			result.Stamps++
		}

		if data.Notifier != nil || wipe {
			if err := setNotifier(ctx, tx, data.Notifier); err != nil {
				return err
			}
		}
		for key, value := range data.Prefs {
			if err := upsertSetting(ctx, tx, prefPrefix+key, value); err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

func wipeAll(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []struct{ table, query string }{
		{"timers", "DELETE FROM timers"},
		{"schedulers", "DELETE FROM schedulers"},
		{"stamps", "DELETE FROM stamps"},
		{"settings", "DELETE FROM settings"},
		{"folders", "DELETE FROM folders WHERE id NOT IN (1, 2)"},
	} {
		if _, err := tx.ExecContext(ctx, stmt.query); err != nil {
			return storeErr("wipe "+stmt.table, stmt.table, err)
		}
	}
	return nil
}
