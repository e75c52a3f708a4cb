package store

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

const (
	notifierKey = "notifier"
	prefPrefix  = "pref."
)

// Notifier returns the stored notifier step, or nil when none was set.
func (s *Store) Notifier(ctx context.Context) (*timer.Step, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", notifierKey).Scan(&data)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query notifier", "settings", err)
	}
	step, err := timer.UnmarshalStep([]byte(data))
	if err != nil {
		return nil, storeErr("decode notifier", "settings", err)
	}
	return step, nil
}

// SetNotifier stores the notifier step; nil clears it.
func (s *Store) SetNotifier(ctx context.Context, step *timer.Step) error {
	return setNotifier(ctx, s.db, step)
}

func setNotifier(ctx context.Context, q queryer, step *timer.Step) error {
	if step == nil {
		if _, err := q.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", notifierKey); err != nil {
			return storeErr("clear notifier", "settings", err)
		}
		return nil
	}
	data, err := timer.MarshalStep(step)
	if err != nil {
		return storeErr("encode notifier", "settings", err)
	}
	return upsertSetting(ctx, q, notifierKey, string(data))
}

// Prefs returns every stored preference.
func (s *Store) Prefs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings WHERE key LIKE ?", prefPrefix+"%")
	if err != nil {
		return nil, storeErr("query prefs", "settings", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storeErr("scan pref", "settings", err)
		}
		prefs[strings.TrimPrefix(key, prefPrefix)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate prefs", "settings", err)
	}
	return prefs, nil
}

// SetPref stores one preference.
func (s *Store) SetPref(ctx context.Context, key, value string) error {
	return upsertSetting(ctx, s.db, prefPrefix+key, value)
}

func upsertSetting(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return storeErr("write setting", "settings", err)
	}
	return nil
}
