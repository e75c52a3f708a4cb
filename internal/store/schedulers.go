package store

import (
	"context"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

const schedulerColumns = "id, timer_id, label, action, hour, minute, repeat_mode, days, enable"

func validateScheduler(sc timer.Scheduler) error {
	switch {
	case sc.Hour < 0 || sc.Hour > 23:
		return errors.ValidationError("scheduler hour must be between 0 and 23").WithContext("hour", sc.Hour).Build()
	case sc.Minute < 0 || sc.Minute > 59:
		return errors.ValidationError("scheduler minute must be between 0 and 59").WithContext("minute", sc.Minute).Build()
	case sc.Action != timer.SchedulerStart && sc.Action != timer.SchedulerEnd:
		return errors.ValidationError("unknown scheduler action").WithContext("action", int(sc.Action)).Build()
	}
	switch sc.RepeatMode {
	case timer.RepeatOnce, timer.RepeatEveryWeek, timer.RepeatEveryDays:
		return nil
	default:
		return errors.ValidationError("unknown repeat mode").WithContext("repeat_mode", string(sc.RepeatMode)).Build()
	}
}

func scanScheduler(scan func(dest ...any) error) (timer.Scheduler, error) {
	var (
		sc   timer.Scheduler
		mode string
		days int
	)
	if err := scan(&sc.ID, &sc.TimerID, &sc.Label, &sc.Action, &sc.Hour, &sc.Minute, &mode, &days, &sc.Enable); err != nil {
		return sc, err
	}
	sc.RepeatMode = timer.RepeatMode(mode)
	var err error
	if sc.Days, err = timer.EveryDayToDays(days); err != nil {
		return sc, errors.StoreError("malformed scheduler row").WithCause(err).WithContext("id", sc.ID).Build()
	}
	return sc, nil
}

// AddScheduler validates and inserts sc and returns its new id.
func (s *Store) AddScheduler(ctx context.Context, sc timer.Scheduler) (int64, error) {
	return addScheduler(ctx, s.db, sc)
}

func addScheduler(ctx context.Context, q queryer, sc timer.Scheduler) (int64, error) {
	if err := validateScheduler(sc); err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO schedulers (timer_id, label, action, hour, minute, repeat_mode, days, enable) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sc.TimerID, sc.Label, int(sc.Action), sc.Hour, sc.Minute, string(sc.RepeatMode), timer.DaysToEveryDay(sc.Days), sc.Enable,
	)
	if err != nil {
		return 0, storeErr("insert scheduler", "schedulers", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("read scheduler id", "schedulers", err)
	}
	return id, nil
}

// SaveScheduler overwrites the stored scheduler with the same id.
func (s *Store) SaveScheduler(ctx context.Context, sc timer.Scheduler) error {
	if err := validateScheduler(sc); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE schedulers SET timer_id = ?, label = ?, action = ?, hour = ?, minute = ?, repeat_mode = ?, days = ?, enable = ? WHERE id = ?",
		sc.TimerID, sc.Label, int(sc.Action), sc.Hour, sc.Minute, string(sc.RepeatMode), timer.DaysToEveryDay(sc.Days), sc.Enable, sc.ID,
	)
	if err != nil {
		return storeErr("update scheduler", "schedulers", err)
	}
	return checkAffected(res, "schedulers", sc.ID)
}

// GetScheduler loads scheduler id.
func (s *Store) GetScheduler(ctx context.Context, id int64) (timer.Scheduler, error) {
	sc, err := scanScheduler(s.db.QueryRowContext(ctx, "SELECT "+schedulerColumns+" FROM schedulers WHERE id = ?", id).Scan)
	if isNoRows(err) {
		return sc, notFound("schedulers", id)
	}
	if err != nil && !errors.IsClassified(err) {
		return sc, storeErr("query scheduler", "schedulers", err)
	}
	return sc, err
}

// Schedulers lists every scheduler, ordered by id. With enabledOnly, disabled ones are
// left out.
func (s *Store) Schedulers(ctx context.Context, enabledOnly bool) ([]timer.Scheduler, error) {
	query := "SELECT " + schedulerColumns + " FROM schedulers"
	if enabledOnly {
		query += " WHERE enable = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id")
	if err != nil {
		return nil, storeErr("query schedulers", "schedulers", err)
	}
	defer rows.Close()

	var list []timer.Scheduler
	for rows.Next() {
		sc, err := scanScheduler(rows.Scan)
		if err != nil {
			if errors.IsClassified(err) {
				return nil, err
			}
			return nil, storeErr("scan scheduler", "schedulers", err)
		}
		list = append(list, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate schedulers", "schedulers", err)
	}
	return list, nil
}

// SetSchedulerEnable turns scheduler id on or off.
func (s *Store) SetSchedulerEnable(ctx context.Context, id int64, enable bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE schedulers SET enable = ? WHERE id = ?", enable, id)
	if err != nil {
		return storeErr("update scheduler", "schedulers", err)
	}
	return checkAffected(res, "schedulers", id)
}

// DeleteScheduler removes scheduler id.
func (s *Store) DeleteScheduler(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM schedulers WHERE id = ?", id)
	if err != nil {
		return storeErr("delete scheduler", "schedulers", err)
	}
	return checkAffected(res, "schedulers", id)
}
