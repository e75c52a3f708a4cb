package store

import (
	"context"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// AddStamp records a run and returns its id.
func (s *Store) AddStamp(ctx context.Context, st timer.Stamp) (int64, error) {
	return addStamp(ctx, s.db, st)
}

func addStamp(ctx context.Context, q queryer, st timer.Stamp) (int64, error) {
	if st.End.Before(st.Start) {
		return 0, errors.ValidationError("stamp ends before it starts").
			WithContext("timer_id", st.TimerID).Build()
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO stamps (timer_id, start_ms, end_ms) VALUES (?, ?, ?)",
		st.TimerID, toMillis(st.Start), toMillis(st.End),
	)
	if err != nil {
		return 0, storeErr("insert stamp", "stamps", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("read stamp id", "stamps", err)
	}
	return id, nil
}

// Stamps lists the runs of timerID that ended at or after since, oldest first. A
// timer.NullID timerID lists the runs of every timer; a zero since lists all of them.
func (s *Store) Stamps(ctx context.Context, timerID int64, since time.Time) ([]timer.Stamp, error) {
	query := "SELECT id, timer_id, start_ms, end_ms FROM stamps WHERE end_ms >= ?"
	args := []any{toMillis(since)}
	if timerID != timer.NullID {
		query += " AND timer_id = ?"
		args = append(args, timerID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY end_ms, id", args...)
	if err != nil {
		return nil, storeErr("query stamps", "stamps", err)
	}
	defer rows.Close()

	var stamps []timer.Stamp
	for rows.Next() {
		var (
			st         timer.Stamp
			start, end int64
		)
		if err := rows.Scan(&st.ID, &st.TimerID, &start, &end); err != nil {
			return nil, storeErr("scan stamp", "stamps", err)
		}
		st.Start, st.End = fromMillis(start), fromMillis(end)
		stamps = append(stamps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate stamps", "stamps", err)
	}
	return stamps, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
