package timer

import (
	"fmt"
	"time"
)

// SchedulerAction is what a scheduler does to its timer when it fires.
type SchedulerAction int

const (
	SchedulerStart SchedulerAction = 0
	SchedulerEnd   SchedulerAction = 1
)

func (a SchedulerAction) String() string {
	if a == SchedulerEnd {
		return "end"
	}
	return "start"
}

// RepeatMode controls how a scheduler picks its next fire time.
type RepeatMode string

const (
	RepeatOnce      RepeatMode = "ONCE"
	RepeatEveryWeek RepeatMode = "EVERY_WEEK"
	RepeatEveryDays RepeatMode = "EVERY_DAYS"
)

// Scheduler starts or ends a timer at a wall-clock time.
//
// Days is Monday first. For RepeatEveryWeek it selects weekdays; for RepeatEveryDays it
// is a little-endian bit field holding the day interval (see DaysToEveryDay).
type Scheduler struct {
	ID         int64           `json:"id"`
	TimerID    int64           `json:"timerId"`
	Label      string          `json:"label"`
	Action     SchedulerAction `json:"action"`
	Hour       int             `json:"hour"`
	Minute     int             `json:"minute"`
	RepeatMode RepeatMode      `json:"repeatMode"`
	Days       [7]bool         `json:"days"`
	Enable     bool            `json:"enable"`
}

// DaysToEveryDay reads days as a little-endian bit field.
func DaysToEveryDay(days [7]bool) int {
	n := 0
	for i := 6; i >= 0; i-- {
		if days[i] {
			n += 1 << i
		}
	}
	return n
}

// EveryDayToDays is the inverse of DaysToEveryDay.
func EveryDayToDays(n int) ([7]bool, error) {
	var days [7]bool
	if n < 0 || n > 127 {
		return days, fmt.Errorf("%d is not between 0 and 127", n)
	}
	for i := 6; i >= 0; i-- {
		days[i] = n&(1<<i) != 0
	}
	return days, nil
}

// NextFireTime returns the first time after now the scheduler should fire, in now's
// location.
func (s Scheduler) NextFireTime(now time.Time) time.Time {
	loc := now.Location()
	y, m, d := now.Date()
	next := time.Date(y, m, d, s.Hour, s.Minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	switch s.RepeatMode {
	case RepeatEveryWeek:
		if add := s.distanceToEnabledDay(next); add > 0 {
			next = next.AddDate(0, 0, add)
		}
	case RepeatEveryDays:
		if add := DaysToEveryDay(s.Days) - 1; add > 0 {
			next = next.AddDate(0, 0, add)
		}
	}

	// AddDate keeps the wall clock, but a DST gap may have shifted it; pin it again.
	y, m, d = next.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, loc)
}

// distanceToEnabledDay counts days from t to the next enabled weekday, or -1 when no
// weekday is enabled.
func (s Scheduler) distanceToEnabledDay(t time.Time) int {
	weekday := int(t.Weekday())
	for count := range 7 {
		if s.Days[(weekday+6)%7] {
			return count
		}
		weekday = (weekday + 1) % 7
	}
	return -1
}
