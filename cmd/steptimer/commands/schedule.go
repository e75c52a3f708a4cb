package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/store"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

var weekdayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// ScheduleCmd groups the schedule subcommands.
type ScheduleCmd struct {
	Add     ScheduleAddCmd     `cmd:"" help:"Add a schedule"`
	List    ScheduleListCmd    `cmd:"" help:"List schedules with their next fire time"`
	Enable  ScheduleEnableCmd  `cmd:"" help:"Enable a schedule"`
	Disable ScheduleDisableCmd `cmd:"" help:"Disable a schedule"`
	Rm      ScheduleRmCmd      `cmd:"" help:"Delete a schedule"`
}

// ScheduleAddCmd implements 'schedule add'.
type ScheduleAddCmd struct {
	Timer    string   `arg:"" help:"Timer id"`
	At       string   `arg:"" help:"Wall-clock time as HH:MM"`
	Action   string   `enum:"start,end" default:"start" help:"What to do to the timer (start, end)"`
	Repeat   string   `enum:"once,week,days" default:"once" help:"Repeat mode (once, week, days)"`
	Days     []string `help:"Weekdays for --repeat=week, e.g. mon,wed,fri"`
	Every    int      `default:"1" help:"Day interval for --repeat=days"`
	Label    string   `help:"Label"`
	Disabled bool     `help:"Add the schedule disabled"`
}

func (c *ScheduleAddCmd) scheduler() (timer.Scheduler, error) {
	timerID, err := parseID(c.Timer, "timer")
	if err != nil {
		return timer.Scheduler{}, err
	}
	at, err := time.Parse("15:04", c.At)
	if err != nil {
		return timer.Scheduler{}, errors.ValidationError("time must be HH:MM").
			WithCause(err).WithContext("value", c.At).Build()
	}
	sc := timer.Scheduler{
		TimerID: timerID,
		Label:   c.Label,
		Hour:    at.Hour(),
		Minute:  at.Minute(),
		Enable:  !c.Disabled,
	}
	if c.Action == "end" {
		sc.Action = timer.SchedulerEnd
	}

	switch c.Repeat {
	case "week":
		sc.RepeatMode = timer.RepeatEveryWeek
		if sc.Days, err = parseWeekdays(c.Days); err != nil {
			return sc, err
		}
	case "days":
		sc.RepeatMode = timer.RepeatEveryDays
		if c.Every < 1 {
			return sc, errors.ValidationError("--every must be at least 1").WithContext("every", c.Every).Build()
		}
		if sc.Days, err = timer.EveryDayToDays(c.Every); err != nil {
			return sc, errors.ValidationError("invalid day interval").WithCause(err).Build()
		}
	default:
		sc.RepeatMode = timer.RepeatOnce
	}
	return sc, nil
}

func parseWeekdays(names []string) ([7]bool, error) {
	var days [7]bool
	if len(names) == 0 {
		return days, errors.ValidationError("--days is required for weekly schedules").Build()
	}
	for _, name := range names {
		found := false
		for i, wd := range weekdayNames {
			if strings.EqualFold(strings.TrimSpace(name), wd) {
				days[i], found = true, true
			}
		}
		if !found {
			return days, errors.ValidationError("unknown weekday").WithContext("value", name).Build()
		}
	}
	return days, nil
}

func formatDays(sc timer.Scheduler) string {
	switch sc.RepeatMode {
	case timer.RepeatEveryWeek:
		var names []string
		for i, on := range sc.Days {
			if on {
				names = append(names, weekdayNames[i])
			}
		}
		return strings.Join(names, ",")
	case timer.RepeatEveryDays:
		return fmt.Sprintf("every %d", timer.DaysToEveryDay(sc.Days))
	default:
		return "-"
	}
}

func (c *ScheduleAddCmd) Run(g *Global) error {
	sc, err := c.scheduler()
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if _, err := st.GetTimer(ctx, sc.TimerID); err != nil {
			return err
		}
		id, err := st.AddScheduler(ctx, sc)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Added schedule %d\n", id)
		return nil
	})
}

// ScheduleListCmd implements 'schedule list'.
type ScheduleListCmd struct {
	Enabled bool `help:"Only list enabled schedules"`
}

func (c *ScheduleListCmd) Run(g *Global) error {
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return errors.ConfigError("invalid schedule timezone").WithCause(err).Build()
	}
	now := time.Now().In(loc)

	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		schedulers, err := st.Schedulers(ctx, c.Enabled)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTIMER\tACTION\tAT\tREPEAT\tDAYS\tENABLED\tNEXT\tLABEL")
		for _, sc := range schedulers {
			next := "-"
			if sc.Enable {
				next = sc.NextFireTime(now).Format("2006-01-02 15:04")
			}
			_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%02d:%02d\t%s\t%s\t%t\t%s\t%s\n",
				sc.ID, sc.TimerID, sc.Action, sc.Hour, sc.Minute,
				strings.ToLower(string(sc.RepeatMode)), formatDays(sc), sc.Enable, next, sc.Label)
		}
		return w.Flush()
	})
}

// ScheduleEnableCmd implements 'schedule enable'.
type ScheduleEnableCmd struct {
	ID string `arg:"" help:"Schedule id"`
}

func (c *ScheduleEnableCmd) Run(g *Global) error {
	return setScheduleEnable(g, c.ID, true)
}

// ScheduleDisableCmd implements 'schedule disable'.
type ScheduleDisableCmd struct {
	ID string `arg:"" help:"Schedule id"`
}

func (c *ScheduleDisableCmd) Run(g *Global) error {
	return setScheduleEnable(g, c.ID, false)
}

func setScheduleEnable(g *Global, raw string, enable bool) error {
	id, err := parseID(raw, "schedule")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		return st.SetSchedulerEnable(ctx, id, enable)
	})
}

// ScheduleRmCmd implements 'schedule rm'.
type ScheduleRmCmd struct {
	ID string `arg:"" help:"Schedule id"`
}

func (c *ScheduleRmCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "schedule")
	if err != nil {
		return err
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		if err := st.DeleteScheduler(ctx, id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Deleted schedule %d\n", id)
		return nil
	})
}
