package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/eventstore"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/store"
)

// RecordsCmd implements 'records'.
type RecordsCmd struct {
	Timer int64         `help:"Only show records of this timer"`
	Since time.Duration `help:"Only show records that ended within this duration, e.g. 168h"`
	Runs  bool          `help:"Show the run journal instead of recorded stamps"`
	Limit int           `default:"50" help:"Maximum number of journal runs"`
}

func (c *RecordsCmd) Run(g *Global) error {
	if c.Runs {
		return c.runs(g)
	}
	var since time.Time
	if c.Since > 0 {
		since = time.Now().Add(-c.Since)
	}
	ctx := context.Background()
	return withStore(ctx, g, func(st *store.Store) error {
		stamps, err := st.Stamps(ctx, c.Timer, since)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTIMER\tSTART\tEND\tDURATION")
		for _, s := range stamps {
			_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
				s.ID, s.TimerID, s.Start.Local().Format(time.DateTime), s.End.Local().Format(time.DateTime),
				s.Duration().Round(time.Second))
		}
		return w.Flush()
	})
}

func (c *RecordsCmd) runs(g *Global) error {
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	ctx := context.Background()
	events, err := eventstore.NewSQLiteStore(ctx, cfg.Storage.JournalPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := events.Close(); cerr != nil {
			g.Logger.Warn("Failed to close journal", logfields.Error(cerr))
		}
	}()

	projection := eventstore.NewRunHistoryProjection(events, c.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tTIMER\tNAME\tSTATUS\tBEGAN\tDURATION\tSTEPS\tPAUSES\tRECORDED")
	for _, r := range projection.GetHistory(c.Timer) {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			r.RunID, r.TimerID, r.Name, r.Status, r.BeganAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Second), r.StepsStarted, r.Pauses, r.Recorded)
	}
	return w.Flush()
}
