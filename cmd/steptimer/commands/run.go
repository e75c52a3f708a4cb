package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/daemon"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/stream"
)

// RunCmd implements 'run'.
type RunCmd struct {
	ID   string `arg:"" help:"Timer id"`
	From string `help:"Index to start at: start, end, L.S or L.S.GL.GS"`
}

func (c *RunCmd) Run(g *Global) error {
	id, err := parseID(c.ID, "timer")
	if err != nil {
		return err
	}
	var idx *stream.Index
	if c.From != "" {
		parsed, err := stream.ParseIndex(c.From)
		if err != nil {
			return err
		}
		idx = &parsed
	}
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	// The foreground run never serves the API, so it can sit next to a daemon.
	runCfg := *cfg
	runCfg.API.Listen = config.APIListenOff

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(ctx, &runCfg, daemon.Options{Logger: g.Logger, LevelVar: g.Level})
	if err != nil {
		return err
	}
	return runForeground(ctx, d, id, idx, g.out())
}

// runForeground runs d until timer id ends or ctx is cancelled, printing its progress.
func runForeground(ctx context.Context, d *daemon.Daemon, id int64, idx *stream.Index, out io.Writer) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(runCtx) }()
	select {
	case <-d.Ready():
	case err := <-errCh:
		return err
	}

	events, unsubscribe := d.Presenter().Subscribe(id, 64)
	defer unsubscribe()
	if err := d.Presenter().StartTimer(runCtx, id, idx); err != nil {
		cancel()
		<-errCh
		return err
	}

wait:
	for {
		select {
		case e, ok := <-events:
			if !ok {
				break wait
			}
			printEvent(out, e)
			if _, ended := e.(presenter.End); ended {
				break wait
			}
		case <-ctx.Done():
			break wait
		}
	}
	cancel()
	return <-errCh
}

func printEvent(out io.Writer, e presenter.Event) {
	switch v := e.(type) {
	case presenter.Begin:
		_, _ = fmt.Fprintf(out, "Began %s\n", v.Name)
	case presenter.Started:
		_, _ = fmt.Fprintf(out, "%-10s %s (%s)\n", v.Index, v.Step, v.Length)
	case presenter.Paused:
		_, _ = fmt.Fprintln(out, "Paused")
	case presenter.Half:
		_, _ = fmt.Fprintln(out, "Half way")
	case presenter.End:
		switch {
		case v.Forced:
			_, _ = fmt.Fprintln(out, "Stopped")
		case v.Stamp != nil:
			_, _ = fmt.Fprintf(out, "Finished in %s\n", v.Stamp.Duration().Round(time.Second))
		default:
			_, _ = fmt.Fprintln(out, "Finished")
		}
	}
}

