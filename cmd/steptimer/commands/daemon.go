package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/steptimer/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	NoWatch bool `help:"Do not reload the configuration file when it changes"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := daemon.Options{Logger: g.Logger, LevelVar: g.Level}
	if !d.NoWatch {
		opts.ConfigPath = root.Config
	}
	svc, err := daemon.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	g.Logger.Info("Daemon starting, waiting for shutdown signal", slog.String("storage", cfg.Storage.Path))
	return svc.Run(ctx)
}
