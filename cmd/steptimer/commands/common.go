// Package commands implements the steptimer command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/store"
)

// Global is shared by every command.
type Global struct {
	Logger *slog.Logger
	// Level is the level of the installed handler. The daemon adjusts it on reload.
	Level *slog.LevelVar
	// Out receives command output. Nil means stdout.
	Out io.Writer

	config    *config.Config
	configErr error
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// Config returns the configuration loaded for this invocation.
func (g *Global) Config() (*config.Config, error) {
	return g.config, g.configErr
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"steptimer.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Timer    TimerCmd    `cmd:"" help:"Manage timers"`
	Folder   FolderCmd   `cmd:"" help:"Manage folders"`
	Schedule ScheduleCmd `cmd:"" help:"Manage schedules that start or end timers"`
	Notifier NotifierCmd `cmd:"" help:"Show or replace the step played before each step"`
	Records  RecordsCmd  `cmd:"" help:"List recorded runs"`
	Export   ExportCmd   `cmd:"" help:"Export everything to a backup file"`
	Import   ImportCmd   `cmd:"" help:"Import a backup file"`
	Run      RunCmd      `cmd:"" help:"Run a timer in the foreground until it ends"`
	Daemon   DaemonCmd   `cmd:"" help:"Run the service with schedules, API and broadcasting"`
}

// AfterApply runs after flag parsing: it loads the configuration and installs the default
// logger. A missing configuration file means defaults.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := loadConfig(c.Config)
	g.config, g.configErr = cfg, err
	if cfg == nil {
		cfg = config.Default()
	}

	if g.Level == nil {
		g.Level = new(slog.LevelVar)
	}
	g.Level.Set(cfg.Logging.Level.SlogLevel())
	if c.Verbose {
		g.Level.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{Level: g.Level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	g.Logger = slog.New(handler)
	slog.SetDefault(g.Logger)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", logfields.Path(path))
		return config.Default(), nil
	}
	return config.Load(path)
}

// withStore opens the configured database for the duration of fn.
func withStore(ctx context.Context, g *Global, fn func(*store.Store) error) error {
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			g.Logger.Warn("Failed to close database", logfields.Error(cerr))
		}
	}()
	return fn(st)
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid %s id", what)).
			WithContext("value", raw).Build()
	}
	return id, nil
}
