// Package daemon is the composition root of the steptimer service: it wires the engine
// loop, presenter, storage, journal, schedules, speech, metrics, broadcasting and the
// HTTP API, runs them until its context ends and shuts them down in order.
package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/steptimer/internal/api"
	"git.home.luguber.info/inful/steptimer/internal/behaviour"
	"git.home.luguber.info/inful/steptimer/internal/broadcast"
	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/eventstore"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/metrics"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/retry"
	"git.home.luguber.info/inful/steptimer/internal/schedule"
	"git.home.luguber.info/inful/steptimer/internal/speech"
	"git.home.luguber.info/inful/steptimer/internal/store"
	"git.home.luguber.info/inful/steptimer/internal/stream"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

const (
	subscriberBuffer = 256
	historySize      = 200
)

// Options carries what the daemon cannot read from the config file.
type Options struct {
	// ConfigPath enables hot reloading when set.
	ConfigPath string
	// LevelVar is the level of the installed log handler; reloads update it.
	LevelVar *slog.LevelVar
	Logger   *slog.Logger
	// Clock drives the engine loop and the schedules. Nil means the real clock.
	Clock clockwork.Clock
	// Performer replaces the logging performer.
	Performer behaviour.Performer
}

// Daemon represents the main daemon service
type Daemon struct {
	opts      Options
	log       *slog.Logger
	status    atomic.Value // Status
	startTime time.Time
	ready     chan struct{}

	mu  sync.RWMutex
	cfg *config.Config

	// runCtx outlives Run's context so shutdown can still talk to the loop.
	runCtx    context.Context
	runCancel context.CancelFunc

	store      *store.Store
	events     *eventstore.SQLiteStore
	projection *eventstore.RunHistoryProjection
	journal    *eventstore.Journal
	loop       *stream.Loop
	speaker    *speech.Speaker
	followups  *presenter.Followups
	presenter  *presenter.Presenter
	recorder   metrics.Recorder
	registry   *prom.Registry
	scheduler  *schedule.Service
	api        *api.Server
	watcher    *ConfigWatcher

	workers sync.WaitGroup
}

// New opens storage and builds every component. Nothing runs until Run.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, errors.ConfigError("invalid schedule timezone").
			WithCause(err).WithContext("timezone", cfg.Schedule.Timezone).Build()
	}

	d := &Daemon{opts: opts, log: log, cfg: cfg, ready: make(chan struct{})}
	d.status.Store(StatusStopped)
	d.runCtx, d.runCancel = context.WithCancel(context.WithoutCancel(ctx))

	if d.store, err = store.Open(ctx, cfg.Storage.Path); err != nil {
		return nil, err
	}
	if d.events, err = eventstore.NewSQLiteStore(ctx, cfg.Storage.JournalPath); err != nil {
		d.closeStorage()
		return nil, err
	}
	d.projection = eventstore.NewRunHistoryProjection(d.events, historySize)
	if err := d.projection.Rebuild(ctx); err != nil {
		// Non-fatal: history starts empty
		log.Warn("Failed to rebuild run history", logfields.Error(err))
	}
	d.journal = eventstore.NewJournal(d.events, d.projection, log)

	d.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		d.registry = prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry, cfg.Metrics.Namespace)
	}

	d.loop = stream.NewLoop(clock)
	d.speaker = speech.New(speech.Config{Command: cfg.Speech.Command, Args: cfg.Speech.Args}, speech.WithLogger(log))
	performer := opts.Performer
	if performer == nil {
		performer = behaviour.NewLogPerformer(log, d.speaker)
	}
	d.followups = presenter.NewFollowups(d.runCtx, d.store, log)
	d.presenter = presenter.New(d.loop, d.store, presenter.Options{
		Tick:      cfg.Engine.Tick,
		Performer: performer,
		Formatter: behaviour.NewFormatter(cfg.Locale),
		Hooks:     d.followups,
		Recorder:  d.recorder,
		Logger:    log,
	})
	d.followups.Bind(d.presenter)

	d.scheduler, err = schedule.New(d.store, d.presenter, schedule.Options{
		Clock:    clock,
		Location: loc,
		Recorder: d.recorder,
		Logger:   log,
	})
	if err != nil {
		d.closeStorage()
		return nil, err
	}

	if cfg.API.Enabled() {
		deps := api.Deps{
			Engine:           d.presenter,
			Timers:           d.store,
			Stamps:           d.store,
			Runs:             d.projection,
			Logger:           log,
			AdjustStep:       cfg.Engine.AdjustStep,
			GoBackOnNotifier: cfg.Engine.GoBack(),
		}
		if d.registry != nil {
			deps.Metrics = metrics.HTTPHandler(d.registry)
		}
		d.api = api.NewServer(cfg.API.Listen, deps)
	}

	if opts.ConfigPath != "" {
		if d.watcher, err = NewConfigWatcher(opts.ConfigPath, d); err != nil {
			d.closeStorage()
			return nil, err
		}
	}

	return d, nil
}

// Run starts every component and blocks until ctx ends, then shuts down. It returns an
// error when a component fails to start.
func (d *Daemon) Run(ctx context.Context) error {
	if d.GetStatus() != StatusStopped {
		return errors.DaemonError("daemon is not in stopped state").
			WithContext("status", string(d.GetStatus())).Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.log.Info("Starting steptimer daemon")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() { _ = d.loop.Run(d.runCtx) }()
	d.speaker.Start(d.runCtx)

	journalEvents, unsubscribeJournal := d.presenter.Subscribe(presenter.AllTimers, subscriberBuffer)
	defer unsubscribeJournal()
	d.goWorker(func() { d.journal.Run(d.runCtx, journalEvents) })

	transport, err := d.startBroadcast(ctx)
	if err != nil {
		d.status.Store(StatusError)
		d.shutdown(nil)
		return err
	}

	if err := d.scheduler.Start(d.runCtx); err != nil {
		d.status.Store(StatusError)
		d.shutdown(transport)
		return err
	}

	if d.api != nil {
		d.goWorker(func() {
			d.log.Info("API listening", logfields.URL(d.api.Addr))
			if err := d.api.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				d.log.Error("API server failed", logfields.Error(err))
				cancel()
			}
		})
	}

	if d.watcher != nil {
		if err := d.watcher.Start(d.runCtx); err != nil {
			d.log.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	close(d.ready)
	d.log.Info("Steptimer daemon started")

	<-ctx.Done()
	d.shutdown(transport)
	return nil
}

func (d *Daemon) startBroadcast(ctx context.Context) (*broadcast.NATSTransport, error) {
	cfg := d.GetConfig().NATS
	if !cfg.Enabled() {
		return nil, nil
	}
	transport, err := broadcast.DialNATS(ctx, cfg.URL, cfg.KVBucket)
	if err != nil {
		return nil, err
	}
	publisher := broadcast.NewPublisher(transport, cfg.SubjectPrefix, retry.FromConfig(cfg.Retry), d.recorder, d.log)
	events, _ := d.presenter.Subscribe(presenter.AllTimers, subscriberBuffer)
	d.goWorker(func() { publisher.Run(d.runCtx, events) })
	return transport, nil
}

func (d *Daemon) goWorker(fn func()) {
	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		fn()
	}()
}

// shutdown stops components in reverse order of their dependencies.
func (d *Daemon) shutdown(transport *broadcast.NATSTransport) {
	d.status.Store(StatusStopping)
	d.log.Info("Stopping steptimer daemon")
	cfg := d.GetConfig()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if err := d.scheduler.Stop(); err != nil {
		d.log.Error("Failed to stop scheduler", logfields.Error(err))
	}

	ctx, cancel := context.WithTimeout(d.runCtx, 5*time.Second)
	if err := d.presenter.StopAll(ctx); err != nil {
		d.log.Warn("Failed to stop running timers", logfields.Error(err))
	}
	cancel()
	// Closing the subscriptions lets the journal, the publisher and event streams drain
	// and return.
	d.presenter.Close()
	if d.api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		if err := d.api.Shutdown(ctx); err != nil {
			d.log.Error("Failed to stop API server", logfields.Error(err))
		}
		cancel()
	}
	d.followups.Wait()
	d.workers.Wait()
	d.runCancel()
	<-d.loop.Done()

	if err := d.speaker.Close(); err != nil {
		d.log.Error("Failed to stop speaker", logfields.Error(err))
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			d.log.Error("Failed to close NATS connection", logfields.Error(err))
		}
	}
	d.closeStorage()

	d.status.Store(StatusStopped)
	d.log.Info("Steptimer daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
}

func (d *Daemon) closeStorage() {
	if d.events != nil {
		if err := d.events.Close(); err != nil {
			d.log.Error("Failed to close journal", logfields.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Error("Failed to close store", logfields.Error(err))
		}
	}
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// Ready is closed once Run has started every component.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Presenter returns the engine command surface.
func (d *Daemon) Presenter() *presenter.Presenter { return d.presenter }

// Store returns the timer store.
func (d *Daemon) Store() *store.Store { return d.store }

// History returns the run history projection.
func (d *Daemon) History() *eventstore.RunHistoryProjection { return d.projection }

// Schedules returns the scheduler service.
func (d *Daemon) Schedules() *schedule.Service { return d.scheduler }

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// ReloadConfig applies what can change without a restart: the log level and the schedule
// time zone. Schedulers are re-armed afterwards. Other changes are logged and wait for a
// restart.
func (d *Daemon) ReloadConfig(ctx context.Context, next *config.Config) error {
	loc, err := next.Schedule.Location()
	if err != nil {
		return errors.ConfigError("invalid schedule timezone").
			WithCause(err).WithContext("timezone", next.Schedule.Timezone).Build()
	}

	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	d.mu.Unlock()

	if d.opts.LevelVar != nil {
		d.opts.LevelVar.Set(next.Logging.Level.SlogLevel())
	}
	warnRestart(d.log, prev, next)

	if err := d.scheduler.SetLocation(ctx, loc); err != nil {
		return err
	}
	d.log.Info("Configuration reloaded",
		slog.String("level", string(next.Logging.Level)),
		slog.String("timezone", next.Schedule.Timezone))
	return nil
}

func warnRestart(log *slog.Logger, prev, next *config.Config) {
	if prev.Storage != next.Storage {
		log.Warn("Storage changes need a restart")
	}
	if prev.API.Listen != next.API.Listen {
		log.Warn("API listen address changes need a restart")
	}
	if prev.NATS.URL != next.NATS.URL || prev.NATS.SubjectPrefix != next.NATS.SubjectPrefix {
		log.Warn("NATS changes need a restart")
	}
	if prev.Engine.Tick != next.Engine.Tick {
		log.Warn("Engine tick changes need a restart")
	}
}
