// Package presenter runs any number of timers side by side on one engine loop.
//
// The Presenter is safe for concurrent use: every command is carried onto the loop, where
// the timers, their machines and their behaviour dispatchers live. Everything that happens
// to a running timer is published as an Event to subscribers.
package presenter

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/steptimer/internal/behaviour"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/metrics"
	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// TimerSource loads timer definitions.
type TimerSource interface {
	GetTimer(ctx context.Context, id int64) (*timer.Timer, error)
}

// Options configures a Presenter. Zero values get sensible defaults.
type Options struct {
	Tick      time.Duration
	Performer behaviour.Performer
	Formatter *behaviour.Formatter
	Hooks     Hooks
	Recorder  metrics.Recorder
	Logger    *slog.Logger
	// NewRunID generates run ids. Defaults to random UUIDs.
	NewRunID func() string
}

// Presenter is the command surface of the engine.
type Presenter struct {
	loop   *stream.Loop
	source TimerSource
	reg    *registry
	hub    *hub
	log    *slog.Logger
}

// New returns a presenter running timers on loop. The loop must be running for commands
// to complete.
func New(loop *stream.Loop, source TimerSource, opts Options) *Presenter {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Performer == nil {
		opts.Performer = behaviour.NewLogPerformer(log, nil)
	}
	if opts.Hooks == nil {
		opts.Hooks = nopHooks{}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	h := newHub()
	return &Presenter{
		loop:   loop,
		source: source,
		hub:    h,
		log:    log,
		reg: &registry{
			loop:      loop,
			hub:       h,
			log:       log,
			hooks:     opts.Hooks,
			recorder:  opts.Recorder,
			performer: opts.Performer,
			formatter: opts.Formatter,
			tick:      opts.Tick,
			newRunID:  opts.NewRunID,
			timers:    make(map[int64]*entry),
		},
	}
}

// do runs fn on the loop and returns its error.
func (p *Presenter) do(ctx context.Context, fn func(r *registry) error) error {
	var err error
	if callErr := p.loop.Call(ctx, func() { err = fn(p.reg) }); callErr != nil {
		return errors.RuntimeError("engine loop unavailable").WithCause(callErr).Build()
	}
	return err
}

// Subscribe returns a channel of events for timerID, or for every timer with AllTimers,
// and a function that cancels the subscription. Events are dropped for a subscriber whose
// buffer is full.
func (p *Presenter) Subscribe(timerID int64, buffer int) (<-chan Event, func()) {
	return p.hub.subscribe(timerID, buffer)
}

// Close closes every subscription. Running timers are left alone.
func (p *Presenter) Close() {
	p.hub.close()
}

// StartTimer loads timer id from the source and runs it, optionally from idx. A timer
// already loaded resumes, moving to idx first when given.
func (p *Presenter) StartTimer(ctx context.Context, id int64, idx *stream.Index) error {
	t, err := p.source.GetTimer(ctx, id)
	if err != nil {
		return err
	}
	return p.Start(ctx, t, idx)
}

// Start runs an already loaded timer definition.
func (p *Presenter) Start(ctx context.Context, t *timer.Timer, idx *stream.Index) error {
	return p.do(ctx, func(r *registry) error { return r.start(t, idx) })
}

func (p *Presenter) PauseTimer(ctx context.Context, id int64) error {
	return p.do(ctx, func(r *registry) error { return r.pause(id) })
}

// MoveTimer moves to idx, keeping the run state.
func (p *Presenter) MoveTimer(ctx context.Context, id int64, idx stream.Index) error {
	return p.do(ctx, func(r *registry) error { return r.move(id, idx) })
}

// DecreTimer moves one step back; at the first index it resets the timer.
func (p *Presenter) DecreTimer(ctx context.Context, id int64) error {
	return p.do(ctx, func(r *registry) error { return r.decrement(id) })
}

// IncreTimer moves one step forward; at the last index it resets the timer.
func (p *Presenter) IncreTimer(ctx context.Context, id int64) error {
	return p.do(ctx, func(r *registry) error { return r.increment(id) })
}

func (p *Presenter) ResetTimer(ctx context.Context, id int64) error {
	return p.do(ctx, func(r *registry) error { return r.reset(id) })
}

// AdjustAmount adds amount to the current step. With goBackOnNotifier, a positive amount
// on a notifier step returns to the step before it instead.
func (p *Presenter) AdjustAmount(ctx context.Context, id int64, amount time.Duration, goBackOnNotifier bool) error {
	return p.do(ctx, func(r *registry) error { return r.adjust(id, amount, goBackOnNotifier) })
}

func (p *Presenter) StartAll(ctx context.Context) error {
	return p.do(ctx, func(r *registry) error {
		r.startAll()
		return nil
	})
}

// PauseAll pauses every running timer and returns the ids it paused.
func (p *Presenter) PauseAll(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := p.do(ctx, func(r *registry) error {
		ids = r.pauseAll()
		return nil
	})
	return ids, err
}

func (p *Presenter) StopAll(ctx context.Context) error {
	return p.do(ctx, func(r *registry) error {
		r.stopAll()
		return nil
	})
}

// ScheduleStart starts timer id for a scheduler. A timer that is already running is left
// alone.
func (p *Presenter) ScheduleStart(ctx context.Context, id int64) error {
	t, err := p.source.GetTimer(ctx, id)
	if err != nil {
		return err
	}
	p.log.Info("Scheduled start", logfields.TimerID(id))
	return p.do(ctx, func(r *registry) error {
		if e, ok := r.timers[id]; ok && e.machine.State().IsRunning() {
			return nil
		}
		return r.start(t, nil)
	})
}

// ScheduleEnd ends timer id for a scheduler: it jumps to the end step when there is one,
// otherwise it resets the timer. A timer that is not loaded is left alone.
func (p *Presenter) ScheduleEnd(ctx context.Context, id int64) error {
	p.log.Info("Scheduled end", logfields.TimerID(id))
	return p.do(ctx, func(r *registry) error {
		if _, ok := r.timers[id]; !ok {
			return nil
		}
		return r.scheduleEnd(id)
	})
}

// StateInfo describes timer id. The second result is false when it is not loaded.
func (p *Presenter) StateInfo(ctx context.Context, id int64) (Info, bool, error) {
	var (
		info Info
		ok   bool
	)
	err := p.do(ctx, func(r *registry) error {
		info, ok = r.info(id)
		return nil
	})
	return info, ok, err
}

// Running describes every loaded timer, ordered by id.
func (p *Presenter) Running(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := p.do(ctx, func(r *registry) error {
		infos = r.running()
		return nil
	})
	return infos, err
}
