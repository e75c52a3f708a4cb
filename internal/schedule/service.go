// Package schedule fires timer schedulers at their wall-clock times.
//
// Every enabled scheduler is armed as a gocron one-time job at its next fire time. When a
// job fires, the timer is started or ended, ONCE schedulers are disabled and repeating ones
// are armed again for their following fire time.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/metrics"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Controller is what a firing scheduler acts on.
type Controller interface {
	ScheduleStart(ctx context.Context, timerID int64) error
	ScheduleEnd(ctx context.Context, timerID int64) error
}

// Repository reads and updates stored schedulers.
type Repository interface {
	Schedulers(ctx context.Context, enabledOnly bool) ([]timer.Scheduler, error)
	SetSchedulerEnable(ctx context.Context, id int64, enable bool) error
}

// Options configures a Service. Zero values get defaults.
type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Armed is a scheduler waiting for its next fire time.
type Armed struct {
	Scheduler timer.Scheduler `json:"scheduler"`
	At        time.Time       `json:"at"`
}

// Service keeps one gocron job per enabled scheduler.
type Service struct {
	repo      Repository
	ctrl      Controller
	clock     clockwork.Clock
	recorder  metrics.Recorder
	log       *slog.Logger
	scheduler gocron.Scheduler

	mu    sync.Mutex
	ctx   context.Context
	loc   *time.Location
	armed map[int64]Armed
	// generation changes on every Reload so jobs armed before it do not re-arm.
	generation uint64
}

// New creates a stopped service.
func New(repo Repository, ctrl Controller, opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s, err := gocron.NewScheduler(gocron.WithClock(opts.Clock), gocron.WithLocation(opts.Location))
	if err != nil {
		return nil, errors.SchedulerError("failed to create gocron scheduler").WithCause(err).Build()
	}
	return &Service{
		repo:      repo,
		ctrl:      ctrl,
		clock:     opts.Clock,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		scheduler: s,
		ctx:       context.Background(),
		loc:       opts.Location,
		armed:     make(map[int64]Armed),
	}, nil
}

// Start starts the gocron scheduler and arms every enabled scheduler. Fired actions run
// with ctx.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting scheduler service")
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.scheduler.Start()
	return s.Reload(ctx)
}

// Stop shuts the gocron scheduler down.
func (s *Service) Stop() error {
	s.log.Info("Stopping scheduler service")
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.SchedulerError("failed to stop scheduler").WithCause(err).Build()
	}
	return nil
}

// SetLocation changes the time zone fire times are computed in and re-arms everything.
func (s *Service) SetLocation(ctx context.Context, loc *time.Location) error {
	s.mu.Lock()
	s.loc = loc
	s.mu.Unlock()
	return s.Reload(ctx)
}

// Reload drops every armed job and arms the enabled schedulers again.
func (s *Service) Reload(ctx context.Context) error {
	schedulers, err := s.repo.Schedulers(ctx, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for id := range s.armed {
		s.scheduler.RemoveByTags(tag(id))
	}
	s.armed = make(map[int64]Armed, len(schedulers))

	var firstErr error
	for _, sc := range schedulers {
		if err := s.armLocked(sc); err != nil {
			s.log.Error("Failed to arm scheduler", logfields.SchedulerID(sc.ID), logfields.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.log.Info("Schedulers armed", slog.Int("count", len(s.armed)))
	return firstErr
}

// Next lists the armed schedulers, soonest first.
func (s *Service) Next() []Armed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Armed, 0, len(s.armed))
	for _, a := range s.armed {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Scheduler.ID < out[j].Scheduler.ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

func tag(id int64) string {
	return fmt.Sprintf("scheduler-%d", id)
}

func (s *Service) armLocked(sc timer.Scheduler) error {
	at := sc.NextFireTime(s.clock.Now().In(s.loc))
	_, err := s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(s.fire, sc, s.generation),
		gocron.WithName(fmt.Sprintf("%s-%d", sc.Action, sc.ID)),
		gocron.WithTags(tag(sc.ID)),
	)
	if err != nil {
		return errors.SchedulerError("failed to arm scheduler").
			WithCause(err).
			WithContext("scheduler_id", sc.ID).
			WithContext("at", at).
			Build()
	}
	s.armed[sc.ID] = Armed{Scheduler: sc, At: at}
	s.log.Debug("Scheduler armed", logfields.SchedulerID(sc.ID), logfields.TimerID(sc.TimerID),
		slog.Time("at", at))
	return nil
}

// fire is called by gocron at a scheduler's fire time.
func (s *Service) fire(sc timer.Scheduler, generation uint64) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	action := sc.Action.String()
	s.log.Info("Scheduler fired", logfields.SchedulerID(sc.ID), logfields.TimerID(sc.TimerID),
		logfields.Action(action))
	s.recorder.IncSchedulerFire(action)

	var err error
	if sc.Action == timer.SchedulerEnd {
		err = s.ctrl.ScheduleEnd(ctx, sc.TimerID)
	} else {
		err = s.ctrl.ScheduleStart(ctx, sc.TimerID)
	}
	if err != nil {
		s.log.Warn("Scheduled action failed", logfields.SchedulerID(sc.ID), logfields.TimerID(sc.TimerID),
			logfields.Action(action), logfields.Error(err))
	}

	if sc.RepeatMode == timer.RepeatOnce {
		if err := s.repo.SetSchedulerEnable(ctx, sc.ID, false); err != nil {
			s.log.Error("Failed to disable one-shot scheduler", logfields.SchedulerID(sc.ID), logfields.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	s.scheduler.RemoveByTags(tag(sc.ID))
	delete(s.armed, sc.ID)
	if sc.RepeatMode == timer.RepeatOnce {
		return
	}
	if err := s.armLocked(sc); err != nil {
		s.log.Error("Failed to re-arm scheduler", logfields.SchedulerID(sc.ID), logfields.Error(err))
	}
}
