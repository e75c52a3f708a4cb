package presenter

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// StampSink stores run records.
type StampSink interface {
	AddStamp(ctx context.Context, s timer.Stamp) (int64, error)
}

// Followups implements Hooks by saving stamps and starting triggered timers on their own
// goroutines, so the loop never waits on storage.
type Followups struct {
	ctx       context.Context
	stamps    StampSink
	presenter *Presenter
	log       *slog.Logger
	wg        sync.WaitGroup
}

// NewFollowups returns hooks that work until ctx ends. Bind must be called before a
// triggered timer can start.
func NewFollowups(ctx context.Context, stamps StampSink, log *slog.Logger) *Followups {
	if log == nil {
		log = slog.Default()
	}
	return &Followups{ctx: ctx, stamps: stamps, log: log}
}

// Bind sets the presenter that starts triggered timers.
func (f *Followups) Bind(p *Presenter) { f.presenter = p }

func (f *Followups) RecordStamp(s timer.Stamp) {
	if f.stamps == nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if _, err := f.stamps.AddStamp(f.ctx, s); err != nil {
			f.log.Error("Failed to record timer stamp", logfields.TimerID(s.TimerID), logfields.Error(err))
		}
	}()
}

func (f *Followups) TriggerTimer(id int64) {
	if f.presenter == nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if err := f.presenter.StartTimer(f.ctx, id, nil); err != nil {
			f.log.Warn("Failed to start triggered timer", logfields.TimerID(id), logfields.Error(err))
		}
	}()
}

// Wait blocks until every follow-up has finished.
func (f *Followups) Wait() { f.wg.Wait() }
