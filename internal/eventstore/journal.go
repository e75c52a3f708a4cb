package eventstore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
)

// Journal appends engine events to a Store and keeps a projection current.
type Journal struct {
	store      Store
	projection *RunHistoryProjection
	log        *slog.Logger
	newID      func() string
}

// NewJournal returns a journal writing to store. projection may be nil.
func NewJournal(store Store, projection *RunHistoryProjection, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	return &Journal{store: store, projection: projection, log: log, newID: uuid.NewString}
}

// Run journals events until the channel is closed or ctx is done. Append failures are
// logged and do not stop the journal.
func (j *Journal) Run(ctx context.Context, events <-chan presenter.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			j.Record(ctx, e)
		}
	}
}

// Record journals a single engine event.
func (j *Journal) Record(ctx context.Context, e presenter.Event) {
	ev, ok, err := FromPresenter(j.newID(), e)
	if err != nil {
		j.log.Error("Failed to encode journal event", logfields.EventType(e.Kind()), logfields.Error(err))
		return
	}
	if !ok {
		return
	}
	if err := j.store.Append(ctx, ev); err != nil {
		j.log.Error("Failed to append journal event",
			logfields.TimerID(ev.TimerID()), logfields.RunID(ev.RunID()),
			logfields.EventType(ev.Type()), logfields.Error(err))
		return
	}
	if j.projection != nil {
		j.projection.Apply(ev)
	}
}
