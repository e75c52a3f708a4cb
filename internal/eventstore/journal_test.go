package eventstore

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

func newTestJournal(t *testing.T) (*Journal, *SQLiteStore, *RunHistoryProjection) {
	t.Helper()
	store := newTestStore(t)
	projection := NewRunHistoryProjection(store, 10)
	j := NewJournal(store, projection, nil)
	n := 0
	j.newID = func() string {
		n++
		return "ev-" + strconv.Itoa(n)
	}
	return j, store, projection
}

func header(offset time.Duration) presenter.Header {
	return presenter.Header{TimerID: 3, RunID: "run-9", At: epoch.Add(offset)}
}

func TestJournalRecordsRun(t *testing.T) {
	j, store, projection := newTestJournal(t)
	ctx := t.Context()

	stamp := timer.Stamp{TimerID: 3, Start: epoch, End: epoch.Add(90 * time.Second)}
	for _, e := range []presenter.Event{
		presenter.Begin{Header: header(0), Name: "Rounds"},
		presenter.Started{Header: header(0), Index: stream.StepAt(0, 0), Step: "Work", Type: timer.StepNormal, Length: time.Minute},
		presenter.Updated{Header: header(time.Second), Time: 59 * time.Second},
		presenter.Beep{Header: header(time.Second)},
		presenter.CountRead{Header: header(57 * time.Second), Content: "3"},
		presenter.Half{Header: header(30 * time.Second), Option: 1},
		presenter.Paused{Header: header(40 * time.Second)},
		presenter.Moved{Header: header(41 * time.Second), Index: stream.StepAt(0, 1)},
		presenter.Finished{Header: header(80 * time.Second), Index: stream.StepAt(0, 1)},
		presenter.End{Header: header(90 * time.Second), BeganAt: epoch, Stamp: &stamp},
	} {
		j.Record(ctx, e)
	}

	events, err := store.GetByRunID(ctx, "run-9")
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
	}
	assert.Equal(t, []string{
		TypeRunBegan, TypeStepStarted, TypeHalfReached, TypeRunPaused, TypeIndexMoved, TypeStepFinished, TypeRunEnded,
	}, types)

	var started StepStartedPayload
	require.NoError(t, json.Unmarshal(events[1].Payload(), &started))
	assert.Equal(t, StepStartedPayload{Index: "0.0", Step: "Work", StepType: "NORMAL", LengthMS: 60_000}, started)

	var ended RunEndedPayload
	require.NoError(t, json.Unmarshal(events[6].Payload(), &ended))
	assert.True(t, ended.Recorded)
	assert.Equal(t, int64(90_000), ended.DurationMS)

	summary, ok := projection.GetRun("run-9")
	require.True(t, ok)
	assert.Equal(t, "Rounds", summary.Name)
	assert.Equal(t, 1, summary.StepsStarted)
	assert.Equal(t, 1, summary.Pauses)
	assert.Equal(t, 90*time.Second, summary.Duration)
}

func TestJournalSkipsEventsOutsideRuns(t *testing.T) {
	j, store, _ := newTestJournal(t)
	ctx := t.Context()

	j.Record(ctx, presenter.End{Header: presenter.Header{TimerID: 3, At: epoch}, Forced: true})

	events, err := store.GetRange(ctx, epoch.Add(-time.Hour), epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJournalRunDrainsChannel(t *testing.T) {
	j, store, _ := newTestJournal(t)
	ctx := t.Context()

	ch := make(chan presenter.Event, 2)
	ch <- presenter.Begin{Header: header(0), Name: "Rounds"}
	ch <- presenter.End{Header: header(time.Second), Forced: true, BeganAt: epoch}
	close(ch)
	j.Run(ctx, ch)

	events, err := store.GetByRunID(ctx, "run-9")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
