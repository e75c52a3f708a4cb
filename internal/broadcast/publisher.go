// Package broadcast publishes engine events to NATS and keeps the latest state of each
// timer in a JetStream key-value bucket.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/metrics"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/retry"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Timer states kept in the bucket.
const (
	StatusRunning = "running"
	StatusPaused  = "paused"
	StatusEnded   = "ended"
)

// Transport is the messaging side of the publisher. NATSTransport is the production one.
type Transport interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PutState(ctx context.Context, key string, data []byte) error
}

// State is the document stored per timer.
type State struct {
	TimerID   int64          `json:"timer_id"`
	RunID     string         `json:"run_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Status    string         `json:"status"`
	Index     string         `json:"index,omitempty"`
	Step      string         `json:"step,omitempty"`
	StepType  timer.StepType `json:"step_type,omitempty"`
	Length    time.Duration  `json:"length,omitempty"`
	Forced    bool           `json:"forced,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Publisher forwards engine events to a Transport.
type Publisher struct {
	transport Transport
	prefix    string
	policy    retry.Policy
	recorder  metrics.Recorder
	log       *slog.Logger

	mu     sync.Mutex
	states map[int64]*State
}

// NewPublisher returns a publisher using subjects below prefix. A nil recorder or logger
// falls back to no metrics and the default logger.
func NewPublisher(t Transport, prefix string, policy retry.Policy, rec metrics.Recorder, log *slog.Logger) *Publisher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		transport: t,
		prefix:    prefix,
		policy:    policy,
		recorder:  rec,
		log:       log,
		states:    make(map[int64]*State),
	}
}

// Subject is the subject an event of kind for timerID is published on.
func (p *Publisher) Subject(timerID int64, kind string) string {
	return fmt.Sprintf("%s.timer.%d.%s", p.prefix, timerID, kind)
}

// StateKey is the bucket key holding the state of timerID.
func StateKey(timerID int64) string {
	return fmt.Sprintf("timer.%d", timerID)
}

// Run publishes events until the channel is closed or ctx is done.
func (p *Publisher) Run(ctx context.Context, events <-chan presenter.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = p.Handle(ctx, e)
		}
	}
}

// Handle publishes one event and, when it changes the timer state, stores the new state.
// Failures are retried with the policy, counted and logged.
func (p *Publisher) Handle(ctx context.Context, e presenter.Event) error {
	data, err := presenter.MarshalEvent(e)
	if err != nil {
		p.log.Error("Failed to encode event", logfields.EventType(e.Kind()), logfields.Error(err))
		return err
	}

	h := e.Meta()
	subject := p.Subject(h.TimerID, e.Kind())
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		return p.transport.Publish(ctx, subject, data)
	})
	if err != nil {
		p.recorder.IncBroadcastFailure(e.Kind())
		p.log.Warn("Failed to publish event", logfields.Subject(subject), logfields.Error(err))
		return err
	}

	st, changed := p.fold(e)
	if !changed {
		return nil
	}
	doc, err := json.Marshal(st)
	if err != nil {
		return err
	}
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		return p.transport.PutState(ctx, StateKey(h.TimerID), doc)
	})
	if err != nil {
		p.recorder.IncBroadcastFailure("state")
		p.log.Warn("Failed to store timer state", logfields.TimerID(h.TimerID), logfields.Error(err))
		return err
	}
	return nil
}

// State returns the last state folded for timerID.
func (p *Publisher) State(timerID int64) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[timerID]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// fold applies e to the cached state of its timer and returns a copy when it changed.
func (p *Publisher) fold(e presenter.Event) (State, bool) {
	h := e.Meta()

	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[h.TimerID]
	if !ok {
		st = &State{TimerID: h.TimerID}
		p.states[h.TimerID] = st
	}

	switch v := e.(type) {
	case presenter.Begin:
		*st = State{TimerID: h.TimerID, Name: v.Name, Status: StatusRunning}
	case presenter.Started:
		st.Status = StatusRunning
		st.Index = v.Index.String()
		st.Step = v.Step
		st.StepType = v.Type
		st.Length = v.Length
	case presenter.Moved:
		st.Index = v.Index.String()
	case presenter.Paused:
		st.Status = StatusPaused
	case presenter.End:
		st.Status = StatusEnded
		st.Forced = v.Forced
		st.Index, st.Step, st.StepType, st.Length = "", "", "", 0
	default:
		return State{}, false
	}
	st.RunID = h.RunID
	st.UpdatedAt = h.At
	return *st, true
}
