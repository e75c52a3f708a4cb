package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/presenter"
)

// Journal event type names.
const (
	TypeRunBegan     = "RunBegan"
	TypeStepStarted  = "StepStarted"
	TypeIndexMoved   = "IndexMoved"
	TypeRunPaused    = "RunPaused"
	TypeStepFinished = "StepFinished"
	TypeHalfReached  = "HalfReached"
	TypeRunEnded     = "RunEnded"
)

// RunBeganPayload is the payload of a RunBegan event.
type RunBeganPayload struct {
	Name string `json:"name"`
}

// StepStartedPayload is the payload of a StepStarted event.
type StepStartedPayload struct {
	Index    string `json:"index"`
	Step     string `json:"step"`
	StepType string `json:"step_type"`
	LengthMS int64  `json:"length_ms"`
}

// IndexPayload is the payload of IndexMoved and StepFinished events.
type IndexPayload struct {
	Index string `json:"index"`
}

// HalfReachedPayload is the payload of a HalfReached event.
type HalfReachedPayload struct {
	Option int `json:"option"`
}

// RunEndedPayload is the payload of a RunEnded event.
type RunEndedPayload struct {
	Forced   bool      `json:"forced"`
	BeganAt  time.Time `json:"began_at"`
	Recorded bool      `json:"recorded"`
	// DurationMS is the wall time from begin to end, zero when the run never began.
	DurationMS int64 `json:"duration_ms"`
}

// NewEvent builds a journal event with a JSON payload.
func NewEvent(id, runID string, timerID int64, eventType string, at time.Time, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, wrap(ErrMarshalPayloadFailed, err).
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return &BaseEvent{
		EventID:        id,
		EventRunID:     runID,
		EventTimerID:   timerID,
		EventType:      eventType,
		EventTimestamp: at,
		EventPayload:   data,
	}, nil
}

// FromPresenter converts an engine event to its journal form. It reports false for events
// that are not journaled: per-tick Updated, Beep and CountRead events, and anything
// outside a run.
func FromPresenter(id string, e presenter.Event) (*BaseEvent, bool, error) {
	h := e.Meta()
	if h.RunID == "" {
		return nil, false, nil
	}

	var (
		eventType string
		payload   any
	)
	switch v := e.(type) {
	case presenter.Begin:
		eventType, payload = TypeRunBegan, RunBeganPayload{Name: v.Name}
	case presenter.Started:
		eventType, payload = TypeStepStarted, StepStartedPayload{
			Index:    v.Index.String(),
			Step:     v.Step,
			StepType: string(v.Type),
			LengthMS: v.Length.Milliseconds(),
		}
	case presenter.Moved:
		eventType, payload = TypeIndexMoved, IndexPayload{Index: v.Index.String()}
	case presenter.Paused:
		eventType, payload = TypeRunPaused, struct{}{}
	case presenter.Finished:
		eventType, payload = TypeStepFinished, IndexPayload{Index: v.Index.String()}
	case presenter.Half:
		eventType, payload = TypeHalfReached, HalfReachedPayload{Option: v.Option}
	case presenter.End:
		p := RunEndedPayload{Forced: v.Forced, BeganAt: v.BeganAt, Recorded: v.Stamp != nil}
		if !v.BeganAt.IsZero() {
			p.DurationMS = v.At.Sub(v.BeganAt).Milliseconds()
		}
		eventType, payload = TypeRunEnded, p
	default:
		return nil, false, nil
	}

	ev, err := NewEvent(id, h.RunID, h.TimerID, eventType, h.At, payload)
	if err != nil {
		return nil, false, err
	}
	return ev, true, nil
}
