package eventstore

import "time"

// Event is one journaled fact about a timer run.
type Event interface {
	// ID returns the unique identifier for this event.
	ID() string
	// RunID returns the run this event belongs to.
	RunID() string
	// TimerID returns the timer that ran.
	TimerID() int64
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as JSON.
	Payload() []byte
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        string
	EventRunID     string
	EventTimerID   int64
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
}

func (e *BaseEvent) ID() string           { return e.EventID }
func (e *BaseEvent) RunID() string        { return e.EventRunID }
func (e *BaseEvent) TimerID() int64       { return e.EventTimerID }
func (e *BaseEvent) Type() string         { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte      { return e.EventPayload }
