package presenter

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Event kinds, as published and journaled.
const (
	KindBegin     = "begin"
	KindStarted   = "started"
	KindMoved     = "moved"
	KindPaused    = "paused"
	KindUpdated   = "updated"
	KindFinished  = "finished"
	KindEnd       = "end"
	KindBeep      = "beep"
	KindHalf      = "half"
	KindCountRead = "count_read"
)

// Event is something that happened to a running timer. It is one of Begin, Started,
// Moved, Paused, Updated, Finished, End, Beep, Half or CountRead.
type Event interface {
	Kind() string
	Meta() Header
}

// Header is shared by every event.
type Header struct {
	TimerID int64 `json:"timer_id"`
	// RunID identifies one run from Begin to End. It is empty before a timer begins.
	RunID string    `json:"run_id,omitempty"`
	At    time.Time `json:"at"`
}

func (h Header) Meta() Header { return h }

// Begin is sent once when a timer starts from scratch.
type Begin struct {
	Header
	Name string `json:"name"`
}

// Started is sent whenever a step starts running.
type Started struct {
	Header
	Index  stream.Index   `json:"index"`
	Step   string         `json:"step"`
	Type   timer.StepType `json:"type"`
	Length time.Duration  `json:"length"`
}

// Moved is sent when the index changes without the new step starting.
type Moved struct {
	Header
	Index stream.Index `json:"index"`
}

type Paused struct{ Header }

// Updated carries the current task time: time left for a countdown, time elapsed for a
// stopwatch.
type Updated struct {
	Header
	Time time.Duration `json:"time"`
}

// Finished is sent when a step runs out.
type Finished struct {
	Header
	Index stream.Index `json:"index"`
}

// End is sent when a run stops. Stamp is set when the run was recorded.
type End struct {
	Header
	Forced  bool         `json:"forced"`
	BeganAt time.Time    `json:"began_at"`
	Stamp   *timer.Stamp `json:"stamp,omitempty"`
}

type Beep struct{ Header }

type Half struct {
	Header
	Option int `json:"option"`
}

type CountRead struct {
	Header
	Content string `json:"content"`
}

func (Begin) Kind() string     { return KindBegin }
func (Started) Kind() string   { return KindStarted }
func (Moved) Kind() string     { return KindMoved }
func (Paused) Kind() string    { return KindPaused }
func (Updated) Kind() string   { return KindUpdated }
func (Finished) Kind() string  { return KindFinished }
func (End) Kind() string       { return KindEnd }
func (Beep) Kind() string      { return KindBeep }
func (Half) Kind() string      { return KindHalf }
func (CountRead) Kind() string { return KindCountRead }

// Envelope is the wire form of an event.
type Envelope struct {
	Type  string `json:"type"`
	Event Event  `json:"event"`
}

// MarshalEvent encodes e with its kind.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(Envelope{Type: e.Kind(), Event: e})
}
