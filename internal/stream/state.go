package stream

import "fmt"

// State is the run state of a task, and by extension of a running timer.
type State int

const (
	Reset State = iota
	Running
	Paused
)

func (s State) IsReset() bool   { return s == Reset }
func (s State) IsRunning() bool { return s == Running }
func (s State) IsPaused() bool  { return s == Paused }

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "reset"
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reset":
		*s = Reset
	case "running":
		*s = Running
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}
