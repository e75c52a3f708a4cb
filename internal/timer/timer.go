// Package timer holds the value types that describe an interval timer: its step tree,
// the behaviours attached to steps, and the records kept around it (folders, stamps,
// schedulers). The execution engine only ever reads these values.
package timer

import "time"

// NullID is the id of an entity that has not been stored yet.
const NullID int64 = 0

// StepType tags a leaf step with its role in the timer.
type StepType string

const (
	StepNormal   StepType = "NORMAL"
	StepNotifier StepType = "NOTIFIER"
	StepStart    StepType = "START"
	StepEnd      StepType = "END"
)

// Element is one entry of a timer's top-level step list: either a Step or a Group.
type Element interface {
	isElement()
}

// Step is a leaf unit of execution.
type Step struct {
	Label     string
	Length    time.Duration
	Behaviour []Behaviour
	Type      StepType
}

func (Step) isElement() {}

// HasBehaviour reports whether the step carries a behaviour of type t.
func (s Step) HasBehaviour(t BehaviourType) bool {
	for _, b := range s.Behaviour {
		if b.Type == t {
			return true
		}
	}
	return false
}

// FindBehaviour returns the first behaviour of type t.
func (s Step) FindBehaviour(t BehaviourType) (Behaviour, bool) {
	for _, b := range s.Behaviour {
		if b.Type == t {
			return b, true
		}
	}
	return Behaviour{}, false
}

// UsesTTS reports whether any behaviour of the step speaks.
func (s Step) UsesTTS() bool {
	for _, b := range s.Behaviour {
		if b.UsesTTS() {
			return true
		}
	}
	return false
}

// Group is a named, loopable run of leaf steps. Groups never nest.
type Group struct {
	Name  string
	Loop  int
	Steps []Step
}

func (Group) isElement() {}

// Playable reports whether navigation can ever land inside the group.
func (g Group) Playable() bool {
	return g.Loop > 0 && len(g.Steps) > 0
}

// More carries the timer options that do not affect the step tree.
type More struct {
	ShowNotif      bool
	NotifCount     bool
	TriggerTimerID int64
}

// DefaultMore returns the options a new timer starts with.
func DefaultMore() More {
	return More{ShowNotif: true, NotifCount: true, TriggerTimerID: NullID}
}

// Timer is a complete timer definition.
type Timer struct {
	ID        int64
	Name      string
	Loop      int
	Steps     []Element
	StartStep *Step
	EndStep   *Step
	More      More
	FolderID  int64
}

// New returns a timer with default options in the default folder.
func New(name string, loop int, steps ...Element) *Timer {
	return &Timer{
		Name:     name,
		Loop:     loop,
		Steps:    steps,
		More:     DefaultMore(),
		FolderID: DefaultFolderID,
	}
}

// Info is the lightweight listing view of a timer.
type Info struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FolderID int64  `json:"folder_id"`
}

// Info returns the listing view of t.
func (t *Timer) Info() Info {
	return Info{ID: t.ID, Name: t.Name, FolderID: t.FolderID}
}

// Clone returns a deep copy of t so callers can edit without touching a loaded timer.
func (t *Timer) Clone() *Timer {
	if t == nil {
		return nil
	}
	c := *t
	c.Steps = make([]Element, len(t.Steps))
	for i, e := range t.Steps {
		switch v := e.(type) {
		case Step:
			c.Steps[i] = cloneStep(v)
		case Group:
			g := v
			g.Steps = make([]Step, len(v.Steps))
			for j, s := range v.Steps {
				g.Steps[j] = cloneStep(s)
			}
			c.Steps[i] = g
		}
	}
	if t.StartStep != nil {
		s := cloneStep(*t.StartStep)
		c.StartStep = &s
	}
	if t.EndStep != nil {
		s := cloneStep(*t.EndStep)
		c.EndStep = &s
	}
	return &c
}

func cloneStep(s Step) Step {
	if s.Behaviour != nil {
		s.Behaviour = append([]Behaviour(nil), s.Behaviour...)
	}
	return s
}
