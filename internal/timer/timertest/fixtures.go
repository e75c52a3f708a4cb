// Package timertest provides fixed timers and records shared by tests across packages.
// Many assertions depend on the exact values below.
package timertest

import (
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

const (
	FolderID int64 = 16
	TimerID  int64 = 434
)

var (
	BehaviourMusic     = timer.Behaviour{Type: timer.BehaviourMusic, Str1: "Sun", Str2: "uri: sun", Bool: false}
	BehaviourVibration = timer.NewBehaviour(timer.BehaviourVibration)
	BehaviourScreen    = timer.NewBehaviour(timer.BehaviourScreen)
	BehaviourVoice     = timer.NewBehaviour(timer.BehaviourVoice)
)

// StepA is a plain one minute step.
func StepA() timer.Step {
	return timer.Step{Label: "Step Alpha", Length: time.Minute, Type: timer.StepNormal}
}

// StepB is a five second notifier with music and vibration.
func StepB() timer.Step {
	return timer.Step{
		Label:     "Step Bravo",
		Length:    5 * time.Second,
		Behaviour: []timer.Behaviour{BehaviourMusic, BehaviourVibration},
		Type:      timer.StepNotifier,
	}
}

// StepC is a long end step with screen and voice.
func StepC() timer.Step {
	return timer.Step{
		Label:     "Step Charles",
		Length:    1_000_000 * time.Millisecond,
		Behaviour: []timer.Behaviour{BehaviourScreen, BehaviourVoice},
		Type:      timer.StepEnd,
	}
}

// GroupD loops A, B, C three times.
func GroupD() timer.Group {
	return timer.Group{Name: "Step Group", Loop: 3, Steps: []timer.Step{StepA(), StepB(), StepC()}}
}

func startOf(s timer.Step) *timer.Step {
	s.Type = timer.StepStart
	return &s
}

func endOf(s timer.Step) *timer.Step {
	s.Type = timer.StepEnd
	return &s
}

// SimpleA is one loop of StepA with no start or end step.
func SimpleA() *timer.Timer {
	t := timer.New("Timer Alpha", 1, StepA())
	t.ID = TimerID
	return t
}

// SimpleB loops A, B five times between a start and an end step.
func SimpleB() *timer.Timer {
	t := timer.New("Timer Bravo", 5, StepA(), StepB())
	t.ID = TimerID + 1
	t.StartStep = startOf(StepA())
	t.EndStep = endOf(StepC())
	t.More = timer.More{ShowNotif: false, NotifCount: true}
	return t
}

// SingleLeaf is five loops of a single five second step between Alpha and Charles.
func SingleLeaf() *timer.Timer {
	t := timer.New("Timer Single", 5, timer.Step{Label: "Bravo", Length: 5 * time.Second, Type: timer.StepNormal})
	t.ID = TimerID + 3
	t.StartStep = startOf(timer.Step{Label: "Alpha", Length: time.Minute})
	t.EndStep = endOf(timer.Step{Label: "Charles", Length: 1_000_000 * time.Millisecond})
	return t
}

// Advanced mixes plain steps and groups.
func Advanced() *timer.Timer {
	t := timer.New("Timer Advanced", 5, StepA(), GroupD(), StepB(), StepC(), GroupD())
	t.ID = TimerID + 2
	t.StartStep = startOf(StepA())
	t.EndStep = endOf(StepC())
	t.More = timer.More{ShowNotif: false, NotifCount: true}
	return t
}

// WithEmptyGroups surrounds groups that can never play with real steps.
func WithEmptyGroups() *timer.Timer {
	t := timer.New("Timer Hollow", 2,
		timer.Group{Name: "Empty", Loop: 3},
		StepA(),
		timer.Group{Name: "Zero Loop", Loop: 0, Steps: []timer.Step{StepB()}},
		timer.Group{Name: "Real", Loop: 2, Steps: []timer.Step{StepB()}},
		timer.Group{Name: "Trailing Empty", Loop: 1},
	)
	t.ID = TimerID + 4
	return t
}

// SchedulerA starts TimerID at 10:24 on Monday, Wednesday, Friday and Sunday.
func SchedulerA() timer.Scheduler {
	return timer.Scheduler{
		ID: 10, TimerID: TimerID, Label: "Scheduler Alpha",
		Action: timer.SchedulerStart, Hour: 10, Minute: 24,
		RepeatMode: timer.RepeatEveryWeek,
		Days:       [7]bool{true, false, true, false, true, false, true},
	}
}

// SchedulerB ends TimerID at 23:30 every 42 days.
func SchedulerB() timer.Scheduler {
	return timer.Scheduler{
		ID: 11, TimerID: TimerID, Label: "Scheduler Bravo",
		Action: timer.SchedulerEnd, Hour: 23, Minute: 30,
		RepeatMode: timer.RepeatEveryDays,
		Days:       [7]bool{false, true, false, true, false, true, false},
		Enable:     true,
	}
}
