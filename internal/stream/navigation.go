package stream

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// FirstIndex returns Start when the timer has a start step, else its first playable leaf,
// else End.
func FirstIndex(t *timer.Timer) Index {
	if t.StartStep != nil {
		return StartIndex()
	}
	return seekForward(t.Steps, t.Loop, 0, 0, EndIndex())
}

// LastIndex returns End when the timer has an end step, else its last playable leaf, else
// Start when there is a start step, else End.
func LastIndex(t *timer.Timer) Index {
	if t.EndStep != nil {
		return EndIndex()
	}
	fallback := EndIndex()
	if t.StartStep != nil {
		fallback = StartIndex()
	}
	return seekBackward(t.Steps, t.Loop-1, len(t.Steps)-1, fallback)
}

// Next returns the index after current in t, or LastIndex(t) when current is the last.
func Next(t *timer.Timer, current Index) Index {
	return NextIndex(t.Steps, t.Loop, current, LastIndex(t))
}

// Prev returns the index before current in t, or FirstIndex(t) when current is the first.
func Prev(t *timer.Timer, current Index) Index {
	return PrevIndex(t.Steps, t.Loop, current, FirstIndex(t))
}

// NextIndex advances one leaf position through steps repeated loop times. Stepping past
// the final leaf, or from End, yields last. Groups that cannot play are skipped.
//
// A group index that does not point at a group is a programming error and panics.
func NextIndex(steps []timer.Element, loop int, current, last Index) Index {
	switch current.Kind {
	case KindStart:
		return seekForward(steps, loop, 0, 0, last)
	case KindStep:
		return seekForward(steps, loop, current.LoopIndex, current.StepIndex+1, last)
	case KindGroup:
		g := groupAt(steps, current)
		pos := current.Group
		switch {
		case pos.StepIndex+1 < len(g.Steps):
			return GroupAt(current.LoopIndex, current.StepIndex, pos.LoopIndex, pos.StepIndex+1)
		case pos.LoopIndex+1 < g.Loop:
			return GroupAt(current.LoopIndex, current.StepIndex, pos.LoopIndex+1, 0)
		default:
			return seekForward(steps, loop, current.LoopIndex, current.StepIndex+1, last)
		}
	default:
		return last
	}
}

// PrevIndex retreats one leaf position. Stepping before the first leaf, or from Start,
// yields first.
func PrevIndex(steps []timer.Element, loop int, current, first Index) Index {
	switch current.Kind {
	case KindEnd:
		return seekBackward(steps, loop-1, len(steps)-1, first)
	case KindStep:
		return seekBackward(steps, current.LoopIndex, current.StepIndex-1, first)
	case KindGroup:
		g := groupAt(steps, current)
		pos := current.Group
		switch {
		case pos.StepIndex > 0:
			return GroupAt(current.LoopIndex, current.StepIndex, pos.LoopIndex, pos.StepIndex-1)
		case pos.LoopIndex > 0:
			return GroupAt(current.LoopIndex, current.StepIndex, pos.LoopIndex-1, len(g.Steps)-1)
		default:
			return seekBackward(steps, current.LoopIndex, current.StepIndex-1, first)
		}
	default:
		return first
	}
}

// seekForward finds the first playable position at or after (loopIndex, stepIndex).
func seekForward(steps []timer.Element, loop, loopIndex, stepIndex int, fallback Index) Index {
	for l := loopIndex; l < loop; l++ {
		from := 0
		if l == loopIndex {
			from = stepIndex
		}
		for s := from; s < len(steps); s++ {
			switch e := steps[s].(type) {
			case timer.Step:
				return StepAt(l, s)
			case timer.Group:
				if e.Playable() {
					return GroupAt(l, s, 0, 0)
				}
			}
		}
	}
	return fallback
}

// seekBackward finds the last playable position at or before (loopIndex, stepIndex).
func seekBackward(steps []timer.Element, loopIndex, stepIndex int, fallback Index) Index {
	for l := loopIndex; l >= 0; l-- {
		from := len(steps) - 1
		if l == loopIndex {
			from = min(stepIndex, len(steps)-1)
		}
		for s := from; s >= 0; s-- {
			switch e := steps[s].(type) {
			case timer.Step:
				return StepAt(l, s)
			case timer.Group:
				if e.Playable() {
					return GroupAt(l, s, e.Loop-1, len(e.Steps)-1)
				}
			}
		}
	}
	return fallback
}

func groupAt(steps []timer.Element, i Index) timer.Group {
	if i.StepIndex < 0 || i.StepIndex >= len(steps) {
		panic(fmt.Sprintf("stream: index %s out of range of %d steps", i, len(steps)))
	}
	g, ok := steps[i.StepIndex].(timer.Group)
	if !ok {
		panic(fmt.Sprintf("stream: index %s does not point at a group", i))
	}
	return g
}

// StepOf resolves i to the leaf it points at. Out of range and mismatched indices report
// false instead of panicking.
func StepOf(t *timer.Timer, i Index) (timer.Step, bool) {
	switch i.Kind {
	case KindStart:
		if t.StartStep == nil {
			return timer.Step{}, false
		}
		return *t.StartStep, true
	case KindEnd:
		if t.EndStep == nil {
			return timer.Step{}, false
		}
		return *t.EndStep, true
	}
	if i.LoopIndex < 0 || i.LoopIndex >= t.Loop || i.StepIndex < 0 || i.StepIndex >= len(t.Steps) {
		return timer.Step{}, false
	}
	switch e := t.Steps[i.StepIndex].(type) {
	case timer.Step:
		if i.Kind != KindStep {
			return timer.Step{}, false
		}
		return e, true
	case timer.Group:
		pos := i.Group
		if i.Kind != KindGroup || pos.LoopIndex < 0 || pos.LoopIndex >= e.Loop ||
			pos.StepIndex < 0 || pos.StepIndex >= len(e.Steps) {
			return timer.Step{}, false
		}
		return e.Steps[pos.StepIndex], true
	}
	return timer.Step{}, false
}

// GroupOf returns the group a group index points into.
func GroupOf(t *timer.Timer, i Index) (timer.Group, bool) {
	if i.Kind != KindGroup || i.StepIndex < 0 || i.StepIndex >= len(t.Steps) {
		return timer.Group{}, false
	}
	g, ok := t.Steps[i.StepIndex].(timer.Group)
	return g, ok
}

// IsValidIndex reports whether i resolves to a step of t.
func IsValidIndex(t *timer.Timer, i Index) bool {
	_, ok := StepOf(t, i)
	return ok
}

// LoopOf returns the one-based outer loop i belongs to: 1 for Start and t.Loop for End.
func LoopOf(t *timer.Timer, i Index) int {
	switch i.Kind {
	case KindStart:
		return 1
	case KindEnd:
		return t.Loop
	default:
		return i.LoopIndex + 1
	}
}

// GroupTimer views g as a timer of its own, with no start or end step. Group-relative
// durations are computed against it.
func GroupTimer(g timer.Group) *timer.Timer {
	steps := make([]timer.Element, len(g.Steps))
	for i, s := range g.Steps {
		steps[i] = s
	}
	return &timer.Timer{Name: g.Name, Loop: g.Loop, Steps: steps, More: timer.DefaultMore()}
}

// InGroupIndex maps a group index onto the matching index of GroupTimer.
func InGroupIndex(i Index) Index {
	return StepAt(i.Group.LoopIndex, i.Group.StepIndex)
}

// LoopTime is the length of one pass over the top-level step list.
func LoopTime(steps []timer.Element) time.Duration {
	return elementsTime(steps, len(steps))
}

// GroupTime is the length of one group, all its loops included.
func GroupTime(g timer.Group) time.Duration {
	return time.Duration(g.Loop) * stepsTime(g.Steps, len(g.Steps))
}

// TotalTime is the full length of t: start and end steps plus every loop of the step list.
func TotalTime(t *timer.Timer) time.Duration {
	total := time.Duration(t.Loop) * LoopTime(t.Steps)
	if t.StartStep != nil {
		total += t.StartStep.Length
	}
	if t.EndStep != nil {
		total += t.EndStep.Length
	}
	return total
}

// TimeBeforeIndex sums the lengths of every step played before i.
func TimeBeforeIndex(t *timer.Timer, i Index) time.Duration {
	if i.Kind == KindStart {
		return 0
	}
	var before time.Duration
	if t.StartStep != nil {
		before = t.StartStep.Length
	}
	if i.Kind == KindEnd {
		return before + time.Duration(t.Loop)*LoopTime(t.Steps)
	}
	before += time.Duration(i.LoopIndex)*LoopTime(t.Steps) + elementsTime(t.Steps, i.StepIndex)
	if i.Kind == KindGroup {
		if g, ok := GroupOf(t, i); ok {
			before += time.Duration(i.Group.LoopIndex)*stepsTime(g.Steps, len(g.Steps)) +
				stepsTime(g.Steps, i.Group.StepIndex)
		}
	}
	return before
}

func elementsTime(steps []timer.Element, n int) time.Duration {
	var d time.Duration
	for _, e := range steps[:min(n, len(steps))] {
		switch v := e.(type) {
		case timer.Step:
			d += v.Length
		case timer.Group:
			d += GroupTime(v)
		}
	}
	return d
}

func stepsTime(steps []timer.Step, n int) time.Duration {
	var d time.Duration
	for _, s := range steps[:min(n, len(steps))] {
		d += s.Length
	}
	return d
}
