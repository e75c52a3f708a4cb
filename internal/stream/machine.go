package stream

import (
	"strconv"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// OneMinute is the time ToOneMinute sets.
const OneMinute = time.Minute

// ttsWarmUpBefore is how long before a step ends the speech engine is woken when the next
// step speaks.
const ttsWarmUpBefore = 10 * time.Second

// Listener receives what a Machine does, always on the loop goroutine.
type Listener interface {
	Begin()
	Started(index Index)
	// Moved reports an index change that did not start the new step.
	Moved(index Index)
	Paused()
	Updated(current time.Duration)
	Finished()
	End(forced bool)

	Beep()
	Half(option int)
	// CountRead asks for content to be read out; empty content only wakes the speech engine.
	CountRead(content string)
}

// MachineOptions tunes a Machine.
type MachineOptions struct {
	// Tick is the progress report interval. Zero means DefaultTick.
	Tick time.Duration
	// Index is where the machine starts. Nil means the timer's first index.
	Index *Index
}

// Machine runs one timer: it walks the step tree, hands each step to a task and turns task
// progress into Listener calls. It is confined to the loop goroutine.
type Machine struct {
	*Manager

	loop     *Loop
	timer    *timer.Timer
	listener Listener
	tick     time.Duration

	firstIndex   Index
	lastIndex    Index
	currentIndex Index

	tickListeners []func(current time.Duration)
}

// NewMachine prepares t to run on loop. The timer must not be changed while it runs.
func NewMachine(loop *Loop, t *timer.Timer, listener Listener, opts MachineOptions) *Machine {
	m := &Machine{
		loop:       loop,
		timer:      t,
		listener:   listener,
		tick:       opts.Tick,
		firstIndex: FirstIndex(t),
		lastIndex:  LastIndex(t),
	}
	if m.tick <= 0 {
		m.tick = DefaultTick
	}
	m.currentIndex = m.firstIndex
	if opts.Index != nil && IsValidIndex(t, *opts.Index) {
		m.currentIndex = *opts.Index
	}
	m.Manager = NewManager(loop, m)
	return m
}

func (m *Machine) Timer() *timer.Timer { return m.timer }
func (m *Machine) CurrentIndex() Index { return m.currentIndex }
func (m *Machine) FirstIndex() Index   { return m.firstIndex }
func (m *Machine) LastIndex() Index    { return m.lastIndex }
func (m *Machine) IsAtFirst() bool     { return m.currentIndex == m.firstIndex }
func (m *Machine) IsAtLast() bool      { return m.currentIndex == m.lastIndex }

// RunState is Paused for a timer that has begun but is not running, even when the index
// moved and its new task never started.
func (m *Machine) RunState() State {
	switch {
	case m.State().IsRunning():
		return Running
	case m.Began():
		return Paused
	default:
		return Reset
	}
}

// CurrentStep is the step at the current index.
func (m *Machine) CurrentStep() (timer.Step, bool) {
	return StepOf(m.timer, m.currentIndex)
}

// CurrentTime is the current task's time, or the current step's length before it runs.
func (m *Machine) CurrentTime() time.Duration {
	if t := m.Current(); t != nil {
		return t.Current()
	}
	if s, ok := m.CurrentStep(); ok && !s.HasBehaviour(timer.BehaviourHalt) {
		return s.Length
	}
	return 0
}

// ToIndex moves to i, keeping the run state. Indices that do not resolve are ignored.
func (m *Machine) ToIndex(i Index) bool {
	step, ok := StepOf(m.timer, i)
	if !ok {
		return false
	}
	m.currentIndex = i
	t := m.taskFor(step, i)
	m.Interfere(t)
	if !t.State().IsRunning() {
		m.listener.Moved(i)
		m.listener.Updated(t.Current())
	}
	return true
}

// Adjust adds amount to the current task's time.
func (m *Machine) Adjust(amount time.Duration) {
	if t := m.Current(); t != nil {
		t.Adjust(amount, true)
	}
}

// ToOneMinute sets the current task's time to one minute.
func (m *Machine) ToOneMinute() {
	if t := m.Current(); t != nil {
		t.Adjust(OneMinute, false)
	}
}

// Reset stops the timer. A timer that had begun reports a forced end.
func (m *Machine) Reset() {
	began := m.Began()
	m.Stop()
	if began {
		m.listener.End(true)
	}
	m.currentIndex = m.firstIndex
	m.tickListeners = nil
}

// FirstTask implements ManagerHooks.
func (m *Machine) FirstTask() Task {
	step, ok := StepOf(m.timer, m.currentIndex)
	if !ok {
		return nil
	}
	return m.taskFor(step, m.currentIndex)
}

// NextTask implements ManagerHooks. It returns nil once the last index is done.
func (m *Machine) NextTask() Task {
	if m.currentIndex == m.lastIndex {
		return nil
	}
	next := Next(m.timer, m.currentIndex)
	step, ok := StepOf(m.timer, next)
	if !ok {
		return nil
	}
	m.currentIndex = next
	return m.taskFor(step, next)
}

func (m *Machine) OnBegin()     { m.listener.Begin() }
func (m *Machine) OnStart(Task) { m.listener.Started(m.currentIndex) }
func (m *Machine) OnPaused()    { m.listener.Paused() }
func (m *Machine) OnDone()      { m.listener.Finished() }

func (m *Machine) OnNoMore() {
	m.tickListeners = nil
	m.listener.End(false)
	m.currentIndex = m.firstIndex
}

func (m *Machine) OnTick(_ Task, current time.Duration) {
	m.listener.Updated(current)
	for _, l := range m.tickListeners {
		l(current)
	}
}

// taskFor builds the task for step at i and installs its tick listeners. A step that halts
// counts up; every other step counts down.
func (m *Machine) taskFor(step timer.Step, i Index) Task {
	m.tickListeners = nil
	if step.HasBehaviour(timer.BehaviourBeep) {
		m.tickListeners = append(m.tickListeners, func(time.Duration) { m.listener.Beep() })
	}
	if step.HasBehaviour(timer.BehaviourHalt) {
		return NewStopwatch(m.loop, m.tick)
	}

	if b, ok := step.FindBehaviour(timer.BehaviourHalf); ok {
		m.tickListeners = append(m.tickListeners, m.halfListener(step.Length, b.HalfAction().Option))
	}
	if b, ok := step.FindBehaviour(timer.BehaviourCount); ok {
		m.tickListeners = append(m.tickListeners, m.countListener(b.CountAction().Times))
	}
	if i != m.lastIndex {
		if next, ok := StepOf(m.timer, Next(m.timer, i)); ok && next.UsesTTS() {
			m.tickListeners = append(m.tickListeners, m.warmUpListener())
		}
	}
	return NewCountdown(m.loop, step.Length, m.tick)
}

func (m *Machine) halfListener(length time.Duration, option int) func(time.Duration) {
	notified := false
	return func(current time.Duration) {
		if notified || current >= length/2+time.Second {
			return
		}
		notified = true
		m.listener.Half(option)
	}
}

func (m *Machine) countListener(times int) func(time.Duration) {
	warmedUp := false
	return func(current time.Duration) {
		seconds := wholeSeconds(current)
		if !warmedUp && seconds <= times+1 {
			warmedUp = true
			m.listener.CountRead("")
		}
		if times > 0 && seconds > 0 && seconds <= times {
			times = seconds - 1
			m.listener.CountRead(strconv.Itoa(seconds))
		}
	}
}

func (m *Machine) warmUpListener() func(time.Duration) {
	warmedUp := false
	return func(current time.Duration) {
		if warmedUp || current > ttsWarmUpBefore {
			return
		}
		warmedUp = true
		m.listener.CountRead("")
	}
}

// wholeSeconds truncates: 5.5s left still reads as "5".
func wholeSeconds(d time.Duration) int {
	return int(d / time.Second)
}
