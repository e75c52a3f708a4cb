package stream

import "time"

// ManagerHooks supplies tasks to a Manager and observes its lifecycle.
type ManagerHooks interface {
	// FirstTask returns the task to run when the manager starts from scratch, or nil.
	FirstTask() Task
	// NextTask returns the task that follows a finished one, or nil when there is none.
	NextTask() Task

	OnBegin()
	OnStart(t Task)
	OnPaused()
	OnTick(t Task, current time.Duration)
	OnDone()
	OnNoMore()
}

// Manager owns at most one task at a time and moves from task to task.
// It is confined to the loop goroutine.
type Manager struct {
	loop  *Loop
	hooks ManagerHooks

	current   Task
	beginTime time.Time
}

// NewManager returns an idle manager.
func NewManager(loop *Loop, hooks ManagerHooks) *Manager {
	return &Manager{loop: loop, hooks: hooks}
}

// Current returns the current task, or nil.
func (m *Manager) Current() Task { return m.current }

// State is the current task's state, Reset without one.
func (m *Manager) State() State {
	if m.current == nil {
		return Reset
	}
	return m.current.State()
}

// BeginTime is when the manager first started since it was last stopped, or zero.
func (m *Manager) BeginTime() time.Time { return m.beginTime }

// Began reports whether the manager has started since it was last stopped.
func (m *Manager) Began() bool { return !m.beginTime.IsZero() }

// Start resumes the current task, asking for a first one when there is none. A fresh
// start always begins, even when there turns out to be nothing to run.
func (m *Manager) Start() {
	if m.current != nil && m.current.State().IsRunning() {
		return
	}
	if m.beginTime.IsZero() {
		m.beginTime = m.loop.Now()
		m.hooks.OnBegin()
	}
	if m.current == nil {
		t := m.hooks.FirstTask()
		if t == nil {
			m.finishAll()
			return
		}
		m.take(t)
	}
	m.run(m.current)
}

// Pause pauses the current task, if any is running.
func (m *Manager) Pause() {
	if m.current == nil || !m.current.State().IsRunning() {
		return
	}
	m.current.Pause()
	m.hooks.OnPaused()
}

// Stop discards the current task unconditionally.
func (m *Manager) Stop() {
	if m.current != nil {
		m.current.ForceStop()
		m.current = nil
	}
	m.beginTime = time.Time{}
}

// Interfere swaps the current task for t. t starts right away when the outgoing task was
// running and waits for Start otherwise.
func (m *Manager) Interfere(t Task) {
	wasRunning := m.current != nil && m.current.State().IsRunning()
	if m.current != nil {
		m.current.ForceStop()
		m.current = nil
	}
	if t == nil {
		return
	}
	m.take(t)
	if wasRunning {
		m.run(t)
	}
}

func (m *Manager) take(t Task) {
	m.current = t
	t.bind(m)
}

func (m *Manager) run(t Task) {
	m.hooks.OnStart(t)
	if m.current == t {
		t.Start()
	}
}

func (m *Manager) onTaskTick(t Task, current time.Duration) {
	if t != m.current {
		return
	}
	m.hooks.OnTick(t, current)
}

func (m *Manager) onTaskDone(t Task) {
	if t != m.current {
		return
	}
	m.hooks.OnDone()
	next := m.hooks.NextTask()
	if next == nil {
		m.finishAll()
		return
	}
	m.take(next)
	m.run(next)
}

func (m *Manager) finishAll() {
	m.current = nil
	m.hooks.OnNoMore()
	m.beginTime = time.Time{}
}
