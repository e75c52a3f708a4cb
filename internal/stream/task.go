package stream

import "time"

// DefaultTick is how often running tasks report progress.
const DefaultTick = time.Second

// Task backs the execution of one step. All methods must be called on the loop.
type Task interface {
	State() State
	// Start begins or resumes the task. Starting a running task does nothing.
	Start()
	// Pause keeps the progress made so far.
	Pause()
	// ForceStop discards the task. A stopped task never calls back again.
	ForceStop()
	// Adjust adds amount to the task's time, or sets it when add is false.
	Adjust(amount time.Duration, add bool)
	// Current is the time left for countdowns and the time elapsed for stopwatches.
	Current() time.Duration

	bind(owner taskOwner)
}

// taskOwner is what a task reports to. Manager is the only implementation.
type taskOwner interface {
	onTaskTick(t Task, current time.Duration)
	onTaskDone(t Task)
}

type nopOwner struct{}

func (nopOwner) onTaskTick(Task, time.Duration) {}
func (nopOwner) onTaskDone(Task)                {}
