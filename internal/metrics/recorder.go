package metrics

import "time"

// OutcomeLabel tells how a timer run ended.
type OutcomeLabel string

const (
	OutcomeNatural OutcomeLabel = "natural"
	OutcomeForced  OutcomeLabel = "forced"
)

// Recorder defines observability hooks for timer runs, schedulers and the event
// broadcaster. Methods are called from the engine loop and must not block.
type Recorder interface {
	IncTimerStarted()
	IncTimerEnded(outcome OutcomeLabel)
	ObserveRunDuration(d time.Duration)
	IncStepStarted(stepType string)
	SetRunningTimers(n int)
	IncSchedulerFire(action string)
	IncBroadcastFailure(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTimerStarted()                 {}
func (NoopRecorder) IncTimerEnded(OutcomeLabel)       {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncStepStarted(string)            {}
func (NoopRecorder) SetRunningTimers(int)             {}
func (NoopRecorder) IncSchedulerFire(string)          {}
func (NoopRecorder) IncBroadcastFailure(string)       {}
