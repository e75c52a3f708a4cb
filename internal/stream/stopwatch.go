package stream

import "time"

// Stopwatch counts up until something moves the timer on. It never finishes by itself.
type Stopwatch struct {
	loop  *Loop
	tick  time.Duration
	owner taskOwner

	state     State
	base      time.Duration
	startedAt time.Time

	cancelTick Cancel
}

// NewStopwatch returns a stopwatch that ticks every tick on loop.
func NewStopwatch(loop *Loop, tick time.Duration) *Stopwatch {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Stopwatch{loop: loop, tick: tick, owner: nopOwner{}}
}

func (s *Stopwatch) bind(owner taskOwner) { s.owner = owner }

func (s *Stopwatch) State() State { return s.state }

// Current is the time elapsed over every run of the stopwatch.
func (s *Stopwatch) Current() time.Duration {
	if s.state == Running {
		return s.base + s.loop.Now().Sub(s.startedAt)
	}
	return s.base
}

func (s *Stopwatch) Start() {
	if s.state == Running {
		return
	}
	s.state = Running
	s.startedAt = s.loop.Now()
	s.onTick()
}

// onTick reports and reposts itself, subtracting the time already consumed in the current
// tick so the cadence does not drift.
func (s *Stopwatch) onTick() {
	if s.state != Running {
		return
	}
	s.owner.onTaskTick(s, s.Current())
	if s.state != Running {
		return
	}
	consumed := s.loop.Now().Sub(s.startedAt)
	s.cancelTick = s.loop.PostDelayed(s.tick-consumed%s.tick, s.onTick)
}

func (s *Stopwatch) Pause() {
	if s.state != Running {
		return
	}
	s.base = s.Current()
	s.cancel()
	s.state = Paused
}

func (s *Stopwatch) ForceStop() {
	s.cancel()
	s.state = Reset
	s.base = 0
}

func (s *Stopwatch) Adjust(amount time.Duration, add bool) {
	elapsed := amount
	if add {
		elapsed = s.Current() + amount
	}
	elapsed = max(elapsed, 0)

	if s.state != Running {
		s.base = elapsed
		s.owner.onTaskTick(s, elapsed)
		return
	}
	s.cancel()
	s.base = elapsed
	s.state = Paused
	s.Start()
}

func (s *Stopwatch) cancel() {
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
}
