package stream

import "time"

// Countdown runs for a fixed length and finishes on its own.
//
// Ticks are anchored to the moment the countdown (re)started, so the reported time is
// always a whole number of ticks below the time left at that moment.
type Countdown struct {
	loop  *Loop
	tick  time.Duration
	owner taskOwner

	state     State
	left      time.Duration
	startLeft time.Duration
	startedAt time.Time
	endAt     time.Time

	cancelTick   Cancel
	cancelFinish Cancel
}

// NewCountdown returns a countdown of length that ticks every tick on loop.
func NewCountdown(loop *Loop, length, tick time.Duration) *Countdown {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Countdown{loop: loop, tick: tick, left: max(length, 0), owner: nopOwner{}}
}

func (c *Countdown) bind(owner taskOwner) { c.owner = owner }

func (c *Countdown) State() State { return c.state }

// Current is the time left.
func (c *Countdown) Current() time.Duration {
	if c.state == Running {
		return max(c.endAt.Sub(c.loop.Now()), 0)
	}
	return c.left
}

func (c *Countdown) Start() {
	if c.state == Running {
		return
	}
	c.state = Running
	c.startedAt = c.loop.Now()
	c.startLeft = c.left
	c.endAt = c.startedAt.Add(c.left)

	c.owner.onTaskTick(c, c.left)
	if c.state != Running {
		return
	}
	// Finishing always goes through the loop, never inside Start, even with nothing left.
	c.scheduleTick(1)
	c.cancelFinish = c.loop.PostAt(c.endAt, c.finish)
}

func (c *Countdown) scheduleTick(n int) {
	at := c.startedAt.Add(time.Duration(n) * c.tick)
	if !at.Before(c.endAt) {
		return
	}
	c.cancelTick = c.loop.PostAt(at, func() {
		if c.state != Running {
			return
		}
		c.owner.onTaskTick(c, c.startLeft-time.Duration(n)*c.tick)
		if c.state == Running {
			c.scheduleTick(n + 1)
		}
	})
}

func (c *Countdown) finish() {
	if c.state != Running {
		return
	}
	c.cancel()
	c.state = Reset
	c.left = 0
	c.owner.onTaskDone(c)
}

func (c *Countdown) Pause() {
	if c.state != Running {
		return
	}
	c.left = c.Current()
	c.cancel()
	c.state = Paused
}

func (c *Countdown) ForceStop() {
	c.cancel()
	c.state = Reset
}

func (c *Countdown) Adjust(amount time.Duration, add bool) {
	left := amount
	if add {
		left = c.Current() + amount
	}
	left = max(left, 0)

	if c.state != Running {
		c.left = left
		c.owner.onTaskTick(c, left)
		return
	}
	c.cancel()
	c.left = left
	c.state = Paused
	c.Start()
}

func (c *Countdown) cancel() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
	if c.cancelFinish != nil {
		c.cancelFinish()
		c.cancelFinish = nil
	}
}
