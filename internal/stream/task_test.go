package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingOwner struct {
	ticks []time.Duration
	done  int
}

func (r *recordingOwner) onTaskTick(_ Task, d time.Duration) { r.ticks = append(r.ticks, d) }
func (r *recordingOwner) onTaskDone(Task)                    { r.done++ }

func seconds(ss ...float64) []time.Duration {
	out := make([]time.Duration, len(ss))
	for i, s := range ss {
		out[i] = time.Duration(s * float64(time.Second))
	}
	return out
}

func TestCountdownRunsToCompletion(t *testing.T) {
	loop, _ := newTestLoop()
	owner := &recordingOwner{}
	c := NewCountdown(loop, 3*time.Second, time.Second)
	c.bind(owner)

	c.Start()
	assert.Equal(t, Running, c.State())
	loop.Advance(2 * time.Second)
	assert.Equal(t, seconds(3, 2, 1), owner.ticks)
	assert.Zero(t, owner.done)

	loop.Advance(time.Second)
	assert.Equal(t, 1, owner.done)
	assert.Equal(t, Reset, c.State())
	assert.Equal(t, 0, loop.Pending())
}

func TestCountdownPauseKeepsProgress(t *testing.T) {
	loop, _ := newTestLoop()
	owner := &recordingOwner{}
	c := NewCountdown(loop, 3*time.Second, time.Second)
	c.bind(owner)

	c.Start()
	loop.Advance(1500 * time.Millisecond)
	c.Pause()
	assert.Equal(t, Paused, c.State())
	assert.Equal(t, 1500*time.Millisecond, c.Current())

	loop.Advance(time.Minute)
	assert.Equal(t, seconds(3, 2), owner.ticks)

	c.Start()
	loop.Advance(time.Second)
	assert.Equal(t, seconds(3, 2, 1.5, 0.5), owner.ticks)
	assert.Zero(t, owner.done)
	loop.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, owner.done)
}

func TestCountdownAdjust(t *testing.T) {
	t.Run("add while running", func(t *testing.T) {
		loop, _ := newTestLoop()
		owner := &recordingOwner{}
		c := NewCountdown(loop, 10*time.Second, time.Second)
		c.bind(owner)

		c.Start()
		loop.Advance(2 * time.Second)
		c.Adjust(5*time.Second, true)
		assert.Equal(t, Running, c.State())
		assert.Equal(t, seconds(10, 9, 8, 13), owner.ticks)

		loop.Advance(13 * time.Second)
		assert.Equal(t, 1, owner.done)
	})

	t.Run("set while paused", func(t *testing.T) {
		loop, _ := newTestLoop()
		owner := &recordingOwner{}
		c := NewCountdown(loop, 10*time.Second, time.Second)
		c.bind(owner)

		c.Adjust(time.Minute, false)
		assert.Equal(t, Reset, c.State())
		assert.Equal(t, time.Minute, c.Current())
		assert.Equal(t, seconds(60), owner.ticks)
	})

	t.Run("subtract past zero finishes", func(t *testing.T) {
		loop, _ := newTestLoop()
		owner := &recordingOwner{}
		c := NewCountdown(loop, 10*time.Second, time.Second)
		c.bind(owner)

		c.Start()
		c.Adjust(-time.Minute, true)
		assert.Equal(t, seconds(10, 0), owner.ticks)
		assert.Zero(t, owner.done, "finishing waits for the loop")
		assert.Equal(t, 1, loop.RunPending())
		assert.Equal(t, 1, owner.done)
		assert.Equal(t, 0, loop.Pending())
	})
}

func TestCountdownForceStopSilencesCallbacks(t *testing.T) {
	loop, _ := newTestLoop()
	owner := &recordingOwner{}
	c := NewCountdown(loop, 3*time.Second, time.Second)
	c.bind(owner)

	c.Start()
	c.ForceStop()
	loop.Advance(time.Minute)
	assert.Equal(t, seconds(3), owner.ticks)
	assert.Zero(t, owner.done)
	assert.Equal(t, 0, loop.Pending())
}

func TestStopwatch(t *testing.T) {
	loop, _ := newTestLoop()
	owner := &recordingOwner{}
	s := NewStopwatch(loop, time.Second)
	s.bind(owner)

	s.Start()
	loop.Advance(2500 * time.Millisecond)
	assert.Equal(t, seconds(0, 1, 2), owner.ticks)

	s.Pause()
	assert.Equal(t, 2500*time.Millisecond, s.Current())
	loop.Advance(time.Minute)
	assert.Len(t, owner.ticks, 3)

	s.Start()
	loop.Advance(time.Second)
	assert.Equal(t, seconds(0, 1, 2, 2.5, 3.5), owner.ticks)

	s.Adjust(10*time.Second, false)
	assert.Equal(t, Running, s.State())
	loop.Advance(time.Second)
	assert.Equal(t, seconds(0, 1, 2, 2.5, 3.5, 10, 11), owner.ticks)
	assert.Zero(t, owner.done)

	s.ForceStop()
	assert.Zero(t, s.Current())
	assert.Equal(t, 0, loop.Pending())
}
