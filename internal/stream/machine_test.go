package stream

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/timer"
	"git.home.luguber.info/inful/steptimer/internal/timer/timertest"
)

// recorder flattens Listener calls into strings.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Begin()                  { r.add("begin") }
func (r *recorder) Started(i Index)         { r.add("started %s", i) }
func (r *recorder) Moved(i Index)           { r.add("moved %s", i) }
func (r *recorder) Paused()                 { r.add("paused") }
func (r *recorder) Updated(d time.Duration) { r.add("updated %s", d) }
func (r *recorder) Finished()               { r.add("finished") }
func (r *recorder) End(forced bool)         { r.add("end forced=%t", forced) }
func (r *recorder) Beep()                   { r.add("beep") }
func (r *recorder) Half(option int)         { r.add("half %d", option) }
func (r *recorder) CountRead(content string) {
	r.add("count %q", content)
}

// only keeps the events starting with one of prefixes.
func (r *recorder) only(prefixes ...string) []string {
	var out []string
	for _, e := range r.events {
		for _, p := range prefixes {
			if strings.HasPrefix(e, p) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

func newTestMachine(tm *timer.Timer, opts MachineOptions) (*Machine, *recorder, *Loop) {
	loop, _ := newTestLoop()
	rec := &recorder{}
	return NewMachine(loop, tm, rec, opts), rec, loop
}

func TestMachineRunsWholeTimer(t *testing.T) {
	tm := timertest.SingleLeaf()
	m, rec, loop := newTestMachine(tm, MachineOptions{})

	m.Start()
	loop.Advance(TotalTime(tm))

	want := []string{
		"begin",
		"started start",
		"finished",
		"started 0.0",
		"finished",
		"started 1.0",
		"finished",
		"started 2.0",
		"finished",
		"started 3.0",
		"finished",
		"started 4.0",
		"finished",
		"started end",
		"finished",
		"end forced=false",
	}
	if diff := cmp.Diff(want, rec.only("begin", "started", "finished", "end")); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Reset, m.RunState())
	assert.Equal(t, StartIndex(), m.CurrentIndex())
	assert.Equal(t, 0, loop.Pending())
}

func TestMachineReportsStartedBeforeUpdates(t *testing.T) {
	m, rec, _ := newTestMachine(timertest.SimpleA(), MachineOptions{})
	m.Start()
	assert.Equal(t, []string{"begin", "started 0.0", "updated 1m0s"}, rec.events)
	assert.Equal(t, Running, m.RunState())
}

func TestMachinePauseAndResume(t *testing.T) {
	m, rec, loop := newTestMachine(timertest.SimpleA(), MachineOptions{})
	m.Start()
	loop.Advance(10 * time.Second)
	m.Pause()
	assert.Equal(t, Paused, m.RunState())
	assert.Equal(t, 50*time.Second, m.CurrentTime())

	rec.reset()
	m.Start()
	assert.Equal(t, []string{"started 0.0", "updated 50s"}, rec.events)
}

func TestMachineInterferePreservesRunState(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		tm := timertest.SimpleB()
		m, rec, loop := newTestMachine(tm, MachineOptions{})
		m.Start()
		loop.Advance(time.Second)

		rec.reset()
		require.True(t, m.ToIndex(StepAt(2, 1)))
		assert.Equal(t, Running, m.State())
		assert.Equal(t, []string{"started 2.1", "updated 5s"}, rec.events)
	})

	t.Run("paused", func(t *testing.T) {
		tm := timertest.SimpleB()
		m, rec, loop := newTestMachine(tm, MachineOptions{})
		m.Start()
		loop.Advance(time.Second)
		m.Pause()

		rec.reset()
		require.True(t, m.ToIndex(StepAt(2, 1)))
		assert.Equal(t, Reset, m.State())
		assert.Equal(t, Paused, m.RunState())
		assert.Equal(t, []string{"moved 2.1", "updated 5s"}, rec.events)

		loop.Advance(time.Minute)
		assert.Len(t, rec.events, 2)

		m.Start()
		assert.Equal(t, Running, m.State())
		assert.Contains(t, rec.events, "started 2.1")
		assert.NotContains(t, rec.events, "begin")
	})

	t.Run("never started", func(t *testing.T) {
		m, _, _ := newTestMachine(timertest.SimpleB(), MachineOptions{})
		require.True(t, m.ToIndex(EndIndex()))
		assert.Equal(t, Reset, m.RunState())
		assert.False(t, m.ToIndex(StepAt(9, 0)))
		assert.Equal(t, EndIndex(), m.CurrentIndex())
	})
}

func TestMachineStopsAtLastIndexWithoutEndStep(t *testing.T) {
	tm := timer.New("Two", 1,
		timer.Step{Label: "one", Length: 2 * time.Second},
		timer.Step{Label: "two", Length: 2 * time.Second},
	)
	m, rec, loop := newTestMachine(tm, MachineOptions{})
	m.Start()
	loop.Advance(4 * time.Second)
	assert.Equal(t, []string{"started 0.0", "started 0.1", "end forced=false"},
		rec.only("started", "end"))
	assert.Nil(t, m.Current())
}

func TestMachineReset(t *testing.T) {
	m, rec, loop := newTestMachine(timertest.SimpleB(), MachineOptions{})

	m.Reset()
	assert.Empty(t, rec.events)

	m.Start()
	loop.Advance(90 * time.Second)
	m.Reset()
	assert.Equal(t, "end forced=true", rec.events[len(rec.events)-1])
	assert.Equal(t, Reset, m.RunState())
	assert.Equal(t, StartIndex(), m.CurrentIndex())
	assert.Equal(t, 0, loop.Pending())
}

func TestMachineAdjust(t *testing.T) {
	m, rec, loop := newTestMachine(timertest.SimpleA(), MachineOptions{})
	m.Start()
	loop.Advance(30 * time.Second)

	rec.reset()
	m.Adjust(15 * time.Second)
	assert.Equal(t, []string{"updated 45s"}, rec.events)

	m.ToOneMinute()
	assert.Equal(t, time.Minute, m.CurrentTime())
}

func TestMachineStartIndexOption(t *testing.T) {
	start := GroupAt(1, 1, 2, 0)
	m, rec, _ := newTestMachine(timertest.Advanced(), MachineOptions{Index: &start})
	m.Start()
	assert.Equal(t, []string{"begin", "started 1.1.2.0"}, rec.only("begin", "started"))

	bogus := StepAt(0, 1)
	m2, _, _ := newTestMachine(timertest.Advanced(), MachineOptions{Index: &bogus})
	assert.Equal(t, StartIndex(), m2.CurrentIndex())
}

func TestMachineHaltRunsStopwatch(t *testing.T) {
	halt := timer.Step{Label: "Hold", Length: time.Minute, Behaviour: []timer.Behaviour{timer.NewBehaviour(timer.BehaviourHalt)}}
	tm := timer.New("Hold", 1, halt, timer.Step{Label: "Rest", Length: time.Second})
	m, rec, loop := newTestMachine(tm, MachineOptions{})

	m.Start()
	loop.Advance(5 * time.Minute)
	assert.Equal(t, StepAt(0, 0), m.CurrentIndex())
	assert.Equal(t, "updated 5m0s", rec.events[len(rec.events)-1])
	assert.NotContains(t, rec.events, "finished")

	require.True(t, m.ToIndex(Next(tm, m.CurrentIndex())))
	loop.Advance(time.Second)
	assert.Equal(t, "end forced=false", rec.events[len(rec.events)-1])
}

func TestMachineTickListeners(t *testing.T) {
	withBehaviour := func(length time.Duration, bs ...timer.Behaviour) *timer.Timer {
		return timer.New("Listeners", 1, timer.Step{Label: "Work", Length: length, Behaviour: bs})
	}

	t.Run("beep every tick", func(t *testing.T) {
		m, rec, loop := newTestMachine(withBehaviour(3*time.Second, timer.NewBehaviour(timer.BehaviourBeep)), MachineOptions{})
		m.Start()
		loop.Advance(3 * time.Second)
		assert.Len(t, rec.only("beep"), 3)
	})

	t.Run("half once", func(t *testing.T) {
		half := timer.HalfAction{Option: timer.HalfOptionMusic}.Behaviour()
		m, rec, loop := newTestMachine(withBehaviour(10*time.Second, half), MachineOptions{})
		m.Start()
		loop.Advance(4 * time.Second)
		assert.Empty(t, rec.only("half"))
		loop.Advance(time.Second)
		assert.Equal(t, []string{"half 1"}, rec.only("half"))
		loop.Advance(5 * time.Second)
		assert.Len(t, rec.only("half"), 1)
	})

	t.Run("count down the last seconds", func(t *testing.T) {
		count := timer.CountAction{Times: 5}.Behaviour()
		m, rec, loop := newTestMachine(withBehaviour(10*time.Second, count), MachineOptions{})
		m.Start()
		loop.Advance(10 * time.Second)
		assert.Equal(t, []string{`count ""`, `count "5"`, `count "4"`, `count "3"`, `count "2"`, `count "1"`},
			rec.only("count"))
	})

	t.Run("count truncates partial seconds", func(t *testing.T) {
		count := timer.CountAction{Times: 5}.Behaviour()
		m, rec, loop := newTestMachine(withBehaviour(10500*time.Millisecond, count), MachineOptions{})
		m.Start()
		loop.Advance(4500 * time.Millisecond)
		assert.Equal(t, []string{`count ""`}, rec.only("count"), "6.5s left warms up")
		loop.Advance(time.Second)
		assert.Equal(t, []string{`count ""`, `count "5"`}, rec.only("count"), "5.5s left reads 5")
		loop.Advance(5 * time.Second)
		assert.Equal(t, []string{`count ""`, `count "5"`, `count "4"`, `count "3"`, `count "2"`, `count "1"`},
			rec.only("count"))
	})

	t.Run("warm up before a speaking step", func(t *testing.T) {
		tm := timer.New("Warm", 1,
			timer.Step{Label: "Quiet", Length: 20 * time.Second},
			timer.Step{Label: "Loud", Length: 5 * time.Second, Behaviour: []timer.Behaviour{timertest.BehaviourVoice}},
		)
		m, rec, loop := newTestMachine(tm, MachineOptions{})
		m.Start()
		loop.Advance(9 * time.Second)
		assert.Empty(t, rec.only("count"))
		loop.Advance(time.Second)
		assert.Equal(t, []string{`count ""`}, rec.only("count"))
		loop.Advance(15 * time.Second)
		assert.Equal(t, []string{`count ""`}, rec.only("count"))
	})
}

func TestMachineZeroLengthStepsFinishThroughLoop(t *testing.T) {
	const loops = 10_000
	tm := timer.New("Rapid", loops, timer.Step{Label: "Blink"})
	m, rec, loop := newTestMachine(tm, MachineOptions{})

	m.Start()
	assert.Equal(t, []string{"started 0.0"}, rec.only("started"), "each finish waits for the loop")
	assert.Empty(t, rec.only("end"))

	loop.RunPending()
	assert.Len(t, rec.only("finished"), loops)
	assert.Equal(t, "end forced=false", rec.events[len(rec.events)-1])
	assert.Equal(t, 0, loop.Pending())
}

func TestManagerWithoutTasks(t *testing.T) {
	m, rec, _ := newTestMachine(timer.New("Empty", 1), MachineOptions{})
	m.Start()
	assert.Equal(t, []string{"begin", "end forced=false"}, rec.events)
	assert.False(t, m.Began())
}
