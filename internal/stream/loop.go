package stream

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrLoopStopped is returned by Call once Run has returned.
var ErrLoopStopped = errors.New("stream: loop stopped")

// Cancel unregisters a delayed callback. Calling it after the callback ran is a no-op.
type Cancel func()

// Loop is a single goroutine event loop. Every engine callback (commands, ticks, task
// completion) runs on it, so engine state needs no locks.
//
// Post and friends are safe from any goroutine. Callbacks run in posting order; delayed
// callbacks run once the clock reaches their deadline, ties broken by posting order.
type Loop struct {
	clock clockwork.Clock

	mu     sync.Mutex
	queue  []func()
	timers delayedHeap
	seq    uint64

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// NewLoop returns a loop driven by clock. A nil clock means the real clock.
func NewLoop(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Clock returns the loop's time source.
func (l *Loop) Clock() clockwork.Clock { return l.clock }

// Now is the loop clock's current time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.notify()
}

// PostAt runs fn on the loop once the clock reaches at.
func (l *Loop) PostAt(at time.Time, fn func()) Cancel {
	l.mu.Lock()
	l.seq++
	d := &delayed{at: at, seq: l.seq, fn: fn}
	heap.Push(&l.timers, d)
	l.mu.Unlock()
	l.notify()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if d.index >= 0 {
			heap.Remove(&l.timers, d.index)
		}
	}
}

// PostDelayed runs fn on the loop after delay.
func (l *Loop) PostDelayed(delay time.Duration, fn func()) Cancel {
	return l.PostAt(l.clock.Now().Add(delay), fn)
}

// Call runs fn on the loop and waits for it. It must not be called from the loop itself.
// When ctx ends first fn may still run later.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	for {
		l.RunPending()

		var (
			timer  clockwork.Timer
			expire <-chan time.Time
		)
		if at, ok := l.nextDeadline(); ok {
			timer = l.clock.NewTimer(at.Sub(l.clock.Now()))
			expire = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-l.wake:
		case <-expire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// RunPending runs every queued callback and every delayed callback that is due, including
// ones they post, and returns how many ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn := l.pop()
		if fn == nil {
			return n
		}
		fn()
		n++
	}
}

// Advance moves a fake clock forward by d, running every callback that falls due on the
// way at its own deadline. It is meant for tests driving a loop that is not running and
// panics unless the loop was built on a *clockwork.FakeClock.
func (l *Loop) Advance(d time.Duration) {
	fc, ok := l.clock.(*clockwork.FakeClock)
	if !ok {
		panic("stream: Advance needs a fake clock")
	}
	target := fc.Now().Add(d)
	for {
		l.RunPending()
		at, ok := l.nextDeadline()
		if !ok || at.After(target) {
			break
		}
		fc.Advance(at.Sub(fc.Now()))
	}
	if rest := target.Sub(fc.Now()); rest > 0 {
		fc.Advance(rest)
	}
	l.RunPending()
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		return fn
	}
	if len(l.timers) > 0 && !l.timers[0].at.After(l.clock.Now()) {
		d := heap.Pop(&l.timers).(*delayed)
		return d.fn
	}
	return nil
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].at, true
}

// Pending reports how many callbacks are queued or waiting for their deadline.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + len(l.timers)
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

type delayed struct {
	at    time.Time
	seq   uint64
	fn    func()
	index int
}

type delayedHeap []*delayed

func (h delayedHeap) Len() int { return len(h) }

func (h delayedHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h delayedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayedHeap) Push(x any) {
	d := x.(*delayed)
	d.index = len(*h)
	*h = append(*h, d)
}

func (h *delayedHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.index = -1
	*h = old[:n-1]
	return d
}
