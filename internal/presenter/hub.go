package presenter

import "sync"

// AllTimers subscribes to every timer.
const AllTimers int64 = 0

type subscriber struct {
	timerID int64
	ch      chan Event
}

// hub fans events out to subscribers without ever blocking the sender. A subscriber that
// is not keeping up loses events.
type hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) subscribe(timerID int64, buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	s := &subscriber{timerID: timerID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	h.subs[s] = struct{}{}

	return s.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[s]; ok {
			delete(h.subs, s)
			close(s.ch)
		}
	}
}

// emit returns how many subscribers missed e.
func (h *hub) emit(e Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	id := e.Meta().TimerID
	for s := range h.subs {
		if s.timerID != AllTimers && s.timerID != id {
			continue
		}
		select {
		case s.ch <- e:
		default:
			dropped++
		}
	}
	return dropped
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
	}
	h.subs = nil
}
