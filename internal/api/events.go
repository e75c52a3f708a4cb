package api

import (
	"fmt"
	"net/http"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 30 * time.Second
)

// handleEvents streams engine events as Server-Sent Events. ?timer=<id> limits the stream
// to one timer. The stream ends when the client goes away or the engine shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	timerID, err := queryID(r, "timer")
	if err != nil {
		s.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering

	events, unsubscribe := s.deps.Engine.Subscribe(timerID, eventBuffer)
	defer unsubscribe()

	s.log.Info("Event stream opened", logfields.TimerID(timerID), logfields.RemoteAddr(r.RemoteAddr))
	s.writeSSE(w, "connected", []byte(`{}`))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Info("Event stream closed (client disconnect)", logfields.TimerID(timerID))
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flush(w)
		case e, ok := <-events:
			if !ok {
				s.log.Info("Event stream closed (engine stopped)", logfields.TimerID(timerID))
				return
			}
			data, err := presenter.MarshalEvent(e)
			if err != nil {
				s.log.Error("Failed to marshal SSE event", logfields.EventType(e.Kind()), logfields.Error(err))
				continue
			}
			s.writeSSE(w, e.Kind(), data)
		}
	}
}

// writeSSE sends one named event in SSE format.
func (s *Server) writeSSE(w http.ResponseWriter, name string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
