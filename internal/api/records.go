package api

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/eventstore"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// StampRecord is a recorded run as served by /records.
type StampRecord struct {
	ID       int64         `json:"id"`
	TimerID  int64         `json:"timer_id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// handleRecords lists recorded runs. Query: timer=<id>, since=<RFC 3339>, runs=1 for the
// journaled run history instead of stamps.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	timerID, err := queryID(r, "timer")
	if err != nil {
		s.Error(w, r, err)
		return
	}

	if r.URL.Query().Get("runs") != "" {
		if s.deps.Runs == nil {
			s.Error(w, r, errors.NotFoundError("run history is not available").Build())
			return
		}
		runs := s.deps.Runs.GetHistory(timerID)
		if runs == nil {
			runs = []eventstore.RunSummary{}
		}
		s.Success(w, http.StatusOK, runs)
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			s.Error(w, r, errors.ValidationError("invalid since").WithCause(err).WithContext("since", raw).Build())
			return
		}
	}

	stamps, err := s.deps.Stamps.Stamps(r.Context(), timerID, since)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, toRecords(stamps))
}

func toRecords(stamps []timer.Stamp) []StampRecord {
	out := make([]StampRecord, 0, len(stamps))
	for _, st := range stamps {
		out = append(out, StampRecord{
			ID:       st.ID,
			TimerID:  st.TimerID,
			Start:    st.Start,
			End:      st.End,
			Duration: st.Duration(),
		})
	}
	return out
}
