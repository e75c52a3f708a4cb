package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// parseID reads a positive int64 id from the named URL parameter.
func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ValidationError("invalid timer id").WithContext("id", raw).Build()
	}
	return id, nil
}

// queryID reads an optional id from the query; absent means timer.NullID.
func queryID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return timer.NullID, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.ValidationError("invalid " + key).WithContext(key, raw).Build()
	}
	return id, nil
}

// handleListTimers lists stored timers, optionally of one folder (?folder=).
func (s *Server) handleListTimers(w http.ResponseWriter, r *http.Request) {
	folderID, err := queryID(r, "folder")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	infos, err := s.deps.Timers.ListTimers(r.Context(), folderID)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, infos)
}

// handleGetTimer returns a stored timer definition.
func (s *Server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	t, err := s.deps.Timers.GetTimer(r.Context(), id)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, t)
}
