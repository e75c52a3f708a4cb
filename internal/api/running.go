package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/stream"
)

// Commands accepted by POST /running/{id}/{command}.
const (
	CommandStart  = "start"
	CommandPause  = "pause"
	CommandReset  = "reset"
	CommandNext   = "next"
	CommandPrev   = "prev"
	CommandAdjust = "adjust"
	CommandMove   = "move"
	CommandEnd    = "end"
)

// CommandRequest is the optional body of a command. Index is used by start and move,
// Amount (a Go duration such as "-30s") by adjust.
type CommandRequest struct {
	Index  string `json:"index,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// CommandResponse reports the timer state after a command. State is nil when the timer is
// no longer loaded.
type CommandResponse struct {
	Command string          `json:"command"`
	TimerID int64           `json:"timer_id"`
	State   *presenter.Info `json:"state,omitempty"`
}

func decodeCommand(r *http.Request) (CommandRequest, error) {
	var req CommandRequest
	if r.Body == nil {
		return req, nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !stderrors.Is(err, io.EOF) {
		return req, errors.ValidationError("invalid request body").WithCause(err).Build()
	}
	return req, nil
}

func parseIndex(raw string) (stream.Index, error) {
	idx, err := stream.ParseIndex(raw)
	if err != nil {
		return stream.Index{}, errors.ValidationError("invalid index").
			WithCause(err).WithContext("index", raw).Build()
	}
	return idx, nil
}

// handleCommand runs one command against a timer.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	command := chi.URLParam(r, "command")
	req, err := decodeCommand(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	s.log.Info("Timer command", logfields.TimerID(id), logfields.Action(command))
	if err := s.runCommand(r, id, command, req); err != nil {
		s.Error(w, r, err)
		return
	}

	resp := CommandResponse{Command: command, TimerID: id}
	info, ok, err := s.deps.Engine.StateInfo(r.Context(), id)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if ok {
		resp.State = &info
	}
	s.Success(w, http.StatusOK, resp)
}

func (s *Server) runCommand(r *http.Request, id int64, command string, req CommandRequest) error {
	ctx := r.Context()
	engine := s.deps.Engine

	switch command {
	case CommandStart:
		if req.Index == "" {
			return engine.StartTimer(ctx, id, nil)
		}
		idx, err := parseIndex(req.Index)
		if err != nil {
			return err
		}
		return engine.StartTimer(ctx, id, &idx)
	case CommandPause:
		return engine.PauseTimer(ctx, id)
	case CommandReset:
		return engine.ResetTimer(ctx, id)
	case CommandNext:
		return engine.IncreTimer(ctx, id)
	case CommandPrev:
		return engine.DecreTimer(ctx, id)
	case CommandAdjust:
		amount := s.deps.AdjustStep
		if req.Amount != "" {
			d, err := time.ParseDuration(req.Amount)
			if err != nil {
				return errors.ValidationError("invalid amount").
					WithCause(err).WithContext("amount", req.Amount).Build()
			}
			amount = d
		}
		return engine.AdjustAmount(ctx, id, amount, s.deps.GoBackOnNotifier)
	case CommandMove:
		if req.Index == "" {
			return errors.ValidationError("move needs an index").WithContext("timer_id", id).Build()
		}
		idx, err := parseIndex(req.Index)
		if err != nil {
			return err
		}
		return engine.MoveTimer(ctx, id, idx)
	case CommandEnd:
		if _, ok, err := engine.StateInfo(ctx, id); err != nil {
			return err
		} else if !ok {
			return errors.NotFoundError("timer is not loaded").WithContext("timer_id", id).Build()
		}
		return engine.ScheduleEnd(ctx, id)
	default:
		return errors.NotFoundError("unknown command").WithContext("command", command).Build()
	}
}

// handleRunning lists the loaded timers.
func (s *Server) handleRunning(w http.ResponseWriter, r *http.Request) {
	infos, err := s.deps.Engine.Running(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if infos == nil {
		infos = []presenter.Info{}
	}
	s.Success(w, http.StatusOK, infos)
}

// handleRunningInfo describes one loaded timer.
func (s *Server) handleRunningInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	info, ok, err := s.deps.Engine.StateInfo(r.Context(), id)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if !ok {
		s.Error(w, r, errors.NotFoundError("timer is not loaded").WithContext("timer_id", id).Build())
		return
	}
	s.Success(w, http.StatusOK, info)
}

func (s *Server) handleStartAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Engine.StartAll(r.Context()); err != nil {
		s.Error(w, r, err)
		return
	}
	s.handleRunning(w, r)
}

// handlePauseAll pauses every running timer and returns the paused ids.
func (s *Server) handlePauseAll(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Engine.PauseAll(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	s.Success(w, http.StatusOK, map[string]any{"paused": ids})
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Engine.StopAll(r.Context()); err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, nil)
}
