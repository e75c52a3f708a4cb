// Package api serves the HTTP control surface of the daemon.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/steptimer/internal/eventstore"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/presenter"
	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Engine is the part of the presenter the API drives.
type Engine interface {
	StartTimer(ctx context.Context, id int64, idx *stream.Index) error
	PauseTimer(ctx context.Context, id int64) error
	ResetTimer(ctx context.Context, id int64) error
	IncreTimer(ctx context.Context, id int64) error
	DecreTimer(ctx context.Context, id int64) error
	MoveTimer(ctx context.Context, id int64, idx stream.Index) error
	AdjustAmount(ctx context.Context, id int64, amount time.Duration, goBackOnNotifier bool) error
	ScheduleEnd(ctx context.Context, id int64) error
	StartAll(ctx context.Context) error
	PauseAll(ctx context.Context) ([]int64, error)
	StopAll(ctx context.Context) error
	StateInfo(ctx context.Context, id int64) (presenter.Info, bool, error)
	Running(ctx context.Context) ([]presenter.Info, error)
	Subscribe(timerID int64, buffer int) (<-chan presenter.Event, func())
}

// TimerReader reads stored timers.
type TimerReader interface {
	ListTimers(ctx context.Context, folderID int64) ([]timer.Info, error)
	GetTimer(ctx context.Context, id int64) (*timer.Timer, error)
}

// StampReader reads recorded runs.
type StampReader interface {
	Stamps(ctx context.Context, timerID int64, since time.Time) ([]timer.Stamp, error)
}

// RunHistory reads journaled runs.
type RunHistory interface {
	GetHistory(timerID int64) []eventstore.RunSummary
}

// Deps are the collaborators of a Server. Runs and Metrics are optional.
type Deps struct {
	Engine  Engine
	Timers  TimerReader
	Stamps  StampReader
	Runs    RunHistory
	Metrics http.Handler
	Logger  *slog.Logger

	// AdjustStep is the amount used by adjust requests without one.
	AdjustStep       time.Duration
	GoBackOnNotifier bool
}

// Server represents the API server.
type Server struct {
	Addr   string
	deps   Deps
	log    *slog.Logger
	errs   *errors.HTTPErrorAdapter
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(addr string, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.AdjustStep <= 0 {
		deps.AdjustStep = time.Minute
	}
	s := &Server{
		Addr:   addr,
		deps:   deps,
		log:    log,
		errs:   errors.NewHTTPErrorAdapter(log),
		router: chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Get("/timers", s.handleListTimers)
	s.router.Get("/timers/{id}", s.handleGetTimer)

	// /events is long lived, so only the command routes get a timeout.
	s.router.Route("/running", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/", s.handleRunning)
		r.Post("/start-all", s.handleStartAll)
		r.Post("/pause-all", s.handlePauseAll)
		r.Post("/stop-all", s.handleStopAll)
		r.Get("/{id}", s.handleRunningInfo)
		r.Post("/{id}/{command}", s.handleCommand)
	})

	s.router.Get("/records", s.handleRecords)
	s.router.Get("/events", s.handleEvents)

	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := Response{
		Success: true,
		Data:    data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Error writes err with the status its category maps to.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.WriteErrorResponse(w, r, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
