// Package speech speaks text through an external text-to-speech command.
//
// A Speaker is built explicitly, started with Start and torn down with Close. One worker
// goroutine plays utterances in order, so a slow engine never blocks the timer loop.
package speech

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
)

// TextPlaceholder in Config.Args is replaced by the text to speak. Without it the text is
// appended as the last argument.
const TextPlaceholder = "{text}"

// Config selects the speech command. An empty Command makes a silent speaker.
type Config struct {
	Command string
	Args    []string
}

// RunFunc speaks text and returns once it has been said or ctx ends.
type RunFunc func(ctx context.Context, text string) error

type utterance struct {
	text string
	done func()
}

// Speaker serialises utterances onto a single worker.
type Speaker struct {
	log *slog.Logger
	run RunFunc

	mu       sync.Mutex
	queue    []utterance
	current  context.CancelFunc
	started  bool
	closed   bool
	stopLoop context.CancelFunc

	wake chan struct{}
	wg   sync.WaitGroup
}

// Option customises a Speaker.
type Option func(*Speaker)

// WithRunner replaces the command runner.
func WithRunner(run RunFunc) Option {
	return func(s *Speaker) { s.run = run }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Speaker) { s.log = log }
}

// New returns a speaker for cfg. It does nothing until Start.
func New(cfg Config, opts ...Option) *Speaker {
	s := &Speaker{log: slog.Default(), wake: make(chan struct{}, 1)}
	s.run = commandRunner(cfg)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func commandRunner(cfg Config) RunFunc {
	if strings.TrimSpace(cfg.Command) == "" {
		return func(context.Context, string) error { return nil }
	}
	return func(ctx context.Context, text string) error {
		args := make([]string, 0, len(cfg.Args)+1)
		placed := false
		for _, a := range cfg.Args {
			if strings.Contains(a, TextPlaceholder) {
				a = strings.ReplaceAll(a, TextPlaceholder, text)
				placed = true
			}
			args = append(args, a)
		}
		if !placed {
			args = append(args, text)
		}
		// #nosec G204 -- the command comes from the operator's configuration.
		out, err := exec.CommandContext(ctx, cfg.Command, args...).CombinedOutput()
		if err != nil && ctx.Err() == nil {
			return errors.RuntimeError("speech command failed").
				WithCause(err).
				WithContext("command", cfg.Command).
				WithContext("output", strings.TrimSpace(string(out))).
				Build()
		}
		return nil
	}
}

// Start launches the worker. It stops when ctx ends or Close is called.
func (s *Speaker) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	ctx, s.stopLoop = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
}

// Close stops the worker and drops whatever is queued.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.stopLoop != nil {
		s.stopLoop()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.Stop()
	return nil
}

// Say queues text. done runs on the worker once the text was spoken or dropped.
func (s *Speaker) Say(text string, done func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if done != nil {
			done()
		}
		return
	}
	s.queue = append(s.queue, utterance{text: text, done: done})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WarmUp is a hint that speech is coming. Command engines start per utterance, so there
// is nothing to prepare.
func (s *Speaker) WarmUp() {
	s.log.Debug("Speech warm-up requested")
}

// Stop drops queued utterances and interrupts the one being spoken.
func (s *Speaker) Stop() {
	s.mu.Lock()
	dropped := s.queue
	s.queue = nil
	if s.current != nil {
		s.current()
	}
	s.mu.Unlock()

	for _, u := range dropped {
		if u.done != nil {
			u.done()
		}
	}
}

// Pending is how many utterances wait to be spoken.
func (s *Speaker) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Speaker) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		u, ok := s.next(ctx)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		if err := s.run(s.begin(ctx), u.text); err != nil {
			s.log.Warn("Speech failed", logfields.Error(err))
		}
		s.finish()
		if u.done != nil {
			u.done()
		}
	}
}

func (s *Speaker) next(ctx context.Context) (utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || len(s.queue) == 0 {
		return utterance{}, false
	}
	u := s.queue[0]
	s.queue = s.queue[1:]
	return u, true
}

func (s *Speaker) begin(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, s.current = context.WithCancel(ctx)
	return ctx
}

func (s *Speaker) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current()
		s.current = nil
	}
}
