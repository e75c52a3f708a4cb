// Package eventstore journals timer runs and rebuilds run history from the journal.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusStopped   = "stopped"
)

// RunSummary is a read model summarizing a finished or in-progress run.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	TimerID      int64         `json:"timer_id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"` // "running", "completed", "stopped"
	BeganAt      time.Time     `json:"began_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	StepsStarted int           `json:"steps_started"`
	Pauses       int           `json:"pauses"`
	Forced       bool          `json:"forced"`
	Recorded     bool          `json:"recorded"`
}

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from events stored in the journal.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary // runID -> summary
	history  []*RunSummary          // finished runs, newest first
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a new projection backed by the given store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.UnixMilli(0), time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].BeganAt.After(p.history[j].BeganAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:   runID,
			TimerID: event.TimerID(),
			Status:  runStatusRunning,
			BeganAt: event.Timestamp(),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunBegan:
		summary.BeganAt = event.Timestamp()
		var payload RunBeganPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Name = payload.Name
		}

	case TypeStepStarted:
		summary.StepsStarted++

	case TypeRunPaused:
		summary.Pauses++

	case TypeRunEnded:
		ended := event.Timestamp()
		summary.EndedAt = &ended
		summary.Duration = ended.Sub(summary.BeganAt)
		summary.Status = runStatusCompleted
		var payload RunEndedPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Forced = payload.Forced
			summary.Recorded = payload.Recorded
			if payload.Forced {
				summary.Status = runStatusStopped
			}
		}
		p.addToHistoryLocked(summary)
	}
}

// addToHistoryLocked adds a finished run to history if not already present.
func (p *RunHistoryProjection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}
	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked drops finished runs that fell out of the bounded history.
// Caller must hold p.mu (write lock).
func (p *RunHistoryProjection) pruneRunsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.RunID] = struct{}{}
	}
	for id, summary := range p.runs {
		if summary.Status == runStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.runs, id)
		}
	}
}

// GetHistory returns finished runs, newest first. A timerID other than 0 keeps only the
// runs of that timer.
func (p *RunHistoryProjection) GetHistory(timerID int64) []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]RunSummary, 0, len(p.history))
	for _, h := range p.history {
		if timerID != 0 && h.TimerID != timerID {
			continue
		}
		result = append(result, *h)
	}
	return result
}

// GetRun returns the summary for a specific run.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return RunSummary{}, false
	}
	return *summary, true
}

// GetActiveRuns returns the runs that have not ended, oldest first.
func (p *RunHistoryProjection) GetActiveRuns() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var active []RunSummary
	for _, summary := range p.runs {
		if summary.Status == runStatusRunning {
			active = append(active, *summary)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].BeganAt.Equal(active[j].BeganAt) {
			return active[i].RunID < active[j].RunID
		}
		return active[i].BeganAt.Before(active[j].BeganAt)
	})
	return active
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
