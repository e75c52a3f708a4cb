package presenter

import (
	"log/slog"
	"slices"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/behaviour"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/metrics"
	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Hooks receives the follow-up work of a finished run. It is called on the loop and must
// hand anything slow to another goroutine.
type Hooks interface {
	RecordStamp(s timer.Stamp)
	TriggerTimer(id int64)
}

type nopHooks struct{}

func (nopHooks) RecordStamp(timer.Stamp) {}
func (nopHooks) TriggerTimer(int64)      {}

// Info describes a loaded timer.
type Info struct {
	TimerID int64         `json:"timer_id"`
	Name    string        `json:"name"`
	RunID   string        `json:"run_id,omitempty"`
	State   stream.State  `json:"state"`
	Index   stream.Index  `json:"index"`
	Step    string        `json:"step"`
	Time    time.Duration `json:"time"`
	BeganAt time.Time     `json:"began_at,omitempty"`
}

// registry holds the loaded timers. It is confined to the loop goroutine.
type registry struct {
	loop     *stream.Loop
	hub      *hub
	log      *slog.Logger
	hooks    Hooks
	recorder metrics.Recorder

	performer behaviour.Performer
	formatter *behaviour.Formatter
	tick      time.Duration
	newRunID  func() string

	timers map[int64]*entry
}

func (r *registry) notRunning(id int64) error {
	return errors.NotFoundError("timer is not loaded").WithContext("timer_id", id).Build()
}

func (r *registry) get(id int64) (*entry, error) {
	e, ok := r.timers[id]
	if !ok {
		return nil, r.notRunning(id)
	}
	return e, nil
}

// load registers t at idx without starting it. A timer already loaded is returned as is.
func (r *registry) load(t *timer.Timer, idx *stream.Index) (*entry, error) {
	if t.FolderID == timer.TrashFolderID {
		return nil, errors.ValidationError("timer is in the trash").WithContext("timer_id", t.ID).Build()
	}
	if idx != nil && !stream.IsValidIndex(t, *idx) {
		return nil, errors.ValidationError("index does not resolve to a step").
			WithContext("timer_id", t.ID).WithContext("index", idx.String()).Build()
	}
	if e, ok := r.timers[t.ID]; ok {
		return e, nil
	}
	e := &entry{r: r, timer: t}
	e.dispatcher = behaviour.NewDispatcher(r.performer, r.formatter, r.loop.Post)
	e.machine = stream.NewMachine(r.loop, t, e, stream.MachineOptions{Tick: r.tick, Index: idx})
	r.timers[t.ID] = e
	r.recorder.SetRunningTimers(len(r.timers))
	r.log.Debug("Timer loaded", logfields.TimerID(t.ID), logfields.TimerName(t.Name))
	return e, nil
}

func (r *registry) unload(e *entry) {
	if r.timers[e.timer.ID] != e {
		return
	}
	delete(r.timers, e.timer.ID)
	r.recorder.SetRunningTimers(len(r.timers))
}

// start loads t if needed, moves it to idx when given, and runs it.
func (r *registry) start(t *timer.Timer, idx *stream.Index) error {
	e, err := r.load(t, idx)
	if err != nil {
		return err
	}
	if idx != nil && *idx != e.machine.CurrentIndex() {
		e.machine.ToIndex(*idx)
	}
	e.machine.Start()
	return nil
}

func (r *registry) pause(id int64) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	e.machine.Pause()
	return nil
}

func (r *registry) move(id int64, idx stream.Index) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	if !e.machine.ToIndex(idx) {
		return errors.ValidationError("index does not resolve to a step").
			WithContext("timer_id", id).WithContext("index", idx.String()).Build()
	}
	return nil
}

// decrement moves one step back, or resets a timer already at its first index.
func (r *registry) decrement(id int64) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	if e.machine.IsAtFirst() {
		r.resetEntry(e)
		return nil
	}
	e.machine.ToIndex(stream.Prev(e.timer, e.machine.CurrentIndex()))
	return nil
}

// increment moves one step forward, or resets a timer already at its last index.
func (r *registry) increment(id int64) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	if e.machine.IsAtLast() {
		r.resetEntry(e)
		return nil
	}
	e.machine.ToIndex(stream.Next(e.timer, e.machine.CurrentIndex()))
	return nil
}

func (r *registry) reset(id int64) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	r.resetEntry(e)
	return nil
}

func (r *registry) resetEntry(e *entry) {
	e.machine.Reset()
	e.dispatcher.Stop()
	r.unload(e)
}

// adjust adds amount to the current step. A positive amount on a notifier step goes back
// one step instead and, when running, gives it one minute.
func (r *registry) adjust(id int64, amount time.Duration, goBackOnNotifier bool) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	step, _ := e.machine.CurrentStep()
	if amount > 0 && goBackOnNotifier && step.Type == timer.StepNotifier && !e.machine.IsAtFirst() {
		e.machine.ToIndex(stream.Prev(e.timer, e.machine.CurrentIndex()))
		if e.machine.State().IsRunning() {
			e.machine.ToOneMinute()
		}
		return nil
	}
	e.machine.Adjust(amount)
	return nil
}

func (r *registry) ids() []int64 {
	ids := make([]int64, 0, len(r.timers))
	for id := range r.timers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *registry) startAll() {
	for _, id := range r.ids() {
		r.timers[id].machine.Start()
	}
}

// pauseAll pauses every running timer and returns their ids.
func (r *registry) pauseAll() []int64 {
	var paused []int64
	for _, id := range r.ids() {
		e := r.timers[id]
		if e.machine.State().IsRunning() {
			e.machine.Pause()
			paused = append(paused, id)
		}
	}
	return paused
}

func (r *registry) stopAll() {
	for _, id := range r.ids() {
		r.resetEntry(r.timers[id])
	}
}

// scheduleEnd jumps to the end step when the timer has one and resets it otherwise.
func (r *registry) scheduleEnd(id int64) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	if e.timer.EndStep != nil && e.machine.Began() {
		e.machine.ToIndex(stream.EndIndex())
		return nil
	}
	r.resetEntry(e)
	return nil
}

func (r *registry) info(id int64) (Info, bool) {
	e, ok := r.timers[id]
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

func (r *registry) running() []Info {
	infos := make([]Info, 0, len(r.timers))
	for _, id := range r.ids() {
		infos = append(infos, r.timers[id].info())
	}
	return infos
}

// entry is one loaded timer. It is the Listener of its machine.
type entry struct {
	r          *registry
	timer      *timer.Timer
	machine    *stream.Machine
	dispatcher *behaviour.Dispatcher

	runID   string
	beganAt time.Time
}

func (e *entry) info() Info {
	step, _ := e.machine.CurrentStep()
	return Info{
		TimerID: e.timer.ID,
		Name:    e.timer.Name,
		RunID:   e.runID,
		State:   e.machine.RunState(),
		Index:   e.machine.CurrentIndex(),
		Step:    step.Label,
		Time:    e.machine.CurrentTime(),
		BeganAt: e.beganAt,
	}
}

func (e *entry) header() Header {
	return Header{TimerID: e.timer.ID, RunID: e.runID, At: e.r.loop.Now()}
}

func (e *entry) emit(ev Event) {
	if dropped := e.r.hub.emit(ev); dropped > 0 {
		e.r.log.Debug("Event dropped by slow subscribers",
			logfields.TimerID(e.timer.ID), logfields.EventType(ev.Kind()), slog.Int("dropped", dropped))
	}
}

func (e *entry) Begin() {
	e.runID = e.r.newRunID()
	e.beganAt = e.r.loop.Now()
	e.r.recorder.IncTimerStarted()
	e.r.log.Info("Timer began", logfields.TimerID(e.timer.ID), logfields.TimerName(e.timer.Name),
		logfields.RunID(e.runID))
	e.emit(Begin{Header: e.header(), Name: e.timer.Name})
}

func (e *entry) Started(i stream.Index) {
	step, _ := stream.StepOf(e.timer, i)
	e.dispatcher.Start(behaviour.Subject{Timer: e.timer, Index: i, Now: e.r.loop.Now()})
	stepType := step.Type
	if stepType == "" {
		stepType = timer.StepNormal
	}
	e.r.recorder.IncStepStarted(string(stepType))
	e.r.log.Debug("Step started", logfields.TimerID(e.timer.ID), logfields.Index(i.String()),
		logfields.Step(step.Label))
	e.emit(Started{Header: e.header(), Index: i, Step: step.Label, Type: step.Type, Length: step.Length})
}

func (e *entry) Moved(i stream.Index) {
	e.dispatcher.Stop()
	e.emit(Moved{Header: e.header(), Index: i})
}

func (e *entry) Paused() {
	e.dispatcher.Stop()
	e.emit(Paused{Header: e.header()})
}

func (e *entry) Updated(current time.Duration) {
	e.emit(Updated{Header: e.header(), Time: current})
}

func (e *entry) Finished() {
	e.emit(Finished{Header: e.header(), Index: e.machine.CurrentIndex()})
}

// End stops the behaviours, records the run when it ended naturally or was stopped on its
// last step, unloads the timer and starts the follow-up timer of a natural end.
func (e *entry) End(forced bool) {
	e.dispatcher.Stop()
	now := e.r.loop.Now()
	ev := End{Header: e.header(), Forced: forced, BeganAt: e.beganAt}

	if !e.beganAt.IsZero() && (!forced || e.machine.IsAtLast()) {
		stamp := timer.Stamp{TimerID: e.timer.ID, Start: e.beganAt, End: now}
		ev.Stamp = &stamp
		e.r.hooks.RecordStamp(stamp)
		e.r.recorder.ObserveRunDuration(stamp.Duration())
	}
	outcome := metrics.OutcomeNatural
	if forced {
		outcome = metrics.OutcomeForced
	}
	e.r.recorder.IncTimerEnded(outcome)
	e.r.log.Info("Timer ended", logfields.TimerID(e.timer.ID), logfields.RunID(e.runID),
		slog.Bool("forced", forced))

	e.r.unload(e)
	e.emit(ev)
	e.runID = ""
	e.beganAt = time.Time{}

	if trigger := e.timer.More.TriggerTimerID; !forced && trigger != timer.NullID {
		e.r.hooks.TriggerTimer(trigger)
	}
}

func (e *entry) Beep() {
	e.dispatcher.Beep()
	e.emit(Beep{Header: e.header()})
}

func (e *entry) Half(option int) {
	e.dispatcher.Half(option)
	e.emit(Half{Header: e.header(), Option: option})
}

func (e *entry) CountRead(content string) {
	e.dispatcher.CountRead(content)
	e.emit(CountRead{Header: e.header(), Content: content})
}
