package behaviour

import (
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// HalfSpeech is what a voice half behaviour says.
const HalfSpeech = "half way"

// Dispatcher maps step behaviours onto a Performer. It belongs to one running timer and,
// like the engine, is confined to the loop goroutine.
type Dispatcher struct {
	performer Performer
	formatter *Formatter
	post      func(func())

	subject    Subject
	active     bool
	countBeep  bool
	generation uint64
}

// NewDispatcher returns a dispatcher that performs through p. post schedules work back on
// the loop; it is used for callbacks that complete elsewhere, like speech.
func NewDispatcher(p Performer, f *Formatter, post func(func())) *Dispatcher {
	if f == nil {
		f = NewFormatter("")
	}
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &Dispatcher{performer: p, formatter: f, post: post}
}

// Start stops whatever the previous step did and starts the behaviours of the step at s.
//
// Immediate effects go first in a fixed order (screen, vibration, beep, count,
// notification, flashlight). Voice goes last, and music waits for it when both are set.
func (d *Dispatcher) Start(s Subject) {
	d.Stop()
	step, ok := s.Step()
	if !ok {
		return
	}
	d.subject = s
	d.active = true

	p := d.performer
	if b, ok := step.FindBehaviour(timer.BehaviourScreen); ok {
		p.ShowScreen(b.ScreenAction(), s)
	}
	if b, ok := step.FindBehaviour(timer.BehaviourVibration); ok {
		a := b.VibrationAction()
		p.StartVibrating(a.VibratorPattern(), a.Count == 0)
	}
	if b, ok := step.FindBehaviour(timer.BehaviourBeep); ok {
		a := b.BeepAction()
		p.EnableTone(a.SoundIndex, a.Count, a.RespectOtherSound)
	}
	if b, ok := step.FindBehaviour(timer.BehaviourCount); ok {
		if a := b.CountAction(); a.Beep {
			d.countBeep = true
			p.EnableTone(0, 0, false)
		}
	}
	if b, ok := step.FindBehaviour(timer.BehaviourNotification); ok {
		p.ShowNotification(s, time.Duration(b.NotificationAction().Duration)*time.Second)
	}
	if b, ok := step.FindBehaviour(timer.BehaviourFlashlight); ok {
		duration := step.Length
		if step.HasBehaviour(timer.BehaviourHalt) {
			duration = 0
		}
		p.StartFlashlight(b.FlashlightAction(), duration)
	}

	music, hasMusic := step.FindBehaviour(timer.BehaviourMusic)
	if voice, ok := step.FindBehaviour(timer.BehaviourVoice); ok {
		var afterDone func()
		if hasMusic {
			afterDone = d.afterSpeech(func() { p.PlayMusic(music.MusicAction()) })
		}
		p.Speak(d.formatter.RenderVoice(voice.VoiceAction(), s), afterDone)
		return
	}
	if hasMusic {
		p.PlayMusic(music.MusicAction())
	}
}

// afterSpeech runs fn on the loop once speech completes, unless the step changed since.
func (d *Dispatcher) afterSpeech(fn func()) func() {
	gen := d.generation
	return func() {
		d.post(func() {
			if d.active && d.generation == gen {
				fn()
			}
		})
	}
}

// Stop ends every effect of the current step.
func (d *Dispatcher) Stop() {
	d.generation++
	d.countBeep = false
	if !d.active {
		return
	}
	d.active = false
	p := d.performer
	p.StopMusic()
	p.StopVibrating()
	p.CloseScreen()
	p.StopSpeaking()
	p.DisableTone()
	p.DismissNotification()
	p.StopFlashlight()
}

// Beep plays the tone enabled by a beep behaviour.
func (d *Dispatcher) Beep() {
	if d.active {
		d.performer.PlayTone()
	}
}

// Half notifies that half of the step has elapsed.
func (d *Dispatcher) Half(option int) {
	if !d.active {
		return
	}
	step, _ := d.subject.Step()
	switch option {
	case timer.HalfOptionMusic:
		if b, ok := step.FindBehaviour(timer.BehaviourMusic); ok {
			d.performer.PlayMusic(b.MusicAction())
		} else {
			d.performer.PlayTone()
		}
	case timer.HalfOptionVibration:
		// Two normal pulses.
		a := timer.VibrationAction{Count: 2, Pattern: timer.VibrationNormal}
		d.performer.StartVibrating(a.VibratorPattern(), false)
	default:
		d.performer.Speak(HalfSpeech, nil)
	}
}

// CountRead reads content out, or plays a tone when the count beeps. Empty content only
// warms the speech engine up.
func (d *Dispatcher) CountRead(content string) {
	switch {
	case content == "":
		d.performer.WarmUpSpeech()
	case !d.active:
	case d.countBeep:
		d.performer.PlayTone()
	default:
		d.performer.Speak(content, nil)
	}
}
