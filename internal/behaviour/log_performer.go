package behaviour

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/logfields"
	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Voice is a speech engine.
type Voice interface {
	// Say queues text and calls done once it has been spoken or dropped.
	Say(text string, done func())
	WarmUp()
	// Stop drops what is queued and interrupts the current utterance.
	Stop()
}

// LogPerformer is the performer of a headless host: it logs every effect and hands speech
// to a Voice.
type LogPerformer struct {
	log   *slog.Logger
	voice Voice
}

// NewLogPerformer returns a performer logging to log. With a nil voice, speech is only
// logged and completes right away.
func NewLogPerformer(log *slog.Logger, voice Voice) *LogPerformer {
	if log == nil {
		log = slog.Default()
	}
	return &LogPerformer{log: log, voice: voice}
}

func (p *LogPerformer) effect(name string, attrs ...any) {
	p.log.Info("Behaviour", append([]any{logfields.Effect(name)}, attrs...)...)
}

func (p *LogPerformer) PlayMusic(a timer.MusicAction) {
	p.effect("music", slog.String("title", a.Title), slog.String("uri", a.URI), slog.Bool("loop", a.Loop))
}

func (p *LogPerformer) StopMusic() { p.log.Debug("Behaviour stopped", logfields.Effect("music")) }

func (p *LogPerformer) StartVibrating(pattern []time.Duration, repeat bool) {
	p.effect("vibration", slog.Int("pulses", len(pattern)), slog.Bool("repeat", repeat))
}

func (p *LogPerformer) StopVibrating() { p.log.Debug("Behaviour stopped", logfields.Effect("vibration")) }

func (p *LogPerformer) ShowScreen(a timer.ScreenAction, s Subject) {
	p.effect("screen", slog.Bool("fullscreen", a.FullScreen), logfields.TimerName(s.Timer.Name),
		logfields.Index(s.Index.String()))
}

func (p *LogPerformer) CloseScreen() { p.log.Debug("Behaviour stopped", logfields.Effect("screen")) }

func (p *LogPerformer) Speak(content string, afterDone func()) {
	p.effect("voice", slog.String("content", content))
	if p.voice == nil {
		if afterDone != nil {
			afterDone()
		}
		return
	}
	p.voice.Say(content, afterDone)
}

func (p *LogPerformer) WarmUpSpeech() {
	if p.voice != nil {
		p.voice.WarmUp()
	}
}

func (p *LogPerformer) StopSpeaking() {
	if p.voice != nil {
		p.voice.Stop()
	}
}

func (p *LogPerformer) EnableTone(sound, count int, respectOtherSound bool) {
	p.log.Debug("Tone enabled", slog.Int("sound", sound), slog.Int("count", count),
		slog.Bool("respect_other_sound", respectOtherSound))
}

func (p *LogPerformer) PlayTone() { p.effect("beep") }

func (p *LogPerformer) DisableTone() { p.log.Debug("Tone disabled") }

func (p *LogPerformer) ShowNotification(s Subject, duration time.Duration) {
	step, _ := stream.StepOf(s.Timer, s.Index)
	p.effect("notification", logfields.TimerName(s.Timer.Name), logfields.Step(step.Label),
		slog.Duration("duration", duration))
}

func (p *LogPerformer) DismissNotification() {
	p.log.Debug("Behaviour stopped", logfields.Effect("notification"))
}

func (p *LogPerformer) StartFlashlight(a timer.FlashlightAction, duration time.Duration) {
	p.effect("flashlight", slog.Duration("step", a.Step), slog.Duration("duration", duration))
}

func (p *LogPerformer) StopFlashlight() { p.log.Debug("Behaviour stopped", logfields.Effect("flashlight")) }
