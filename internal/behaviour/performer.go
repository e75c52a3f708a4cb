// Package behaviour turns the behaviours attached to a step into side effects.
//
// The engine never performs effects itself. A Dispatcher decides what should happen when
// a step starts, stops, reaches half time or counts down, and hands the work to a
// Performer, the headless stand-in for a device's audio, vibrator, screen and speech.
package behaviour

import (
	"time"

	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Performer carries out side effects. Calls arrive on the engine loop and must not block.
type Performer interface {
	PlayMusic(a timer.MusicAction)
	StopMusic()

	StartVibrating(pattern []time.Duration, repeat bool)
	StopVibrating()

	ShowScreen(a timer.ScreenAction, s Subject)
	CloseScreen()

	// Speak says content and calls afterDone once it has been said. afterDone may be
	// called from any goroutine and may be nil.
	Speak(content string, afterDone func())
	// WarmUpSpeech prepares the speech engine for an utterance that is about to come.
	WarmUpSpeech()
	StopSpeaking()

	EnableTone(sound, count int, respectOtherSound bool)
	PlayTone()
	DisableTone()

	// ShowNotification shows the subject; a zero duration stays until dismissed.
	ShowNotification(s Subject, duration time.Duration)
	DismissNotification()

	// StartFlashlight flashes for duration; zero means until stopped.
	StartFlashlight(a timer.FlashlightAction, duration time.Duration)
	StopFlashlight()
}
