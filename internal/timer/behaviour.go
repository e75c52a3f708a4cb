package timer

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// BehaviourType names a side effect that runs while a step is active.
type BehaviourType string

const (
	BehaviourMusic        BehaviourType = "MUSIC"
	BehaviourVibration    BehaviourType = "VIBRATION"
	BehaviourScreen       BehaviourType = "SCREEN"
	BehaviourHalt         BehaviourType = "HALT"
	BehaviourVoice        BehaviourType = "VOICE"
	BehaviourBeep         BehaviourType = "BEEP"
	BehaviourHalf         BehaviourType = "HALF"
	BehaviourCount        BehaviourType = "COUNT"
	BehaviourNotification BehaviourType = "NOTIFICATION"
	BehaviourFlashlight   BehaviourType = "FLASHLIGHT"
)

var behaviourTypes = []BehaviourType{
	BehaviourMusic, BehaviourVibration, BehaviourScreen, BehaviourHalt, BehaviourVoice,
	BehaviourBeep, BehaviourHalf, BehaviourCount, BehaviourNotification, BehaviourFlashlight,
}

// Valid reports whether t is a known behaviour type.
func (t BehaviourType) Valid() bool {
	return slices.Contains(behaviourTypes, t)
}

// HasBoolValue reports whether the Bool field of a behaviour of this type is meaningful.
func (t BehaviourType) HasBoolValue() bool {
	return t == BehaviourMusic || t == BehaviourBeep
}

// Behaviour is the stored, untyped form of a side effect. Str1, Str2 and Bool are
// interpreted per type; use Action to get the typed view.
type Behaviour struct {
	Type BehaviourType
	Str1 string
	Str2 string
	Bool bool
}

// NewBehaviour returns a behaviour of type t with Bool set to its default.
func NewBehaviour(t BehaviourType) Behaviour {
	return Behaviour{Type: t, Bool: true}
}

// UsesTTS reports whether the behaviour needs the speech engine.
func (b Behaviour) UsesTTS() bool {
	switch b.Type {
	case BehaviourVoice, BehaviourCount:
		return true
	case BehaviourHalf:
		return b.HalfAction().Option == HalfOptionVoice
	default:
		return false
	}
}

// Action is the typed view of a Behaviour.
type Action interface {
	Behaviour() Behaviour
}

// Action decodes b into its typed view. HALT has no parameters and decodes to HaltAction.
func (b Behaviour) Action() Action {
	switch b.Type {
	case BehaviourMusic:
		return b.MusicAction()
	case BehaviourVibration:
		return b.VibrationAction()
	case BehaviourScreen:
		return b.ScreenAction()
	case BehaviourHalt:
		return HaltAction{}
	case BehaviourVoice:
		return b.VoiceAction()
	case BehaviourBeep:
		return b.BeepAction()
	case BehaviourHalf:
		return b.HalfAction()
	case BehaviourCount:
		return b.CountAction()
	case BehaviourNotification:
		return b.NotificationAction()
	case BehaviourFlashlight:
		return b.FlashlightAction()
	default:
		return nil
	}
}

// MusicAction plays an audio resource.
type MusicAction struct {
	Title string
	URI   string
	Loop  bool
}

func (a MusicAction) Behaviour() Behaviour {
	return Behaviour{Type: BehaviourMusic, Str1: a.Title, Str2: a.URI, Bool: a.Loop}
}

func (b Behaviour) MusicAction() MusicAction {
	return MusicAction{Title: b.Str1, URI: b.Str2, Loop: b.Bool}
}

// VibrationPattern is an on/off duration pair played by the vibrator.
type VibrationPattern []time.Duration

var (
	VibrationShort  = VibrationPattern{100 * time.Millisecond, 100 * time.Millisecond}
	VibrationNormal = VibrationPattern{250 * time.Millisecond, 250 * time.Millisecond}
	VibrationLong   = VibrationPattern{500 * time.Millisecond, 500 * time.Millisecond}
)

// VibrationAction vibrates Count times with Pattern, or forever when Count is zero.
type VibrationAction struct {
	Count   int
	Pattern VibrationPattern
}

// VibratorPattern returns the waveform handed to the vibrator. A counted vibration
// starts with a zero delay followed by Count copies of the pattern.
func (a VibrationAction) VibratorPattern() []time.Duration {
	base := a.Pattern
	if len(base) == 0 {
		base = VibrationNormal
	}
	if a.Count == 0 {
		return append([]time.Duration(nil), base...)
	}
	out := make([]time.Duration, 1+len(base)*a.Count)
	for i := 1; i < len(out); i++ {
		out[i] = base[(i-1)%len(base)]
	}
	return out
}

func (a VibrationAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourVibration)
	if a.Count != 0 {
		b.Str1 = strconv.Itoa(a.Count)
	}
	if len(a.Pattern) > 0 && !slices.Equal(a.Pattern, VibrationNormal) {
		parts := make([]string, len(a.Pattern))
		for i, d := range a.Pattern {
			parts[i] = strconv.FormatInt(d.Milliseconds(), 10)
		}
		b.Str2 = strings.Join(parts, " ")
	}
	return b
}

func (b Behaviour) VibrationAction() VibrationAction {
	count, _ := strconv.Atoi(b.Str1)
	pattern := VibrationNormal
	if fields := strings.Fields(b.Str2); len(fields) > 0 {
		parsed := make(VibrationPattern, 0, len(fields))
		for _, f := range fields {
			ms, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				parsed = nil
				break
			}
			parsed = append(parsed, time.Duration(ms)*time.Millisecond)
		}
		switch {
		case slices.Equal(parsed, VibrationShort):
			pattern = VibrationShort
		case slices.Equal(parsed, VibrationLong):
			pattern = VibrationLong
		}
	}
	return VibrationAction{Count: count, Pattern: pattern}
}

// ScreenAction wakes the screen, optionally full screen.
type ScreenAction struct {
	FullScreen bool
}

func (a ScreenAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourScreen)
	b.Str1 = "0"
	if a.FullScreen {
		b.Str1 = "1"
	}
	return b
}

func (b Behaviour) ScreenAction() ScreenAction {
	n, _ := strconv.Atoi(b.Str1)
	return ScreenAction{FullScreen: n == 1}
}

// HaltAction turns the step into an open-ended stopwatch.
type HaltAction struct{}

func (HaltAction) Behaviour() Behaviour { return NewBehaviour(BehaviourHalt) }

// VoiceAction speaks Content (legacy $-replacers) or Content2 (brace variables).
type VoiceAction struct {
	Content  string
	Content2 string
}

func (a VoiceAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourVoice)
	b.Str1, b.Str2 = a.Content, a.Content2
	return b
}

func (b Behaviour) VoiceAction() VoiceAction {
	return VoiceAction{Content: b.Str1, Content2: b.Str2}
}

// BeepAction plays a tone on every tick. Count zero beeps on every tick of the step.
type BeepAction struct {
	Count             int
	SoundIndex        int
	RespectOtherSound bool
}

func (a BeepAction) Behaviour() Behaviour {
	return Behaviour{
		Type: BehaviourBeep,
		Str2: strconv.Itoa(a.Count) + "," + strconv.Itoa(a.SoundIndex),
		Bool: a.RespectOtherSound,
	}
}

func (b Behaviour) BeepAction() BeepAction {
	a := BeepAction{RespectOtherSound: b.Bool}
	parts := strings.Split(b.Str2, ",")
	a.Count, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		a.SoundIndex, _ = strconv.Atoi(parts[1])
	}
	return a
}

const (
	HalfOptionVoice     = 0
	HalfOptionMusic     = 1
	HalfOptionVibration = 2
)

// HalfAction notifies once when half of the step has elapsed.
type HalfAction struct {
	Option int
}

func (a HalfAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourHalf)
	if a.Option != HalfOptionVoice {
		b.Str1 = strconv.Itoa(a.Option)
	}
	return b
}

func (b Behaviour) HalfAction() HalfAction {
	n, err := strconv.Atoi(b.Str1)
	if err != nil {
		n = HalfOptionVoice
	}
	return HalfAction{Option: n}
}

// DefaultCountTimes is how many trailing seconds a count behaviour reads out by default.
const DefaultCountTimes = 5

// CountAction reads out the last Times seconds of a step.
type CountAction struct {
	Times int
	Beep  bool
}

func (a CountAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourCount)
	if a.Times != DefaultCountTimes {
		b.Str1 = strconv.Itoa(a.Times)
	}
	b.Str2 = "0"
	if a.Beep {
		b.Str2 = "1"
	}
	return b
}

func (b Behaviour) CountAction() CountAction {
	times, err := strconv.Atoi(b.Str1)
	if err != nil {
		times = DefaultCountTimes
	}
	beep, _ := strconv.Atoi(b.Str2)
	return CountAction{Times: times, Beep: beep == 1}
}

// NotificationAction shows a notification for Duration seconds, or until dismissed
// when Duration is zero.
type NotificationAction struct {
	Duration int
}

func (a NotificationAction) Behaviour() Behaviour {
	b := NewBehaviour(BehaviourNotification)
	if a.Duration != 0 {
		b.Str1 = strconv.Itoa(a.Duration)
	}
	return b
}

func (b Behaviour) NotificationAction() NotificationAction {
	n, _ := strconv.Atoi(b.Str1)
	return NotificationAction{Duration: n}
}

// DefaultFlashlightStep is the on/off interval of a flashing light.
const DefaultFlashlightStep = 500 * time.Millisecond

// FlashlightAction flashes a light with period Step.
type FlashlightAction struct {
	Step time.Duration
}

func (FlashlightAction) Behaviour() Behaviour { return NewBehaviour(BehaviourFlashlight) }

func (b Behaviour) FlashlightAction() FlashlightAction {
	return FlashlightAction{Step: DefaultFlashlightStep}
}
