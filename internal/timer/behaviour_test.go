package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVibratorPattern(t *testing.T) {
	ms := time.Millisecond

	forever := VibrationAction{Pattern: VibrationNormal}
	assert.Equal(t, []time.Duration{250 * ms, 250 * ms}, forever.VibratorPattern())

	counted := VibrationAction{Count: 2, Pattern: VibrationShort}
	assert.Equal(t, []time.Duration{0, 100 * ms, 100 * ms, 100 * ms, 100 * ms}, counted.VibratorPattern())
}

func TestVibrationActionCodec(t *testing.T) {
	b := Behaviour{Type: BehaviourVibration, Str1: "3", Str2: "500 500", Bool: true}
	a := b.VibrationAction()
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, VibrationLong, a.Pattern)
	assert.Equal(t, b, a.Behaviour())

	// Unknown patterns fall back to normal, which encodes as an empty str2.
	odd := Behaviour{Type: BehaviourVibration, Str2: "1 2 3"}.VibrationAction()
	assert.Equal(t, VibrationNormal, odd.Pattern)
	assert.Empty(t, odd.Behaviour().Str2)
}

func TestTypedActions(t *testing.T) {
	t.Run("beep", func(t *testing.T) {
		a := Behaviour{Type: BehaviourBeep, Str2: "1,5", Bool: false}.BeepAction()
		assert.Equal(t, BeepAction{Count: 1, SoundIndex: 5, RespectOtherSound: false}, a)
		assert.Equal(t, "1,5", a.Behaviour().Str2)

		empty := NewBehaviour(BehaviourBeep).BeepAction()
		assert.Equal(t, BeepAction{RespectOtherSound: true}, empty)
	})

	t.Run("count", func(t *testing.T) {
		assert.Equal(t, CountAction{Times: DefaultCountTimes}, NewBehaviour(BehaviourCount).CountAction())
		a := Behaviour{Type: BehaviourCount, Str1: "3", Str2: "1"}.CountAction()
		assert.Equal(t, CountAction{Times: 3, Beep: true}, a)
		assert.Equal(t, "3", a.Behaviour().Str1)
		assert.Empty(t, CountAction{Times: DefaultCountTimes}.Behaviour().Str1)
	})

	t.Run("half", func(t *testing.T) {
		assert.Equal(t, HalfOptionVoice, NewBehaviour(BehaviourHalf).HalfAction().Option)
		assert.Equal(t, HalfOptionVibration, Behaviour{Type: BehaviourHalf, Str1: "2"}.HalfAction().Option)
		assert.Empty(t, HalfAction{Option: HalfOptionVoice}.Behaviour().Str1)
	})

	t.Run("screen", func(t *testing.T) {
		assert.True(t, Behaviour{Type: BehaviourScreen, Str1: "1"}.ScreenAction().FullScreen)
		assert.False(t, NewBehaviour(BehaviourScreen).ScreenAction().FullScreen)
	})

	t.Run("notification", func(t *testing.T) {
		assert.Equal(t, 30, Behaviour{Type: BehaviourNotification, Str1: "30"}.NotificationAction().Duration)
		assert.Zero(t, NewBehaviour(BehaviourNotification).NotificationAction().Duration)
	})

	t.Run("music", func(t *testing.T) {
		a := MusicAction{Title: "Sun", URI: "file:///sun.ogg", Loop: false}
		assert.Equal(t, a, a.Behaviour().MusicAction())
	})
}

func TestActionDispatchesByType(t *testing.T) {
	cases := map[BehaviourType]any{
		BehaviourMusic:        MusicAction{},
		BehaviourVibration:    VibrationAction{},
		BehaviourScreen:       ScreenAction{},
		BehaviourHalt:         HaltAction{},
		BehaviourVoice:        VoiceAction{},
		BehaviourBeep:         BeepAction{},
		BehaviourHalf:         HalfAction{},
		BehaviourCount:        CountAction{},
		BehaviourNotification: NotificationAction{},
		BehaviourFlashlight:   FlashlightAction{},
	}
	for typ, want := range cases {
		got := NewBehaviour(typ).Action()
		require.NotNil(t, got, typ)
		assert.IsType(t, want, got, typ)
		assert.Equal(t, typ, got.Behaviour().Type)
	}
	assert.Nil(t, Behaviour{Type: "IMAGE"}.Action())
}

func TestUsesTTS(t *testing.T) {
	assert.True(t, NewBehaviour(BehaviourVoice).UsesTTS())
	assert.True(t, NewBehaviour(BehaviourCount).UsesTTS())
	assert.True(t, NewBehaviour(BehaviourHalf).UsesTTS())
	assert.False(t, HalfAction{Option: HalfOptionMusic}.Behaviour().UsesTTS())
	assert.False(t, NewBehaviour(BehaviourMusic).UsesTTS())

	step := Step{Behaviour: []Behaviour{NewBehaviour(BehaviourBeep), NewBehaviour(BehaviourCount)}}
	assert.True(t, step.UsesTTS())
	assert.True(t, step.HasBehaviour(BehaviourBeep))
	assert.False(t, step.HasBehaviour(BehaviourHalt))
}
