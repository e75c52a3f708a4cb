package timer_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
	"git.home.luguber.info/inful/steptimer/internal/timer/timertest"
)

const storedTimer = `{
  "id": 3,
  "name": "Workout",
  "loop": 2,
  "steps": [
    {"step_type": "step", "label": "Warm", "length": 30000,
     "behaviour": [{"type": "BEEP", "content": "0,1", "loop": false}, {"type": "VOICE"}],
     "type": "NORMAL"},
    {"step_type": "group", "name": "Sets", "loop": 3,
     "steps": [{"step_type": "step", "label": "Push", "length": 10000, "type": "NORMAL"}]}
  ],
  "endStep": {"step_type": "step", "label": "Done", "length": 5000, "type": "END"},
  "more": {"showNotif": false},
  "folderId": 1
}`

func TestDecodeStoredTimer(t *testing.T) {
	var got timer.Timer
	require.NoError(t, json.Unmarshal([]byte(storedTimer), &got))

	want := timer.Timer{
		ID:   3,
		Name: "Workout",
		Loop: 2,
		Steps: []timer.Element{
			timer.Step{
				Label:  "Warm",
				Length: 30 * time.Second,
				Behaviour: []timer.Behaviour{
					{Type: timer.BehaviourBeep, Str2: "0,1", Bool: false},
					{Type: timer.BehaviourVoice, Bool: true},
				},
				Type: timer.StepNormal,
			},
			timer.Group{Name: "Sets", Loop: 3, Steps: []timer.Step{
				{Label: "Push", Length: 10 * time.Second, Type: timer.StepNormal},
			}},
		},
		EndStep:  &timer.Step{Label: "Done", Length: 5 * time.Second, Type: timer.StepEnd},
		More:     timer.More{ShowNotif: false, NotifCount: true},
		FolderID: timer.DefaultFolderID,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded timer mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeOmitsDefaults(t *testing.T) {
	doc := timer.Encode(timertest.SimpleA())
	assert.Nil(t, doc.More)
	assert.Nil(t, doc.StartStep)

	voice := timer.EncodeBehaviour(timertest.BehaviourVoice)
	assert.Nil(t, voice.Loop, "only music and beep carry the loop flag")
	music := timer.EncodeBehaviour(timertest.BehaviourMusic)
	require.NotNil(t, music.Loop)
	assert.False(t, *music.Loop)

	raw, err := json.Marshal(timertest.SimpleB())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"more":{"showNotif":false}`)
	assert.Contains(t, string(raw), `"step_type":"step"`)
}

func TestParseDefinitionYAML(t *testing.T) {
	def := []byte(`
name: Tabata
loop: 8
startStep:
  label: Get ready
  duration: 10s
steps:
  - label: Work
    duration: 20s
    behaviour:
      - type: COUNT
        label: "3"
  - label: Rest
    length: 10000
    behaviour:
      - type: HALT
`)
	tm, err := timer.ParseDefinition(def)
	require.NoError(t, err)
	assert.Equal(t, "Tabata", tm.Name)
	require.NotNil(t, tm.StartStep)
	assert.Equal(t, timer.StepStart, tm.StartStep.Type)
	assert.Equal(t, 10*time.Second, tm.StartStep.Length)
	require.Len(t, tm.Steps, 2)
	work := tm.Steps[0].(timer.Step)
	assert.Equal(t, 20*time.Second, work.Length)
	assert.Equal(t, 3, work.Behaviour[0].CountAction().Times)
	assert.True(t, tm.Steps[1].(timer.Step).HasBehaviour(timer.BehaviourHalt))
}

func TestParseDefinitionRejects(t *testing.T) {
	tests := map[string]string{
		"nested group":     "name: x\nloop: 1\nsteps:\n  - step_type: group\n    name: g\n    loop: 1\n    steps:\n      - step_type: group\n        name: inner\n",
		"unknown type":     "name: x\nloop: 1\nsteps:\n  - label: a\n    behaviour:\n      - type: IMAGE\n",
		"negative loop":    "name: x\nloop: -1\nsteps: []\n",
		"missing name":     "loop: 1\nsteps: []\n",
		"bad duration":     "name: x\nloop: 1\nsteps:\n  - label: a\n    duration: soon\n",
		"negative length":  "name: x\nloop: 1\nsteps:\n  - label: a\n    length: -5\n",
		"not a definition": "- just\n- a list\n",
	}
	for name, def := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := timer.ParseDefinition([]byte(def))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation), err.Error())
		})
	}
}

func TestStepListStorage(t *testing.T) {
	adv := timertest.Advanced()
	raw, err := timer.MarshalSteps(adv.Steps)
	require.NoError(t, err)
	steps, err := timer.UnmarshalSteps(raw)
	require.NoError(t, err)
	if diff := cmp.Diff(adv.Steps, steps); diff != "" {
		t.Fatalf("step list mismatch (-want +got):\n%s", diff)
	}

	none, err := timer.MarshalStep(nil)
	require.NoError(t, err)
	s, err := timer.UnmarshalStep(none)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCloneIsDeep(t *testing.T) {
	orig := timertest.Advanced()
	c := orig.Clone()
	c.StartStep.Label = "changed"
	g := c.Steps[1].(timer.Group)
	g.Steps[1].Label = "changed"

	assert.Equal(t, "Step Alpha", orig.StartStep.Label)
	assert.Equal(t, "Step Bravo", orig.Steps[1].(timer.Group).Steps[1].Label)
}
