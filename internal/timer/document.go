package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

// Step element discriminator values used in stored step lists.
const (
	elementStep  = "step"
	elementGroup = "group"
)

// BehaviourDoc is the serialized form of a Behaviour.
type BehaviourDoc struct {
	Type    BehaviourType `json:"type" yaml:"type"`
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
	Content string        `json:"content,omitempty" yaml:"content,omitempty"`
	Loop    *bool         `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// ElementDoc is the serialized form of a Step or a Group, told apart by StepType.
// Length is in milliseconds; Duration ("1m30s") is accepted when Length is absent.
type ElementDoc struct {
	StepType string `json:"step_type,omitempty" yaml:"step_type,omitempty"`

	Label     string         `json:"label,omitempty" yaml:"label,omitempty"`
	Length    int64          `json:"length,omitempty" yaml:"length,omitempty"`
	Duration  string         `json:"duration,omitempty" yaml:"duration,omitempty"`
	Behaviour []BehaviourDoc `json:"behaviour,omitempty" yaml:"behaviour,omitempty"`
	Type      StepType       `json:"type,omitempty" yaml:"type,omitempty"`

	Name  string       `json:"name,omitempty" yaml:"name,omitempty"`
	Loop  int          `json:"loop,omitempty" yaml:"loop,omitempty"`
	Steps []ElementDoc `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// MoreDoc is the serialized form of More. Default values are omitted.
type MoreDoc struct {
	ShowNotif      *bool `json:"showNotif,omitempty" yaml:"showNotif,omitempty"`
	NotifCount     *bool `json:"notifCount,omitempty" yaml:"notifCount,omitempty"`
	TriggerTimerID int64 `json:"triggerTimerId,omitempty" yaml:"triggerTimerId,omitempty"`
}

// Doc is the serialized form of a Timer, shared by backups, the API and definition files.
type Doc struct {
	ID        int64        `json:"id" yaml:"id,omitempty"`
	Name      string       `json:"name" yaml:"name"`
	Loop      int          `json:"loop" yaml:"loop"`
	Steps     []ElementDoc `json:"steps" yaml:"steps"`
	StartStep *ElementDoc  `json:"startStep,omitempty" yaml:"startStep,omitempty"`
	EndStep   *ElementDoc  `json:"endStep,omitempty" yaml:"endStep,omitempty"`
	More      *MoreDoc     `json:"more,omitempty" yaml:"more,omitempty"`
	FolderID  int64        `json:"folderId,omitempty" yaml:"folderId,omitempty"`
}

// EncodeBehaviour converts b to its document form.
func EncodeBehaviour(b Behaviour) BehaviourDoc {
	d := BehaviourDoc{Type: b.Type, Label: b.Str1, Content: b.Str2}
	if b.Type.HasBoolValue() {
		v := b.Bool
		d.Loop = &v
	}
	return d
}

// Behaviour decodes the document. A missing loop flag defaults to true.
func (d BehaviourDoc) Behaviour() (Behaviour, error) {
	if !d.Type.Valid() {
		return Behaviour{}, errors.ValidationError("unknown behaviour type").
			WithContext("type", string(d.Type)).Build()
	}
	b := Behaviour{Type: d.Type, Str1: d.Label, Str2: d.Content, Bool: true}
	if d.Loop != nil {
		b.Bool = *d.Loop
	}
	return b, nil
}

// EncodeStep converts s to its document form.
func EncodeStep(s Step) ElementDoc {
	d := ElementDoc{
		StepType: elementStep,
		Label:    s.Label,
		Length:   s.Length.Milliseconds(),
		Type:     s.Type,
	}
	for _, b := range s.Behaviour {
		d.Behaviour = append(d.Behaviour, EncodeBehaviour(b))
	}
	return d
}

// EncodeElement converts a Step or Group to its document form.
func EncodeElement(e Element) ElementDoc {
	switch v := e.(type) {
	case Step:
		return EncodeStep(v)
	case Group:
		d := ElementDoc{StepType: elementGroup, Name: v.Name, Loop: v.Loop}
		for _, s := range v.Steps {
			d.Steps = append(d.Steps, EncodeStep(s))
		}
		return d
	default:
		panic(fmt.Sprintf("timer: unknown element %T", e))
	}
}

func (d ElementDoc) isGroup() bool {
	switch d.StepType {
	case elementGroup:
		return true
	case elementStep:
		return false
	default:
		return len(d.Steps) > 0 || (d.Name != "" && d.Label == "")
	}
}

// Step decodes a leaf step document.
func (d ElementDoc) Step() (Step, error) {
	if d.isGroup() {
		return Step{}, errors.ValidationError("groups cannot be nested").
			WithContext("group", d.Name).Build()
	}
	length := time.Duration(d.Length) * time.Millisecond
	if d.Length == 0 && d.Duration != "" {
		parsed, err := time.ParseDuration(d.Duration)
		if err != nil {
			return Step{}, errors.ValidationError("invalid step duration").
				WithCause(err).
				WithContext("step", d.Label).
				WithContext("duration", d.Duration).
				Build()
		}
		length = parsed
	}
	s := Step{Label: d.Label, Length: length, Type: d.Type}
	if s.Type == "" {
		s.Type = StepNormal
	}
	for _, bd := range d.Behaviour {
		b, err := bd.Behaviour()
		if err != nil {
			return Step{}, err
		}
		s.Behaviour = append(s.Behaviour, b)
	}
	return s, nil
}

// Element decodes the document into a Step or a Group.
func (d ElementDoc) Element() (Element, error) {
	if !d.isGroup() {
		return d.Step()
	}
	g := Group{Name: d.Name, Loop: d.Loop}
	for _, sd := range d.Steps {
		s, err := sd.Step()
		if err != nil {
			return nil, err
		}
		g.Steps = append(g.Steps, s)
	}
	return g, nil
}

// EncodeMore returns nil when m holds only defaults.
func EncodeMore(m More) *MoreDoc {
	if m == DefaultMore() {
		return nil
	}
	d := &MoreDoc{TriggerTimerID: m.TriggerTimerID}
	if !m.ShowNotif {
		d.ShowNotif = &m.ShowNotif
	}
	if !m.NotifCount {
		d.NotifCount = &m.NotifCount
	}
	return d
}

// More decodes the document, filling defaults. A nil receiver yields DefaultMore.
func (d *MoreDoc) More() More {
	m := DefaultMore()
	if d == nil {
		return m
	}
	if d.ShowNotif != nil {
		m.ShowNotif = *d.ShowNotif
	}
	if d.NotifCount != nil {
		m.NotifCount = *d.NotifCount
	}
	m.TriggerTimerID = d.TriggerTimerID
	return m
}

// Encode converts t to its document form.
func Encode(t *Timer) Doc {
	d := Doc{
		ID:       t.ID,
		Name:     t.Name,
		Loop:     t.Loop,
		Steps:    make([]ElementDoc, 0, len(t.Steps)),
		More:     EncodeMore(t.More),
		FolderID: t.FolderID,
	}
	for _, e := range t.Steps {
		d.Steps = append(d.Steps, EncodeElement(e))
	}
	if t.StartStep != nil {
		s := EncodeStep(*t.StartStep)
		d.StartStep = &s
	}
	if t.EndStep != nil {
		s := EncodeStep(*t.EndStep)
		d.EndStep = &s
	}
	return d
}

// Timer decodes and validates the document. Start and end steps are retagged START/END.
func (d Doc) Timer() (*Timer, error) {
	t := &Timer{
		ID:       d.ID,
		Name:     d.Name,
		Loop:     d.Loop,
		More:     d.More.More(),
		FolderID: d.FolderID,
	}
	if t.FolderID == NullID {
		t.FolderID = DefaultFolderID
	}
	for _, ed := range d.Steps {
		e, err := ed.Element()
		if err != nil {
			return nil, err
		}
		t.Steps = append(t.Steps, e)
	}
	if d.StartStep != nil {
		s, err := d.StartStep.Step()
		if err != nil {
			return nil, err
		}
		s.Type = StepStart
		t.StartStep = &s
	}
	if d.EndStep != nil {
		s, err := d.EndStep.Step()
		if err != nil {
			return nil, err
		}
		s.Type = StepEnd
		t.EndStep = &s
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MarshalJSON encodes t in the stored document format.
func (t *Timer) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(t))
}

// UnmarshalJSON decodes the stored document format.
func (t *Timer) UnmarshalJSON(data []byte) error {
	var d Doc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	decoded, err := d.Timer()
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// ParseDefinition decodes a timer definition file. YAML is a superset of JSON, so both
// formats are accepted.
func ParseDefinition(data []byte) (*Timer, error) {
	var d Doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.ValidationError("malformed timer definition").WithCause(err).Build()
	}
	return d.Timer()
}

// MarshalSteps encodes a top-level step list for storage.
func MarshalSteps(steps []Element) ([]byte, error) {
	docs := make([]ElementDoc, 0, len(steps))
	for _, e := range steps {
		docs = append(docs, EncodeElement(e))
	}
	return json.Marshal(docs)
}

// UnmarshalSteps decodes a stored top-level step list.
func UnmarshalSteps(data []byte) ([]Element, error) {
	var docs []ElementDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	steps := make([]Element, 0, len(docs))
	for _, d := range docs {
		e, err := d.Element()
		if err != nil {
			return nil, err
		}
		steps = append(steps, e)
	}
	return steps, nil
}

// MarshalStep encodes an optional single step; nil encodes as JSON null.
func MarshalStep(s *Step) ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(EncodeStep(*s))
}

// UnmarshalStep decodes an optional single step.
func UnmarshalStep(data []byte) (*Step, error) {
	var d *ElementDoc
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	s, err := d.Step()
	if err != nil {
		return nil, err
	}
	return &s, nil
}
