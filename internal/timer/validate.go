package timer

import (
	"strings"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

// Validate checks the structural rules every stored timer obeys.
func (t *Timer) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.ValidationError("timer name is required").Build()
	}
	if t.Loop < 0 {
		return errors.ValidationError("timer loop must not be negative").
			WithContext("loop", t.Loop).Build()
	}
	for i, e := range t.Steps {
		switch v := e.(type) {
		case Step:
			if err := validateStep(v); err != nil {
				return err
			}
		case Group:
			if v.Loop < 0 {
				return errors.ValidationError("group loop must not be negative").
					WithContext("group", v.Name).
					WithContext("position", i).
					Build()
			}
			for _, s := range v.Steps {
				if err := validateStep(s); err != nil {
					return err
				}
			}
		default:
			return errors.ValidationError("unknown step element").
				WithContext("position", i).Build()
		}
	}
	for _, s := range []*Step{t.StartStep, t.EndStep} {
		if s == nil {
			continue
		}
		if err := validateStep(*s); err != nil {
			return err
		}
	}
	if t.StartStep != nil && t.StartStep.Type != StepStart {
		return errors.ValidationError("start step must have type START").Build()
	}
	if t.EndStep != nil && t.EndStep.Type != StepEnd {
		return errors.ValidationError("end step must have type END").Build()
	}
	return nil
}

func validateStep(s Step) error {
	if s.Length < 0 {
		return errors.ValidationError("step length must not be negative").
			WithContext("step", s.Label).Build()
	}
	for _, b := range s.Behaviour {
		if !b.Type.Valid() {
			return errors.ValidationError("unknown behaviour type").
				WithContext("step", s.Label).
				WithContext("type", string(b.Type)).
				Build()
		}
	}
	return nil
}
