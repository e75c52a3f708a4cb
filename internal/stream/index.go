package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexKind tells the variants of Index apart.
type IndexKind int

const (
	KindStart IndexKind = iota // The timer's start step
	KindStep                   // A top-level leaf step
	KindGroup                  // A child step inside a group
	KindEnd                    // The timer's end step
)

func (k IndexKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStep:
		return "step"
	case KindGroup:
		return "group"
	case KindEnd:
		return "end"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// GroupPosition is the position inside a group: the group's own loop and the child step.
type GroupPosition struct {
	LoopIndex int `json:"loop_index"`
	StepIndex int `json:"step_index"`
}

// Index is a cursor into a timer's step tree.
//
// LoopIndex counts outer timer loops and StepIndex is the position in the top-level step
// list. Group is only meaningful for KindGroup. Index values are comparable with ==.
type Index struct {
	Kind      IndexKind
	LoopIndex int
	StepIndex int
	Group     GroupPosition
}

// StartIndex points at the start step.
func StartIndex() Index { return Index{Kind: KindStart} }

// EndIndex points at the end step.
func EndIndex() Index { return Index{Kind: KindEnd} }

// StepAt points at the top-level leaf step at stepIndex during outer loop loopIndex.
func StepAt(loopIndex, stepIndex int) Index {
	return Index{Kind: KindStep, LoopIndex: loopIndex, StepIndex: stepIndex}
}

// GroupAt points at child groupStep of the group at stepIndex, during the group's loop
// groupLoop of outer loop loopIndex.
func GroupAt(loopIndex, stepIndex, groupLoop, groupStep int) Index {
	return Index{
		Kind:      KindGroup,
		LoopIndex: loopIndex,
		StepIndex: stepIndex,
		Group:     GroupPosition{LoopIndex: groupLoop, StepIndex: groupStep},
	}
}

func (i Index) IsStart() bool { return i.Kind == KindStart }
func (i Index) IsEnd() bool   { return i.Kind == KindEnd }
func (i Index) IsStep() bool  { return i.Kind == KindStep }
func (i Index) IsGroup() bool { return i.Kind == KindGroup }

// String renders "start", "end", "loop.step" or "loop.step.groupLoop.groupStep".
func (i Index) String() string {
	switch i.Kind {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindStep:
		return fmt.Sprintf("%d.%d", i.LoopIndex, i.StepIndex)
	case KindGroup:
		return fmt.Sprintf("%d.%d.%d.%d", i.LoopIndex, i.StepIndex, i.Group.LoopIndex, i.Group.StepIndex)
	default:
		return i.Kind.String()
	}
}

// ParseIndex is the inverse of Index.String.
func ParseIndex(s string) (Index, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return StartIndex(), nil
	case "end":
		return EndIndex(), nil
	}
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 && len(parts) != 4 {
		return Index{}, fmt.Errorf("invalid index %q", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Index{}, fmt.Errorf("invalid index %q", s)
		}
		nums[i] = n
	}
	if len(nums) == 2 {
		return StepAt(nums[0], nums[1]), nil
	}
	return GroupAt(nums[0], nums[1], nums[2], nums[3]), nil
}

// MarshalText encodes the index in its String form.
func (i Index) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes the String form.
func (i *Index) UnmarshalText(text []byte) error {
	parsed, err := ParseIndex(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
