package behaviour

import (
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/stream"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// Subject is the position a behaviour acts for.
type Subject struct {
	Timer *timer.Timer
	Index stream.Index
	// Now is when the step started; end times are computed from it.
	Now time.Time
}

// Step is the step at the subject's index.
func (s Subject) Step() (timer.Step, bool) {
	return stream.StepOf(s.Timer, s.Index)
}

// Template variables understood in VoiceAction.Content2.
const (
	VarStepName      = "SName"
	VarStepNameNext  = "SNameNext"
	VarStepDuration  = "SDuration"
	VarStepEndTime   = "SEndTime"
	VarTimerName     = "TName"
	VarTimerLoop     = "TLoop"
	VarTimerLoops    = "TTotalLoop"
	VarTimerDuration = "TDuration"
	VarTimerElapsed  = "TElapsed"
	VarTimerElapsedP = "TElapsed%"
	VarTimerRemain   = "TRemaining"
	VarTimerRemainP  = "TRemaining%"
	VarTimerEndTime  = "TEndTime"
	VarGroupName     = "GName"
	VarGroupLoop     = "GLoop"
	VarGroupLoops    = "GTotalLoop"
	VarGroupDuration = "GDuration"
	VarGroupElapsed  = "GElapsed"
	VarGroupElapsedP = "GElapsed%"
	VarGroupRemain   = "GRemaining"
	VarGroupRemainP  = "GRemaining%"
	VarGroupEndTime  = "GEndTime"
	VarClockTime     = "OClockTime"
)

// longNames maps the descriptive spelling of each variable onto its short one.
var longNames = map[string]string{
	"step_name":        VarStepName,
	"step_name_next":   VarStepNameNext,
	"step_duration":    VarStepDuration,
	"step_end_time":    VarStepEndTime,
	"timer_name":       VarTimerName,
	"timer_loop":       VarTimerLoop,
	"timer_loop_total": VarTimerLoops,
	"timer_duration":   VarTimerDuration,
	"timer_elapsed":    VarTimerElapsed,
	"timer_elapsed%":   VarTimerElapsedP,
	"timer_remaining":  VarTimerRemain,
	"timer_remaining%": VarTimerRemainP,
	"timer_end_time":   VarTimerEndTime,
	"group_name":       VarGroupName,
	"group_loop":       VarGroupLoop,
	"group_loop_total": VarGroupLoops,
	"group_duration":   VarGroupDuration,
	"group_elapsed":    VarGroupElapsed,
	"group_elapsed%":   VarGroupElapsedP,
	"group_remaining":  VarGroupRemain,
	"group_remaining%": VarGroupRemainP,
	"group_end_time":   VarGroupEndTime,
	"clock_time":       VarClockTime,
}

// legacyVariables maps the $-prefixed spellings of VoiceAction.Content. Longer names come
// first so that prefixes do not shadow them.
var legacyVariables = []string{
	"$elapsed%_group", VarGroupElapsedP,
	"$elapsed_group", VarGroupElapsed,
	"$remaining%_group", VarGroupRemainP,
	"$remaining_group", VarGroupRemain,
	"$elapsed_in_percent", VarTimerElapsedP,
	"$remaining_in_percent", VarTimerRemainP,
	"$elapsed%", VarTimerElapsedP,
	"$remaining%", VarTimerRemainP,
	"$elapsed", VarTimerElapsed,
	"$remaining", VarTimerRemain,
	"$total_loop", VarTimerLoops,
	"$loop", VarTimerLoop,
	"$step_name", VarStepName,
	"$step_duration", VarStepDuration,
	"$step_end_time", VarStepEndTime,
	"$timer_end_time", VarTimerEndTime,
	"$group_end_time", VarGroupEndTime,
	"$time", VarClockTime,
}

// Variables computes every template variable for s.
func (f *Formatter) Variables(s Subject) map[string]string {
	step, _ := s.Step()
	t := s.Timer
	vars := map[string]string{
		VarStepName:     step.Label,
		VarStepNameNext: "",
		VarStepDuration: f.Duration(step.Length),
		VarStepEndTime:  f.Clock(s.Now.Add(step.Length)),
		VarTimerName:    t.Name,
		VarTimerLoop:    strconv.Itoa(stream.LoopOf(t, s.Index)),
		VarTimerLoops:   strconv.Itoa(t.Loop),
		VarClockTime:    f.Clock(s.Now),
	}
	if s.Index != stream.LastIndex(t) {
		if next, ok := stream.StepOf(t, stream.Next(t, s.Index)); ok {
			vars[VarStepNameNext] = next.Label
		}
	}
	f.progress(vars, "T", t, s.Index, s.Now)

	for _, name := range []string{
		VarGroupName, VarGroupLoop, VarGroupLoops, VarGroupDuration, VarGroupElapsed,
		VarGroupElapsedP, VarGroupRemain, VarGroupRemainP, VarGroupEndTime,
	} {
		vars[name] = ""
	}
	if g, ok := stream.GroupOf(t, s.Index); ok {
		gt := stream.GroupTimer(g)
		inner := stream.InGroupIndex(s.Index)
		vars[VarGroupName] = g.Name
		vars[VarGroupLoop] = strconv.Itoa(stream.LoopOf(gt, inner))
		vars[VarGroupLoops] = strconv.Itoa(g.Loop)
		f.progress(vars, "G", gt, inner, s.Now)
	}
	return vars
}

// progress fills the duration, elapsed, remaining and end time variables of scope.
func (f *Formatter) progress(vars map[string]string, scope string, t *timer.Timer, i stream.Index, now time.Time) {
	total := stream.TotalTime(t)
	elapsed := stream.TimeBeforeIndex(t, i)
	remaining := total - elapsed
	vars[scope+"Duration"] = f.Duration(total)
	vars[scope+"Elapsed"] = f.Duration(elapsed)
	vars[scope+"Elapsed%"] = f.Percent(elapsed, total)
	vars[scope+"Remaining"] = f.Duration(remaining)
	vars[scope+"Remaining%"] = f.Percent(remaining, total)
	vars[scope+"EndTime"] = f.Clock(now.Add(remaining))
}

// RenderVoice returns what a voice behaviour says at s. Content2 wins over Content; with
// neither the step label is spoken.
func (f *Formatter) RenderVoice(a timer.VoiceAction, s Subject) string {
	switch {
	case strings.TrimSpace(a.Content2) != "":
		return RenderTemplate(a.Content2, f.Variables(s))
	case strings.TrimSpace(a.Content) != "":
		return renderLegacy(a.Content, f.Variables(s))
	default:
		step, _ := s.Step()
		return step.Label
	}
}

// RenderTemplate replaces each {name} in tmpl with vars[name], accepting long names too.
// Unknown or unterminated variables are left as written.
func RenderTemplate(tmpl string, vars map[string]string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open+1:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open + 1
		if inner := strings.LastIndexByte(tmpl[open+1:end], '{'); inner >= 0 {
			open += inner + 1
		}

		b.WriteString(tmpl[:open])
		name := tmpl[open+1 : end]
		if short, ok := longNames[name]; ok {
			name = short
		}
		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[open : end+1])
		}
		tmpl = tmpl[end+1:]
	}
}

func renderLegacy(content string, vars map[string]string) string {
	pairs := make([]string, len(legacyVariables))
	for i := 0; i < len(legacyVariables); i += 2 {
		pairs[i] = legacyVariables[i]
		pairs[i+1] = vars[legacyVariables[i+1]]
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
