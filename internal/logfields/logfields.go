package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTimerID     = "timer_id"
	KeyTimerName   = "timer_name"
	KeyRunID       = "run_id"
	KeyIndex       = "index"
	KeyStep        = "step"
	KeyState       = "state"
	KeySchedulerID = "scheduler_id"
	KeyAction      = "action"
	KeyEventType   = "event_type"
	KeyEffect      = "effect"
	KeyFolderID    = "folder_id"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeySubject     = "subject"
	KeyMethod      = "method"
	KeyStatus      = "status"
	KeyRemoteAddr  = "remote_addr"
	KeyRequestID   = "request_id"
	KeyURL         = "url"
	KeyName        = "name"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func TimerID(id int64) slog.Attr      { return slog.Int64(KeyTimerID, id) }
func TimerName(n string) slog.Attr    { return slog.String(KeyTimerName, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Index(i string) slog.Attr        { return slog.String(KeyIndex, i) }
func Step(label string) slog.Attr     { return slog.String(KeyStep, label) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func SchedulerID(id int64) slog.Attr  { return slog.Int64(KeySchedulerID, id) }
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func EventType(t string) slog.Attr    { return slog.String(KeyEventType, t) }
func Effect(e string) slog.Attr       { return slog.String(KeyEffect, e) }
func FolderID(id int64) slog.Attr     { return slog.Int64(KeyFolderID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
