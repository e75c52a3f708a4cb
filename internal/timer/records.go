package timer

import "time"

const (
	// DefaultFolderID is the folder new timers land in. It cannot be deleted.
	DefaultFolderID int64 = 1
	// TrashFolderID holds deleted timers. Timers in the trash never run.
	TrashFolderID int64 = 2
)

// Folder groups timers.
type Folder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (f Folder) IsDefault() bool { return f.ID == DefaultFolderID }
func (f Folder) IsTrash() bool   { return f.ID == TrashFolderID }

// Stamp records one completed run of a timer.
type Stamp struct {
	ID      int64     `json:"id"`
	TimerID int64     `json:"timerId"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Duration is the wall time the run took, or zero when the start is unknown.
func (s Stamp) Duration() time.Duration {
	if s.Start.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// AppData is everything a backup carries.
type AppData struct {
	Folders    []Folder
	Timers     []*Timer
	Notifier   *Step
	Stamps     []Stamp
	Schedulers []Scheduler
	Prefs      map[string]string
}
