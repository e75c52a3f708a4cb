package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
	"git.home.luguber.info/inful/steptimer/internal/timer/timertest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.Context(), filepath.Join(t.TempDir(), "steptimer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsFolders(t *testing.T) {
	s := openTestStore(t)
	folders, err := s.Folders(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []timer.Folder{
		{ID: timer.DefaultFolderID, Name: DefaultFolderName},
		{ID: timer.TrashFolderID, Name: TrashFolderName},
	}, folders)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steptimer.db")
	ctx := t.Context()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	id, err := s.AddTimer(ctx, timertest.SimpleA())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetTimer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Timer Alpha", got.Name)

	folders, err := s.Folders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 2, "seeding is idempotent")
}

func TestTimerRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	for _, tm := range []*timer.Timer{timertest.SimpleA(), timertest.SimpleB(), timertest.Advanced(), timertest.WithEmptyGroups()} {
		t.Run(tm.Name, func(t *testing.T) {
			id, err := s.AddTimer(ctx, tm)
			require.NoError(t, err)

			got, err := s.GetTimer(ctx, id)
			require.NoError(t, err)
			want := tm.Clone()
			want.ID = id
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("stored timer differs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveAndMoveTimer(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	id, err := s.AddTimer(ctx, timertest.SimpleA())
	require.NoError(t, err)
	tm, err := s.GetTimer(ctx, id)
	require.NoError(t, err)

	tm.Name = "Renamed"
	tm.More.TriggerTimerID = 9
	require.NoError(t, s.SaveTimer(ctx, tm))

	folder, err := s.AddFolder(ctx, "Work")
	require.NoError(t, err)
	require.NoError(t, s.ChangeFolder(ctx, id, folder))

	got, err := s.GetTimer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(9), got.More.TriggerTimerID)
	assert.Equal(t, folder, got.FolderID)

	infos, err := s.ListTimers(ctx, folder)
	require.NoError(t, err)
	assert.Equal(t, []timer.Info{{ID: id, Name: "Renamed", FolderID: folder}}, infos)

	err = s.ChangeFolder(ctx, id, 999)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))

	tm.Name = ""
	err = s.SaveTimer(ctx, tm)
	assert.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
}

func TestMissingRows(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.GetTimer(ctx, 42)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(s.DeleteTimer(ctx, 42)))
	_, err = s.GetScheduler(ctx, 42)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(s.RenameFolder(ctx, 42, "x")))

	missing := timertest.SimpleA()
	missing.ID = 42
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(s.SaveTimer(ctx, missing)))
}

func TestDeleteFolderTrashesTimers(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	folder, err := s.AddFolder(ctx, "Gym")
	require.NoError(t, err)
	tm := timertest.SimpleA()
	tm.FolderID = folder
	id, err := s.AddTimer(ctx, tm)
	require.NoError(t, err)
	other, err := s.AddTimer(ctx, timertest.SimpleB())
	require.NoError(t, err)

	require.NoError(t, s.DeleteFolder(ctx, folder))
	got, err := s.GetTimer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, timer.TrashFolderID, got.FolderID)

	visible, err := s.ListTimers(ctx, timer.NullID)
	require.NoError(t, err)
	require.Len(t, visible, 1, "trashed timers are hidden from the full listing")
	assert.Equal(t, other, visible[0].ID)

	for _, builtin := range []int64{timer.DefaultFolderID, timer.TrashFolderID} {
		err := s.DeleteFolder(ctx, builtin)
		assert.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
	}
	_, err = s.AddFolder(ctx, " ")
	assert.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
}

func TestSchedulers(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	a, b := timertest.SchedulerA(), timertest.SchedulerB()
	idA, err := s.AddScheduler(ctx, a)
	require.NoError(t, err)
	idB, err := s.AddScheduler(ctx, b)
	require.NoError(t, err)

	got, err := s.GetScheduler(ctx, idA)
	require.NoError(t, err)
	a.ID = idA
	assert.Equal(t, a, got)

	enabled, err := s.Schedulers(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, idB, enabled[0].ID)
	assert.Equal(t, 42, timer.DaysToEveryDay(enabled[0].Days))

	require.NoError(t, s.SetSchedulerEnable(ctx, idA, true))
	all, err := s.Schedulers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got.Hour = 7
	require.NoError(t, s.SaveScheduler(ctx, got))
	got, err = s.GetScheduler(ctx, idA)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Hour)

	got.Minute = 75
	assert.Equal(t, errors.CategoryValidation, errors.GetCategory(s.SaveScheduler(ctx, got)))

	require.NoError(t, s.DeleteScheduler(ctx, idB))
	all, err = s.Schedulers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteTimerRemovesRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	id, err := s.AddTimer(ctx, timertest.SimpleA())
	require.NoError(t, err)
	sc := timertest.SchedulerA()
	sc.TimerID = id
	_, err = s.AddScheduler(ctx, sc)
	require.NoError(t, err)
	_, err = s.AddStamp(ctx, timer.Stamp{TimerID: id, Start: time.UnixMilli(1000), End: time.UnixMilli(5000)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTimer(ctx, id))
	scheds, err := s.Schedulers(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, scheds)
	stamps, err := s.Stamps(ctx, timer.NullID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, stamps)
}

func TestStamps(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	for i, timerID := range []int64{1, 2, 1} {
		start := base.Add(time.Duration(i) * time.Hour)
		_, err := s.AddStamp(ctx, timer.Stamp{TimerID: timerID, Start: start, End: start.Add(10 * time.Minute)})
		require.NoError(t, err)
	}

	all, err := s.Stamps(ctx, timer.NullID, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, base, all[0].Start)
	assert.Equal(t, 10*time.Minute, all[0].Duration())

	recent, err := s.Stamps(ctx, 1, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, base.Add(2*time.Hour), recent[0].Start)

	_, err = s.AddStamp(ctx, timer.Stamp{TimerID: 1, Start: base, End: base.Add(-time.Second)})
	assert.Equal(t, errors.CategoryValidation, errors.GetCategory(err))
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	step, err := s.Notifier(ctx)
	require.NoError(t, err)
	assert.Nil(t, step)

	notifier := timertest.StepB()
	require.NoError(t, s.SetNotifier(ctx, &notifier))
	step, err = s.Notifier(ctx)
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, notifier, *step)

	require.NoError(t, s.SetNotifier(ctx, nil))
	step, err = s.Notifier(ctx)
	require.NoError(t, err)
	assert.Nil(t, step)

	require.NoError(t, s.SetPref(ctx, "locale", "en"))
	require.NoError(t, s.SetPref(ctx, "locale", "de"))
	require.NoError(t, s.SetPref(ctx, "adjust", "60"))
	prefs, err := s.Prefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"locale": "de", "adjust": "60"}, prefs)
}

func TestSnapshotAndRestore(t *testing.T) {
	src := openTestStore(t)
	ctx := t.Context()

	folder, err := src.AddFolder(ctx, "Sport")
	require.NoError(t, err)
	follow := timertest.SimpleB()
	follow.FolderID = folder
	followID, err := src.AddTimer(ctx, follow)
	require.NoError(t, err)
	first := timertest.SimpleA()
	first.More.TriggerTimerID = followID
	firstID, err := src.AddTimer(ctx, first)
	require.NoError(t, err)

	sc := timertest.SchedulerB()
	sc.TimerID = firstID
	_, err = src.AddScheduler(ctx, sc)
	require.NoError(t, err)
	_, err = src.AddStamp(ctx, timer.Stamp{TimerID: followID, Start: time.UnixMilli(1000), End: time.UnixMilli(2000)})
	require.NoError(t, err)
	notifier := timertest.StepA()
	require.NoError(t, src.SetNotifier(ctx, &notifier))
	require.NoError(t, src.SetPref(ctx, "locale", "fr"))

	data, err := src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Folders, 3)
	assert.Len(t, data.Timers, 2)

	dst := openTestStore(t)
	// Occupy the first ids so the restored ones have to move.
	_, err = dst.AddTimer(ctx, timertest.SingleLeaf())
	require.NoError(t, err)
	_, err = dst.AddFolder(ctx, "Existing")
	require.NoError(t, err)

	result, err := dst.Restore(ctx, data, false)
	require.NoError(t, err)
	assert.Equal(t, RestoreResult{Folders: 1, Timers: 2, Schedulers: 1, Stamps: 1}, result)

	infos, err := dst.ListTimers(ctx, timer.NullID)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	newFollow, newFirst := infos[1], infos[2]
	assert.Equal(t, "Timer Bravo", newFollow.Name)
	assert.NotEqual(t, folder, newFollow.FolderID)

	restored, err := dst.GetTimer(ctx, newFirst.ID)
	require.NoError(t, err)
	assert.Equal(t, newFollow.ID, restored.More.TriggerTimerID)

	scheds, err := dst.Schedulers(ctx, false)
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	assert.Equal(t, newFirst.ID, scheds[0].TimerID)

	stamps, err := dst.Stamps(ctx, newFollow.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, stamps, 1)

	step, err := dst.Notifier(ctx)
	require.NoError(t, err)
	assert.Equal(t, notifier, *step)

	result, err = dst.Restore(ctx, data, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Timers)
	infos, err = dst.ListTimers(ctx, timer.NullID)
	require.NoError(t, err)
	assert.Len(t, infos, 2, "wiping drops what was there before")
}
