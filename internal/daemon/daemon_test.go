package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	db := filepath.Join(t.TempDir(), "steptimer.db")
	cfg.Storage.Path = db
	cfg.Storage.JournalPath = db
	cfg.API.Listen = ""
	cfg.Metrics.Enabled = true
	return cfg
}

func TestDaemonJournalsRuns(t *testing.T) {
	d, err := New(t.Context(), testConfig(t), Options{})
	require.NoError(t, err)

	id, err := d.Store().AddTimer(t.Context(), timer.New("Intervals", 1,
		timer.Step{Label: "Work", Length: time.Minute, Type: timer.StepNormal},
		timer.Step{Label: "Rest", Length: time.Minute, Type: timer.StepNormal},
	))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-d.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}
	assert.Equal(t, StatusRunning, d.GetStatus())

	require.NoError(t, d.Presenter().StartTimer(ctx, id, nil))
	require.Eventually(t, func() bool {
		return len(d.History().GetActiveRuns()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.Equal(t, StatusStopped, d.GetStatus())

	history := d.History().GetHistory(id)
	require.Len(t, history, 1)
	assert.Equal(t, "Intervals", history[0].Name)
	assert.Equal(t, "stopped", history[0].Status)
	assert.True(t, history[0].Forced)
	assert.Empty(t, d.History().GetActiveRuns())
}

func TestDaemonRejectsSecondRun(t *testing.T) {
	d, err := New(t.Context(), testConfig(t), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	<-d.Ready()

	require.Error(t, d.Run(ctx))

	cancel()
	require.NoError(t, <-done)
}

func TestReloadConfig(t *testing.T) {
	level := new(slog.LevelVar)
	d, err := New(t.Context(), testConfig(t), Options{LevelVar: level})
	require.NoError(t, err)
	t.Cleanup(d.closeStorage)

	next := testConfig(t)
	next.Logging.Level = config.LogLevelDebug
	next.Schedule.Timezone = "Europe/Oslo"
	require.NoError(t, d.ReloadConfig(t.Context(), next))

	assert.Equal(t, slog.LevelDebug, level.Level())
	assert.Same(t, next, d.GetConfig())

	bad := testConfig(t)
	bad.Schedule.Timezone = "Mars/Olympus_Mons"
	require.Error(t, d.ReloadConfig(t.Context(), bad))
	assert.Same(t, next, d.GetConfig())
}

type reloads chan *config.Config

func (r reloads) ReloadConfig(_ context.Context, cfg *config.Config) error {
	r <- cfg
	return nil
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steptimer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	got := make(reloads, 4)
	cw, err := NewConfigWatcher(path, got)
	require.NoError(t, err)
	cw.SetDebounce(20 * time.Millisecond)
	require.NoError(t, cw.Start(t.Context()))
	t.Cleanup(cw.Stop)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	select {
	case cfg := <-got:
		assert.Equal(t, config.LogLevelDebug, cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestConfigWatcherKeepsConfigOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steptimer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	got := make(reloads, 4)
	cw, err := NewConfigWatcher(path, got)
	require.NoError(t, err)
	cw.SetDebounce(20 * time.Millisecond)
	require.NoError(t, cw.Start(t.Context()))
	t.Cleanup(cw.Stop)

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  tick: 1h\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600))

	select {
	case cfg := <-got:
		assert.Equal(t, config.LogLevelWarn, cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after valid write")
	}
}
