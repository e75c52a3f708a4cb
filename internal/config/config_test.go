package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultStoragePath, cfg.Storage.Path)
	assert.Equal(t, DefaultStoragePath, cfg.Storage.JournalPath)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, time.Second, cfg.Engine.Tick)
	assert.Equal(t, time.Minute, cfg.Engine.AdjustStep)
	assert.True(t, cfg.Engine.GoBack())
	assert.Equal(t, DefaultListen, cfg.API.Listen)
	assert.False(t, cfg.NATS.Enabled())
	assert.Equal(t, RetryBackoffExponential, cfg.NATS.Retry.Backoff)
	assert.Equal(t, "en", cfg.Locale)
	require.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	t.Setenv("STEPTIMER_TEST_NATS", "nats://broker:4222")

	cfg, err := Parse([]byte(`
storage:
  path: /var/lib/steptimer/data.db
logging:
  level: DEBUG
  format: json
engine:
  tick: 250ms
  adjust_step: 30s
  go_back_on_notifier: false
nats:
  url: ${STEPTIMER_TEST_NATS}
  retry:
    backoff: Linear
speech:
  command: espeak
  args: ["-v", "de", "{text}"]
schedule:
  timezone: Europe/Oslo
locale: de
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/steptimer/data.db", cfg.Storage.JournalPath)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.Tick)
	assert.Equal(t, 30*time.Second, cfg.Engine.AdjustStep)
	assert.False(t, cfg.Engine.GoBack())
	assert.True(t, cfg.NATS.Enabled())
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, RetryBackoffLinear, cfg.NATS.Retry.Backoff)
	assert.Equal(t, []string{"-v", "de", "{text}"}, cfg.Speech.Args)

	loc, err := cfg.Schedule.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Oslo", loc.String())
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "engine:\n  tik: 1s\n",
		"level":         "logging:\n  level: chatty\n",
		"format":        "logging:\n  format: xml\n",
		"tick":          "engine:\n  tick: 2h\n",
		"adjust":        "engine:\n  adjust_step: -1s\n",
		"backoff":       "nats:\n  retry:\n    backoff: random\n",
		"namespace":     "metrics:\n  namespace: step-timer\n",
		"timezone":      "schedule:\n  timezone: Mars/Olympus\n",
		"locale":        "locale: \"!!\"\n",
		"malformed":     "engine: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
			assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "steptimer.yaml")

	_, err := Load(path)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))

	require.NoError(t, os.WriteFile(path, []byte("locale: fr\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Locale)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steptimer.yaml")

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "the example matches the defaults")

	err = Init(path, false)
	assert.Equal(t, errors.CategoryAlreadyExists, errors.GetCategory(err))
	require.NoError(t, Init(path, true))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	assert.Equal(t, "WARN", NormalizeLogLevel(" Warning ").SlogLevel().String())
	assert.Equal(t, "INFO", LogLevel("bogus").SlogLevel().String())
}

func TestAPIEnabled(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  listen: \"off\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.API.Enabled())

	assert.True(t, Default().API.Enabled())
}
