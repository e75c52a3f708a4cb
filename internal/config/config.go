// Package config loads the steptimer configuration file.
//
// The file is YAML. A .env file in the working directory is loaded first and ${VAR}
// references in the YAML are expanded from the environment before decoding. Defaults are
// applied after decoding and the result is validated.
package config

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	// Zone data is embedded so schedule.timezone resolves on hosts without a tz database.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "steptimer.yaml"

// Config represents the application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Engine   EngineConfig   `yaml:"engine"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	NATS     NATSConfig     `yaml:"nats"`
	Speech   SpeechConfig   `yaml:"speech"`
	Schedule ScheduleConfig `yaml:"schedule"`
	// Locale is a BCP 47 tag used when speaking numbers and durations.
	Locale string `yaml:"locale"`
}

// StorageConfig locates the SQLite database. The run journal lives in the same file unless
// JournalPath says otherwise.
type StorageConfig struct {
	Path        string `yaml:"path"`
	JournalPath string `yaml:"journal_path,omitempty"`
}

// LoggingConfig controls the default slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// EngineConfig tunes the execution engine.
type EngineConfig struct {
	// Tick is how often running timers update.
	Tick time.Duration `yaml:"tick"`
	// AdjustStep is the amount added or removed by the +/- commands.
	AdjustStep time.Duration `yaml:"adjust_step"`
	// GoBackOnNotifier makes a positive adjustment on a notifier step go back to the step
	// it announces. Defaults to true.
	GoBackOnNotifier *bool `yaml:"go_back_on_notifier,omitempty"`
}

// GoBack reports the effective GoBackOnNotifier setting.
func (e EngineConfig) GoBack() bool {
	return e.GoBackOnNotifier == nil || *e.GoBackOnNotifier
}

// APIConfig configures the HTTP control API. Listen "off" disables it.
type APIConfig struct {
	Listen string `yaml:"listen"`
	// ShutdownTimeout bounds graceful shutdown of open connections.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Enabled reports whether the API should be served.
func (a APIConfig) Enabled() bool {
	l := strings.TrimSpace(a.Listen)
	return l != "" && l != APIListenOff
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// NATSConfig configures event broadcasting. Broadcasting is off when URL is empty.
type NATSConfig struct {
	URL           string      `yaml:"url"`
	SubjectPrefix string      `yaml:"subject_prefix"`
	KVBucket      string      `yaml:"kv_bucket"`
	Retry         RetryConfig `yaml:"retry"`
}

// Enabled reports whether a NATS server is configured.
func (n NATSConfig) Enabled() bool { return strings.TrimSpace(n.URL) != "" }

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// SpeechConfig configures the text-to-speech command. Speech is only logged when Command
// is empty. An argument equal to "{text}" is replaced with the utterance; without one the
// text is appended as the last argument.
type SpeechConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// ScheduleConfig configures the scheduler service.
type ScheduleConfig struct {
	// Timezone is an IANA zone name, or "Local".
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithCause(err).WithContext("path", configPath).Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).WithContext("path", configPath).Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes, defaults and validates YAML config data. ${VAR} references are expanded
// from the environment first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.ConfigError("failed to parse config").WithCause(err).Build()
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads the first of .env and .env.local that exists. Variables already set in
// the process environment win.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", envPath), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", envPath))
		return
	}
}
