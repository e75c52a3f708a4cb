package config

import "time"

// Default values applied to omitted settings.
const (
	DefaultStoragePath     = "steptimer.db"
	DefaultTick            = time.Second
	DefaultAdjustStep      = time.Minute
	DefaultListen          = "127.0.0.1:8089"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultNamespace       = "steptimer"
	DefaultSubjectPrefix   = "steptimer"
	DefaultKVBucket        = "steptimer_state"
	DefaultLocale          = "en"
	DefaultTimezone        = "Local"

	// APIListenOff as api.listen disables the HTTP API.
	APIListenOff = "off"
)

// ApplyDefaults fills omitted settings. Enumerated values are normalized so "INFO" and
// "info" mean the same; unknown ones are left for Validate to report.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.JournalPath == "" {
		cfg.Storage.JournalPath = cfg.Storage.Path
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	} else if _, ok := logLevelNormalizer.Lookup(string(cfg.Logging.Level)); ok {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	} else if _, ok := logFormatNormalizer.Lookup(string(cfg.Logging.Format)); ok {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}

	if cfg.Engine.Tick == 0 {
		cfg.Engine.Tick = DefaultTick
	}
	if cfg.Engine.AdjustStep == 0 {
		cfg.Engine.AdjustStep = DefaultAdjustStep
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = DefaultListen
	}
	if cfg.API.ShutdownTimeout == 0 {
		cfg.API.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}

	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.NATS.KVBucket == "" {
		cfg.NATS.KVBucket = DefaultKVBucket
	}
	if cfg.NATS.Retry.Backoff == "" {
		cfg.NATS.Retry.Backoff = RetryBackoffExponential
	} else if rb := NormalizeRetryBackoff(string(cfg.NATS.Retry.Backoff)); rb != "" {
		cfg.NATS.Retry.Backoff = rb
	}
	if cfg.NATS.Retry.Initial == 0 {
		cfg.NATS.Retry.Initial = 200 * time.Millisecond
	}
	if cfg.NATS.Retry.Max == 0 {
		cfg.NATS.Retry.Max = 5 * time.Second
	}
	if cfg.NATS.Retry.MaxRetries == 0 {
		cfg.NATS.Retry.MaxRetries = 3
	}

	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = DefaultTimezone
	}
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
}
