package config

import (
	"regexp"
	"time"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateLogging,
		c.validateEngine,
		c.validateNATS,
		c.validateMisc,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, message string, value any) error {
	return errors.ConfigError(message).WithContext("field", field).WithContext("value", value).Build()
}

func (c *Config) validateLogging() error {
	if _, ok := logLevelNormalizer.Lookup(string(c.Logging.Level)); !ok {
		return invalid("logging.level", "unknown log level", c.Logging.Level)
	}
	if _, ok := logFormatNormalizer.Lookup(string(c.Logging.Format)); !ok {
		return invalid("logging.format", "unknown log format", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Tick < 10*time.Millisecond || c.Engine.Tick > time.Minute {
		return invalid("engine.tick", "tick must be between 10ms and 1m", c.Engine.Tick.String())
	}
	if c.Engine.AdjustStep <= 0 {
		return invalid("engine.adjust_step", "adjust step must be positive", c.Engine.AdjustStep.String())
	}
	if c.API.ShutdownTimeout < 0 {
		return invalid("api.shutdown_timeout", "shutdown timeout must not be negative", c.API.ShutdownTimeout.String())
	}
	return nil
}

func (c *Config) validateNATS() error {
	r := c.NATS.Retry
	if NormalizeRetryBackoff(string(r.Backoff)) == "" {
		return invalid("nats.retry.backoff", "unknown retry backoff", r.Backoff)
	}
	if r.Initial <= 0 || r.Max <= 0 {
		return invalid("nats.retry", "retry delays must be positive", r.Initial.String())
	}
	if r.MaxRetries < 0 {
		return invalid("nats.retry.max_retries", "max retries must not be negative", r.MaxRetries)
	}
	return nil
}

func (c *Config) validateMisc() error {
	if !metricNamespace.MatchString(c.Metrics.Namespace) {
		return invalid("metrics.namespace", "metrics namespace must be a valid metric name prefix", c.Metrics.Namespace)
	}
	if _, err := c.Schedule.Location(); err != nil {
		return errors.ConfigError("unknown schedule timezone").
			WithCause(err).WithContext("field", "schedule.timezone").WithContext("value", c.Schedule.Timezone).Build()
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return errors.ConfigError("invalid locale").
			WithCause(err).WithContext("field", "locale").WithContext("value", c.Locale).Build()
	}
	return nil
}
