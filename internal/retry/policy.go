// Package retry computes backoff delays and retries transient operations.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/steptimer/internal/config"
	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

// maxShift bounds the exponent so the doubling cannot overflow a Duration.
const maxShift = 30

// Policy is a backoff schedule for broker publishes. The zero value is not usable; build
// one with NewPolicy or FromConfig.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first attempt
}

// DefaultPolicy is linear backoff from 1s, capped at 30s, with two retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy overlays the given settings on DefaultPolicy. Non-positive durations, a
// negative retry count and an unknown mode keep the default. Initial is clamped to max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy of a retry config section.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.Initial, rc.Max, rc.MaxRetries)
}

// Delay is the wait before retry n, counting from 1. It is zero for n < 1.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		if n-1 > maxShift {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = p.Initial * time.Duration(n)
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Validate reports a policy that cannot be applied.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.ConfigError("retry initial delay must be positive").
			WithContext("initial", p.Initial.String()).Build()
	case p.Max <= 0:
		return errors.ConfigError("retry max delay must be positive").
			WithContext("max", p.Max.String()).Build()
	case p.MaxRetries < 0:
		return errors.ConfigError("max retries must not be negative").
			WithContext("max_retries", p.MaxRetries).Build()
	}
	return nil
}

// Do calls op until it succeeds, the retries run out or ctx ends, and returns the last
// error. A classified error that does not allow backoff ends the loop at once.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	for n := 1; err != nil && n <= p.MaxRetries; n++ {
		if ce, ok := errors.AsClassified(err); ok && !ce.CanRetry() {
			return err
		}
		if werr := sleep(ctx, p.Delay(n)); werr != nil {
			return werr
		}
		err = op(ctx)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
