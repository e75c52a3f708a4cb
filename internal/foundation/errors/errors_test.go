package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "steptimer.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}
		if file := err.Context()["file"]; file != "steptimer.yaml" {
			t.Errorf("expected context file=steptimer.yaml, got %v", file)
		}
		if got := err.Error(); got != "[config:fatal] invalid configuration" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
		if IsClassified(errors.New("plain")) {
			t.Error("expected plain error to be unclassified")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to count as internal")
		}
	})
}

func TestRetryStrategies(t *testing.T) {
	tests := []struct {
		name  string
		err   *ClassifiedError
		retry bool
	}{
		{"validation needs user action", ValidationError("bad index").Build(), false},
		{"not found needs user action", NotFoundError("timer not found").Build(), false},
		{"store never retries", StoreError("insert failed").Build(), false},
		{"network backs off", NetworkError("publish failed").Build(), true},
		{"filesystem backs off", FileSystemError("write failed").Build(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.CanRetry(); got != tt.retry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.retry)
			}
		})
	}
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("connection refused")
		err := WrapError(originalErr, CategoryNetwork, "broker unreachable").
			Warning().
			Retryable().
			WithContext("url", "nats://localhost:4222").
			Build()

		if err.Severity() != SeverityWarning {
			t.Errorf("expected warning severity, got %s", err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected backoff retry, got %s", err.RetryStrategy())
		}
		if err.Cause() != originalErr {
			t.Error("expected cause to be kept")
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected errors.Is to reach the cause")
		}
	})

	t.Run("Built errors do not share context", func(t *testing.T) {
		b := StoreError("save failed").WithContext("table", "timers")
		first := b.Build()
		second := b.WithContext("id", int64(4)).Build()

		if _, ok := first.Context()["id"]; ok {
			t.Error("expected first error to be unaffected by later builder changes")
		}
		if second.Context()["table"] != "timers" || second.Context()["id"] != int64(4) {
			t.Errorf("unexpected context %v", second.Context())
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := NotFoundError("timer not found").Build()
		withID := base.WithContext("timer_id", int64(9))

		if len(base.Context()) != 0 {
			t.Error("expected base error context to stay empty")
		}
		if withID.Context()["timer_id"] != int64(9) {
			t.Error("expected copy to carry the new key")
		}
	})
}

func TestAsClassifiedFindsWrappedError(t *testing.T) {
	cause := errors.New("disk full")
	inner := StoreError("save timer failed").WithCause(cause).WithContext("timer_id", int64(7)).Build()
	outer := fmt.Errorf("import backup: %w", inner)

	got, ok := AsClassified(outer)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if got.Category() != CategoryStore {
		t.Errorf("expected category %s, got %s", CategoryStore, got.Category())
	}
	if !errors.Is(outer, cause) {
		t.Error("expected chain to reach the cause")
	}
	if !HasCategory(outer, CategoryStore) {
		t.Error("expected HasCategory to look through wrapping")
	}
}

func TestSentinelMatchesByCategoryAndMessage(t *testing.T) {
	sentinel := NotFoundError("timer not found").Build()
	err := NotFoundError("timer not found").WithContext("timer_id", int64(3)).Build()

	if !errors.Is(err, sentinel) {
		t.Error("expected errors built from the same category and message to match")
	}
	if errors.Is(err, NotFoundError("folder not found").Build()) {
		t.Error("expected different messages not to match")
	}
}
