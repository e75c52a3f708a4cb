package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"TimerName", KeyTimerName, "Tabata", TimerName("Tabata")},
		{"RunID", KeyRunID, "r-1", RunID("r-1")},
		{"Index", KeyIndex, "0.1", Index("0.1")},
		{"Step", KeyStep, "Warm up", Step("Warm up")},
		{"State", KeyState, "running", State("running")},
		{"Action", KeyAction, "start", Action("start")},
		{"EventType", KeyEventType, "timer.begin", EventType("timer.begin")},
		{"Effect", KeyEffect, "music", Effect("music")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Subject", KeySubject, "steptimer.timer.1.begin", Subject("steptimer.timer.1.begin")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"Name", KeyName, "n", Name("n")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := TimerID(434); v.Key != KeyTimerID || v.Value.Int64() != 434 {
		t.Fatalf("TimerID mismatch: %v", v)
	}
	if v := SchedulerID(7); v.Key != KeySchedulerID {
		t.Fatalf("SchedulerID key mismatch: %s", v.Key)
	}
	if v := FolderID(2); v.Key != KeyFolderID {
		t.Fatalf("FolderID key mismatch: %s", v.Key)
	}
	if v := Status(200); v.Key != KeyStatus {
		t.Fatalf("Status key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("err-test"))
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}
