package audit

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newCaptureLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewLogger(log, true), &buf
}

func TestLogIncludesEventType(t *testing.T) {
	l, buf := newCaptureLogger()

	l.LogLaunch("editor", "Editor", "tester", true, "launched", 10*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, string(EventLaunch)) {
		t.Errorf("output missing event type: %q", out)
	}
	if !strings.Contains(out, "tester") {
		t.Errorf("output missing actor: %q", out)
	}
}

func TestFailureLogsAtErrorLevel(t *testing.T) {
	l, buf := newCaptureLogger()

	l.LogLaunch("editor", "Editor", "tester", false, "boom", time.Millisecond)

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("failure should be journaled at error level: %q", buf.String())
	}
}

func TestDisabledLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)), false)

	l.LogTermination("inst-1", "editor", "graceful", true, time.Second)
	l.LogShutdownAll(3, 2, 1, 0, time.Second)

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %q", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	// Must not panic.
	l.Log(Event{EventType: EventSystemStart})
	l.LogStateChange("inst-1", "editor", "running", "active", "test")
}

func TestUnsafeTargetUsesErrorStatus(t *testing.T) {
	l, buf := newCaptureLogger()

	l.LogUnsafeTarget("inst-1", 42)

	out := buf.String()
	if !strings.Contains(out, string(EventUnsafeTarget)) {
		t.Errorf("output missing unsafe target event: %q", out)
	}
	if !strings.Contains(out, string(StatusError)) {
		t.Errorf("unsafe target should journal with error status: %q", out)
	}
}
