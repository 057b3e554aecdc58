package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("capture")

	var buf bytes.Buffer
	Init(false, &buf)

	logger.Info("connected", "monitor", 0)

	out := buf.String()
	if strings.Contains(out, `msg="INFO connected`) {
		t.Fatalf("unexpected nested severity prefix in message: %s", out)
	}
	if !strings.Contains(out, "msg=connected") {
		t.Fatalf("expected plain connected message, got: %s", out)
	}
	if !strings.Contains(out, "component=capture") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "monitor=0") {
		t.Fatalf("expected monitor field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("render")

	var buf bytes.Buffer
	Init(false, &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug log should be filtered at info level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info log should be emitted: %s", out)
	}
}

func TestDebugEnablesDebugLevel(t *testing.T) {
	logger := L("pacing")

	var buf bytes.Buffer
	Init(true, &buf)

	logger.Debug("visible now")

	out := buf.String()
	if !strings.Contains(out, "visible now") {
		t.Fatalf("debug log should be emitted once debug=true: %s", out)
	}
}
