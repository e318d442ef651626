package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	output := buf.String()
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("expected debug level in output, got %q", output)
	}
	if !strings.Contains(output, `msg="test message arg"`) {
		t.Errorf("expected formatted message in output, got %q", output)
	}
	if strings.Contains(output, "time=") {
		t.Errorf("expected no timestamp, got %q", output)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Section("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}
}

func TestWarnAndError_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("disk %d%% full", 90)
	Error("boom")

	output := buf.String()
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "disk 90% full") {
		t.Errorf("expected warning in output, got %q", output)
	}
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("expected error in output, got %q", output)
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	With("document", "a.pdf").Warn("skipped")

	if !strings.Contains(buf.String(), "document=a.pdf") {
		t.Errorf("expected attribute in output, got %q", buf.String())
	}
}
