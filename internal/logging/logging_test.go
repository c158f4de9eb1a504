package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"  error  ", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	w := NewWriter(logger, "minikube")

	n, err := w.Write([]byte("starting cluster\n\npulling images\r\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len("starting cluster\n\npulling images\r\n") {
		t.Errorf("n = %d", n)
	}

	out := buf.String()
	if !strings.Contains(out, "starting cluster") || !strings.Contains(out, "pulling images") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "tool=minikube") {
		t.Errorf("tool attr missing: %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected 2 log lines, got %q", out)
	}
}

func TestWriterNilLogger(t *testing.T) {
	w := NewWriter(nil, "helm")
	if n, err := w.Write([]byte("anything")); err != nil || n != len("anything") {
		t.Errorf("Write = (%d, %v)", n, err)
	}
}
