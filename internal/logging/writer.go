package logging

import (
	"log/slog"
	"strings"
)

// Writer is an io.Writer implementation that forwards external tool output to slog.
type Writer struct {
	logger *slog.Logger
	tool   string
}

// NewWriter constructs a Writer bound to the provided logger and tool name.
func NewWriter(logger *slog.Logger, tool string) *Writer {
	return &Writer{logger: logger, tool: tool}
}

// Write logs the given bytes line by line at info level.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(string(p), "\n") {
			line = strings.TrimRight(line, "\r")
			if line != "" {
				w.logger.Info(line, "tool", w.tool)
			}
		}
	}
	return len(p), nil
}
