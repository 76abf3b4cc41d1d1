package logging

import (
	"log/slog"
	"strings"
)

// ToolWriter is an io.Writer that forwards external tool output to slog.
type ToolWriter struct {
	logger *slog.Logger
	tool   string
}

// NewToolWriter constructs a ToolWriter bound to the provided logger and tool name.
func NewToolWriter(logger *slog.Logger, tool string) *ToolWriter {
	return &ToolWriter{logger: logger, tool: tool}
}

// Write logs each non-empty line at debug level, tagged with the tool name.
func (w *ToolWriter) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line != "" {
				w.logger.Debug("tool output", "tool", w.tool, "line", line)
			}
		}
	}
	return len(p), nil
}
