// Package logging sets up the process-wide structured logger. Output always
// goes to a file, never stderr, so it doesn't corrupt the scan-progress TUI's
// alternate screen.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// New opens logPath for appending and builds a slog.Logger writing
// slog.TextHandler records to it, leveled by verbosity: 0 warn, 1 info, 2+
// debug.
func New(logPath string, verbosity int) (*slog.Logger, func(), error) {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelFor(verbosity)})
	logger := slog.New(handler).With("component", "hostprowl")

	return logger, func() { f.Close() }, nil
}

func levelFor(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
