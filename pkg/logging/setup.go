package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures process-wide structured logging.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Format is "text" or "json". Defaults to "text".
	Format string
	// FilePath, if set, routes logs to a rotating file instead of stderr.
	FilePath string
}

// Setup installs a process-wide slog.Logger built from Options and returns a
// closer for any underlying file sink (nil if none was opened).
//
// Mirrors the Debug/--log-file bootstrap used by the rest of this codebase's
// command-line entrypoints, generalized to a configurable level/format pair
// instead of a single debug/quiet switch.
func Setup(stderr io.Writer, opts Options) (io.Closer, error) {
	level := parseLevel(opts.Level)

	var out io.Writer = stderr
	var closer io.Closer
	if strings.TrimSpace(opts.FilePath) != "" {
		rf, err := NewRotatingFile(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", opts.FilePath, err)
		}
		out = rf
		closer = rf
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))

	return closer, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
