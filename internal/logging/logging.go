// Package logging builds the service's slog logger.
//
// Output format comes from LOG_FORMAT (text/json), falling back to text on a
// terminal and JSON otherwise. LOG_LEVEL selects debug/info/warn/error.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New creates a logger writing to stdout.
func New() *slog.Logger {
	useText := false
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "text":
		useText = true
	case "json":
	default:
		useText = isatty(os.Stdout)
	}
	return newLogger(os.Stdout, useText, parseLogLevel(os.Getenv("LOG_LEVEL")))
}

// SetDefault creates a logger and installs it as the slog default.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	wd, _ := os.Getwd()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.SourceKey {
				return a
			}
			if src, ok := a.Value.Any().(*slog.Source); ok {
				if rel, err := filepath.Rel(wd, src.File); err == nil {
					src.File = rel
				} else {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
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

func isatty(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
