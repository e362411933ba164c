package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Component is the attribute attached to loggers created for contextplus itself.
const Component = "contextplus"

// New creates a configured application logger.
// It writes to Stderr and standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	defaultOnce   sync.Once
	defaultLogger *slog.Logger
)

// Default returns the logger used by nodes whose ancestors provide none.
// It derives from slog.Default at first use.
func Default() *slog.Logger {
	defaultOnce.Do(func() {
		defaultLogger = slog.Default().With("component", Component)
	})
	return defaultLogger
}

// ParseLevel maps a settings string (debug, info, warn, error) to a level.
// Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
