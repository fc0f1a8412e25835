// Package logger owns slog handler setup for the launcher core.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures the root logger.
type Options struct {
	Level      string // debug | info | warn | error
	Format     string // json | text
	Timestamps bool
	Output     io.Writer // defaults to os.Stderr
}

// New creates the root slog.Logger from options and installs it as the
// process default.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}
	if !opts.Timestamps {
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
