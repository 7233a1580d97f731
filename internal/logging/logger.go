// Package logging builds the structured loggers used by the keyhub commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects the slog handler.
type Format string

const (
	// FormatAuto picks text on a terminal and JSON otherwise.
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New creates a logger writing to stderr. When stderr is a terminal and the
// format is auto, uses slog.TextHandler for human-readable output; piped or
// redirected output gets slog.JSONHandler.
//
// Callers scope the logger per command:
//
//	logger := logging.New("info", logging.FormatAuto).With("command", "tenants/create")
func New(level string, format Format) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWithWriter is New with an explicit sink and terminal flag.
func NewWithWriter(w io.Writer, level string, format Format, isTerminal bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch {
	case format == FormatText, format != FormatJSON && isTerminal:
		handler = slog.NewTextHandler(w, options)
	default:
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
