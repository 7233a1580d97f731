// Package report captures unexpected errors with the scope tags of the
// current session.
package report

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// Reporter receives errors worth surfacing to operators.
type Reporter interface {
	// Error records err with optional context. Errors the reporter considers
	// expected are logged at debug level only.
	Error(ctx context.Context, err error, attrs ...slog.Attr)
	// Message records a free-form message at the given level.
	Message(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
	// SetTag attaches a scope tag to every later report.
	SetTag(key, value string)
	// ClearTag removes a scope tag.
	ClearTag(key string)
}

// SkipFunc reports whether err is part of normal operation, such as a
// rejected login, and should not be captured.
type SkipFunc func(err error) bool

// Option configures a LogReporter.
type Option func(*LogReporter)

// WithSkip installs skip predicates. Any match marks the error as expected.
func WithSkip(fns ...SkipFunc) Option {
	return func(r *LogReporter) {
		for _, fn := range fns {
			if fn != nil {
				r.skip = append(r.skip, fn)
			}
		}
	}
}

// LogReporter reports through slog.
type LogReporter struct {
	logger *slog.Logger
	skip   []SkipFunc

	mu   sync.RWMutex
	tags map[string]string
}

// NewLogReporter wraps logger. A nil logger falls back to slog.Default.
func NewLogReporter(logger *slog.Logger, opts ...Option) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &LogReporter{logger: logger, tags: make(map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *LogReporter) Error(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}
	level := slog.LevelError
	if r.expected(err) {
		level = slog.LevelDebug
	}
	all := append(r.tagAttrs(), attrs...)
	all = append(all, slog.String("error", err.Error()))
	r.logger.LogAttrs(ctx, level, "error captured", all...)
}

func (r *LogReporter) Message(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	r.logger.LogAttrs(ctx, level, msg, append(r.tagAttrs(), attrs...)...)
}

func (r *LogReporter) SetTag(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[key] = value
}

func (r *LogReporter) ClearTag(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, key)
}

// Tags returns a copy of the current scope tags.
func (r *LogReporter) Tags() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.tags))
	for key, value := range r.tags {
		out[key] = value
	}
	return out
}

func (r *LogReporter) expected(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	for _, fn := range r.skip {
		if fn(err) {
			return true
		}
	}
	return false
}

func (r *LogReporter) tagAttrs() []slog.Attr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.tags))
	for key := range r.tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys)+2)
	for _, key := range keys {
		attrs = append(attrs, slog.String("tag."+key, r.tags[key]))
	}
	return attrs
}

// Nop discards everything.
type Nop struct{}

func (Nop) Error(context.Context, error, ...slog.Attr)                  {}
func (Nop) Message(context.Context, slog.Level, string, ...slog.Attr) {}
func (Nop) SetTag(string, string)                                      {}
func (Nop) ClearTag(string)                                            {}
