package formcheck

import (
	"log/slog"
	"net/http"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// GuardFunc authorizes a request. A returned error implementing HTTPError
// selects the status code; any other error yields 403.
type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	MaxBodyBytes int64
	Guard        GuardFunc
	Registry     *form.Registry
	Logger       *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/forms",
		MaxBodyBytes: 64 << 10,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/forms"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.Registry == nil {
		opts.Registry, _ = form.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithMaxBodyBytes(n int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = n
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithRegistry sets the definitions served by the handler.
func WithRegistry(registry *form.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Registry = registry
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// BearerGuard accepts requests carrying token as a bearer credential. An
// empty token disables the check.
func BearerGuard(token string) GuardFunc {
	return func(r *http.Request) error {
		if token == "" {
			return nil
		}
		if r.Header.Get("Authorization") != "Bearer "+token {
			return StatusError{Code: http.StatusUnauthorized}
		}
		return nil
	}
}
