package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-keyforms/internal/config"
	"github.com/goliatone/go-keyforms/internal/logging"
	"github.com/goliatone/go-keyforms/internal/rpc"
	"github.com/goliatone/go-keyforms/pkg/prompt"
	"github.com/goliatone/go-keyforms/pkg/report"
	"github.com/goliatone/go-keyforms/pkg/session"
)

// Flags are the options every keyhub shell accepts. Set flags override the
// configuration file.
type Flags struct {
	ConfigPath  string
	BaseURL     string
	SessionPath string
	LogLevel    string
	LogFormat   string
	Plain       bool
}

// Register adds the flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "path to the YAML config file (default: $"+config.EnvPath+")")
	fs.StringVar(&f.BaseURL, "base-url", "", "RPC backend root URL")
	fs.StringVar(&f.SessionPath, "session-file", "", "file holding the persisted session")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.LogFormat, "log-format", "", "log format: auto, text or json")
	fs.BoolVar(&f.Plain, "plain", false, "print messages without colour")
}

// Load reads the configuration, applies the flag overrides and validates.
func (f *Flags) Load() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.BaseURL != "" {
		cfg.Server.BaseURL = f.BaseURL
	}
	if f.SessionPath != "" {
		cfg.Session.Path = f.SessionPath
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.Log.Format = f.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runtime is the shared plumbing of a shell process.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Reporter *report.LogReporter
	Storage  *session.FileStorage
	Client   *rpc.Client
	Runner   *prompt.Runner
}

// NewRuntime builds logging, reporting, session storage, the RPC client and
// the prompt runner from cfg. Expected RPC failures are reported at debug
// level only.
func NewRuntime(cfg *config.Config, plain bool) (*Runtime, error) {
	logger := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	reporter := report.NewLogReporter(logger, report.WithSkip(rpc.IsExpected))

	storage, err := session.NewFileStorage(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("session storage: %w", err)
	}
	timeout, err := cfg.RPCTimeout()
	if err != nil {
		return nil, err
	}
	client, err := rpc.NewClient(rpc.ClientConfig{
		BaseURL: cfg.Server.BaseURL,
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	theme := prompt.DefaultTheme()
	if plain {
		theme = prompt.PlainTheme()
	}
	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Reporter: reporter,
		Storage:  storage,
		Client:   client,
		Runner:   prompt.NewRunner(prompt.NewSurveyDriver(os.Stdout), prompt.WithTheme(theme)),
	}, nil
}

// StoreOptions are the session store options matching the runtime.
func (r *Runtime) StoreOptions() []session.Option {
	return []session.Option{session.WithLogger(r.Logger), session.WithReporter(r.Reporter)}
}
