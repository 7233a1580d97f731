// Package config loads the keyhub command configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the KEYHUB_CONFIG environment variable. Without either, defaults apply.
// Command flags override file values after loading.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "KEYHUB_CONFIG"

// Config is the top-level configuration shared by the keyhub commands.
type Config struct {
	// Server configures the RPC backend.
	Server ServerConfig `yaml:"server"`

	// Session configures where credentials are persisted.
	Session SessionConfig `yaml:"session"`

	// Log configures the slog handler.
	Log LogConfig `yaml:"log"`

	// FormCheck configures the HTTP validation service.
	FormCheck FormCheckConfig `yaml:"formcheck"`
}

// ServerConfig configures the RPC backend.
type ServerConfig struct {
	// BaseURL is the Connect endpoint root.
	// Default: http://localhost:8080
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each RPC call.
	// Default: 10s
	Timeout string `yaml:"timeout"`
}

// SessionConfig configures credential persistence.
type SessionConfig struct {
	// Path is the YAML file holding persisted session keys.
	// Default: ${HOME}/.config/keyhub/session.yaml
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FormCheckConfig configures the validation service.
type FormCheckConfig struct {
	// Addr is the listen address.
	// Default: :8090
	Addr string `yaml:"addr"`

	// Token, when set, is required as a bearer token on every request.
	// ${VAR} references are expanded from the environment.
	Token string `yaml:"token"`
}

// Default returns the configuration used before a file is loaded.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "10s",
		},
		Session: SessionConfig{
			Path: "${HOME}/.config/keyhub/session.yaml",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		FormCheck: FormCheckConfig{
			Addr: ":8090",
		},
	}
}

// Load reads the file at path, falling back to KEYHUB_CONFIG. With neither
// set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file, merged over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// RPCTimeout parses Server.Timeout.
func (c *Config) RPCTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: server.timeout: %w", err)
	}
	return d, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.BaseURL == "" {
		errs = append(errs, errors.New("server.base_url is required"))
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.base_url %q is not an absolute URL", c.Server.BaseURL))
	}
	if d, err := c.RPCTimeout(); err != nil {
		errs = append(errs, err)
	} else if d <= 0 {
		errs = append(errs, errors.New("server.timeout must be positive"))
	}
	if c.Session.Path == "" {
		errs = append(errs, errors.New("session.path is required"))
	}
	if c.FormCheck.Addr == "" {
		errs = append(errs, errors.New("formcheck.addr is required"))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be auto, text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Session.Path = filepath.Clean(expandVars(c.Session.Path))
	c.FormCheck.Token = expandVars(c.FormCheck.Token)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the environment.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if parts[1] == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
