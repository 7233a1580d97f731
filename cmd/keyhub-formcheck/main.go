// keyhub-formcheck serves the keyhub form definitions over HTTP so other
// clients can validate records with the same rules the shells apply.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-keyforms/components/formcheck"
	"github.com/goliatone/go-keyforms/internal/config"
	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		addr       string
		basePath   string
		logLevel   string
		logFormat  string
	)
	flagSet := pflag.NewFlagSet("keyhub-formcheck", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (default: $"+config.EnvPath+")")
	flagSet.StringVar(&addr, "addr", "", "listen address")
	flagSet.StringVar(&basePath, "base-path", "/api", "path prefix for the form routes")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&logFormat, "log-format", "", "log format: auto, text or json")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.FormCheck.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format)).With("command", "keyhub-formcheck")

	registry, err := keyhub.NewForms(nil).Registry()
	if err != nil {
		return err
	}
	component := formcheck.New(
		formcheck.WithRegistry(registry),
		formcheck.WithGuard(formcheck.BearerGuard(cfg.FormCheck.Token)),
		formcheck.WithLogger(logger),
	)

	mux := http.NewServeMux()
	pattern, err := component.RegisterRoutes(mux, basePath)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.FormCheck.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr, "routes", pattern, "forms", registry.List())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}
