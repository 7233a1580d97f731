// keyhub-app is the member client for keyhub: it reuses the session of the
// web sign-in to join tenants and list the rooms and keys they grant.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-keyforms/internal/cli"
	"github.com/goliatone/go-keyforms/internal/portal"
	"github.com/goliatone/go-keyforms/internal/rpc"
	"github.com/goliatone/go-keyforms/pkg/prompt"
	"github.com/goliatone/go-keyforms/pkg/session"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	var flags cli.Flags
	flagSet := pflag.NewFlagSet("keyhub-app", pflag.ContinueOnError)
	flags.Register(flagSet)
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	rt, err := cli.NewRuntime(cfg, flags.Plain)
	if err != nil {
		return err
	}

	store, err := session.NewStore[session.AppSession](rt.Storage, session.AppCodec{}, rt.StoreOptions()...)
	if err != nil {
		return err
	}
	connect := func(sessionID string) portal.Backend {
		return rpc.NewApp(rt.Client, func() string { return sessionID })
	}
	shell, err := portal.New(store, connect, rt.Runner,
		portal.WithReporter(rt.Reporter),
		portal.WithLogger(rt.Logger.With("command", "keyhub-app")),
	)
	if err != nil {
		return err
	}

	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		shell.Commands().PrintUsage(os.Stderr)
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flagSet.SetOutput(os.Stderr)
		flagSet.PrintDefaults()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return shell.Run(ctx, flagSet.Args())
}
