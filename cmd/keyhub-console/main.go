// keyhub-console is the organization console for keyhub: it signs in with
// an organization id and key, then manages tenants, rooms and keys through
// interactive forms.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-keyforms/internal/cli"
	"github.com/goliatone/go-keyforms/internal/console"
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
	flagSet := pflag.NewFlagSet("keyhub-console", pflag.ContinueOnError)
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

	store, err := session.NewStore[session.ConsoleCredential](rt.Storage, session.ConsoleCodec{}, rt.StoreOptions()...)
	if err != nil {
		return err
	}
	backend := rpc.NewConsole(rt.Client, func() string {
		cred, _ := store.Credential()
		return cred.Token
	})
	shell, err := console.New(store, backend, rt.Runner,
		console.WithReporter(rt.Reporter),
		console.WithLogger(rt.Logger.With("command", "keyhub-console")),
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
