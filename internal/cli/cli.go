// Package cli holds the command plumbing shared by the keyhub shells: a
// small command table, guarded dispatch and the prompt-then-submit flow.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// ErrUsage marks errors caused by how the command was invoked.
var ErrUsage = errors.New("usage")

// Usagef builds an ErrUsage error.
func Usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Prompter fills form instances interactively. *prompt.Runner satisfies it.
type Prompter interface {
	Fill(ctx context.Context, title string, inst form.Instance) (any, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Notify(ctx context.Context, format string, args ...any) error
	Fail(ctx context.Context, err error) error
}

// Gate decides whether a protected command may run.
type Gate interface {
	Require() error
}

// Command is one entry of a shell.
type Command struct {
	Name      string
	Usage     string
	Summary   string
	Protected bool
	Run       func(ctx context.Context, args []string) error
}

// Commands dispatches by name. Protected commands consult the gate first.
type Commands struct {
	program string
	gate    Gate
	byName  map[string]Command
}

// NewCommands builds a dispatch table.
func NewCommands(program string, gate Gate, cmds ...Command) *Commands {
	c := &Commands{program: program, gate: gate, byName: make(map[string]Command, len(cmds))}
	for _, cmd := range cmds {
		c.byName[cmd.Name] = cmd
	}
	return c
}

// Names lists the command names in sorted order.
func (c *Commands) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes args[0] with the remaining arguments.
func (c *Commands) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return Usagef("missing command; one of %s", strings.Join(c.Names(), ", "))
	}
	cmd, ok := c.byName[args[0]]
	if !ok {
		return Usagef("unknown command %q", args[0])
	}
	if cmd.Protected && c.gate != nil {
		if err := c.gate.Require(); err != nil {
			return err
		}
	}
	return cmd.Run(ctx, args[1:])
}

// PrintUsage writes a command summary.
func (c *Commands) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n  %s [flags] <command> [args]\n\nCommands:\n", c.program)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range c.Names() {
		cmd := c.byName[name]
		usage := cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		fmt.Fprintf(tw, "  %s\t%s\n", usage, cmd.Summary)
	}
	tw.Flush()
}

// Submit opens def, lets p fill it, and hands the validated record to fn
// through the controller's submit gate.
func Submit[T any](ctx context.Context, p Prompter, def *form.Typed[T], fn form.SubmitFunc[T], opts ...form.Option) error {
	mounted, err := def.Open(opts...)
	if err != nil {
		return err
	}
	if _, err := p.Fill(ctx, def.Title(), mounted); err != nil {
		return err
	}
	_, err = mounted.Controller().Submit(ctx, fn)
	return err
}

// Table writes aligned rows under header.
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
