// Package portal implements the member shell: sign in with a server session,
// join tenants by code and browse the rooms they grant.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goliatone/go-keyforms/internal/cli"
	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/internal/rpc"
	"github.com/goliatone/go-keyforms/pkg/form"
	"github.com/goliatone/go-keyforms/pkg/report"
	"github.com/goliatone/go-keyforms/pkg/session"
)

// LoginCommand is the entry point the guard points at.
const LoginCommand = "login"

// Backend is the app RPC surface for one session. *rpc.App satisfies it.
type Backend interface {
	Me(ctx context.Context) (rpc.User, error)
	Logout(ctx context.Context) error
	TenantByJoinCode(ctx context.Context, in keyhub.JoinTenantInput) (rpc.TenantPreview, error)
	JoinTenant(ctx context.Context, in keyhub.JoinTenantInput) error
	MyTenants(ctx context.Context) ([]rpc.Tenant, error)
	RoomsByTenant(ctx context.Context, tenantID string) ([]rpc.Room, error)
}

// Connector returns a backend authenticated with sessionID.
type Connector func(sessionID string) Backend

// Shell wires forms, session and backend into the portal commands.
type Shell struct {
	forms    *keyhub.Forms
	store    *session.Store[session.AppSession]
	connect  Connector
	prompter cli.Prompter
	out      io.Writer
	reporter report.Reporter
	logger   *slog.Logger
	commands *cli.Commands
}

// Option customises a Shell.
type Option func(*Shell)

// WithOutput sets where listings are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		if w != nil {
			s.out = w
		}
	}
}

// WithReporter sets the error reporter.
func WithReporter(r report.Reporter) Option {
	return func(s *Shell) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithForms overrides the form definitions.
func WithForms(forms *keyhub.Forms) Option {
	return func(s *Shell) {
		if forms != nil {
			s.forms = forms
		}
	}
}

// New builds the portal shell.
func New(store *session.Store[session.AppSession], connect Connector, prompter cli.Prompter, opts ...Option) (*Shell, error) {
	if store == nil || connect == nil || prompter == nil {
		return nil, errors.New("portal: store, connector and prompter are required")
	}
	s := &Shell{
		store:    store,
		connect:  connect,
		prompter: prompter,
		out:      os.Stdout,
		reporter: report.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.forms == nil {
		s.forms = keyhub.NewForms(nil)
	}

	guard := session.NewGuard(store, LoginCommand)
	s.commands = cli.NewCommands("keyhub-app", guard,
		cli.Command{Name: LoginCommand, Usage: "<session-id>", Summary: "sign in with the session cookie issued by the web sign-in", Run: s.login},
		cli.Command{Name: "logout", Summary: "end the session", Run: s.logout},
		cli.Command{Name: "whoami", Summary: "show the signed-in user", Protected: true, Run: s.whoami},
		cli.Command{Name: "join", Usage: "[join-code]", Summary: "join a tenant with its join code", Protected: true, Run: s.join},
		cli.Command{Name: "tenants", Summary: "list the tenants you belong to", Protected: true, Run: s.tenants},
		cli.Command{Name: "rooms", Usage: "<tenant-id>", Summary: "list a tenant's rooms and keys", Protected: true, Run: s.rooms},
	)
	return s, nil
}

// Commands exposes the dispatch table, for usage output.
func (s *Shell) Commands() *cli.Commands {
	return s.commands
}

// Run executes one command. An unauthenticated reply clears the cached
// session, since the server no longer honours it.
func (s *Shell) Run(ctx context.Context, args []string) error {
	err := s.commands.Run(ctx, args)
	if err == nil {
		return nil
	}
	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	if rpc.CodeOf(err) != "" {
		s.reporter.Error(ctx, err, slog.String("command", command))
	}
	if rpc.IsUnauthenticated(err) {
		if clearErr := s.store.Clear(); clearErr != nil {
			s.logger.Warn("portal: clear stale session", "error", clearErr)
		}
		return fmt.Errorf("%w: %w", session.ErrUnauthenticated, err)
	}
	return err
}

func (s *Shell) backend() Backend {
	cred, _ := s.store.Credential()
	return s.connect(cred.SessionID)
}

func (s *Shell) login(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return cli.Usagef("login <session-id>")
	}
	user, err := s.connect(args[0]).Me(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Set(session.AppSession{
		User: session.User{
			ID:      user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Picture: user.Icon,
		},
		SessionID: args[0],
	}); err != nil {
		return err
	}
	return s.prompter.Notify(ctx, "Signed in as %s <%s>", user.Name, user.Email)
}

func (s *Shell) logout(ctx context.Context, _ []string) error {
	if s.store.Check() == session.StateAuthenticated {
		if err := s.backend().Logout(ctx); err != nil && !rpc.IsUnauthenticated(err) {
			s.logger.Warn("portal: server logout failed", "error", err)
		}
	}
	if err := s.store.Clear(); err != nil {
		return err
	}
	return s.prompter.Notify(ctx, "Signed out")
}

func (s *Shell) whoami(ctx context.Context, _ []string) error {
	cred, _ := s.store.Credential()
	_, err := fmt.Fprintf(s.out, "%s <%s> (%s)\n", cred.User.Name, cred.User.Email, cred.User.ID)
	return err
}

func (s *Shell) join(ctx context.Context, args []string) error {
	var opts []form.Option
	if len(args) > 0 {
		opts = append(opts, form.WithInitialValues(map[string]any{"joinCode": args[0]}))
	}
	backend := s.backend()
	return cli.Submit(ctx, s.prompter, s.forms.JoinTenant, func(ctx context.Context, in keyhub.JoinTenantInput) error {
		preview, err := backend.TenantByJoinCode(ctx, in)
		if err != nil {
			return err
		}
		ok, err := s.prompter.Confirm(ctx, fmt.Sprintf("Join %s (%s)?", preview.Name, preview.TenantType.Label()), true)
		if err != nil {
			return err
		}
		if !ok {
			return s.prompter.Notify(ctx, "Not joined")
		}
		if err := backend.JoinTenant(ctx, in); err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Joined %s", preview.Name)
	}, opts...)
}

func (s *Shell) tenants(ctx context.Context, _ []string) error {
	tenants, err := s.backend().MyTenants(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{t.ID, t.Name, t.TenantType.Label(), fmt.Sprint(t.MemberCount)})
	}
	return cli.Table(s.out, []string{"ID", "NAME", "TYPE", "MEMBERS"}, rows)
}

func (s *Shell) rooms(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return cli.Usagef("rooms <tenant-id>")
	}
	rooms, err := s.backend().RoomsByTenant(ctx, args[0])
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		available := 0
		for _, k := range r.Keys {
			if k.Status == keyhub.KeyStatusAvailable {
				available++
			}
		}
		rows = append(rows, []string{r.ID, r.Name, r.BuildingName, r.FloorNumber, r.RoomType.Label(), fmt.Sprintf("%d/%d", available, len(r.Keys))})
	}
	return cli.Table(s.out, []string{"ID", "NAME", "BUILDING", "FLOOR", "TYPE", "KEYS AVAILABLE"}, rows)
}
