// Package console implements the organization console shell: login, tenant,
// room and key management against the console RPC service.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/goliatone/go-keyforms/internal/cli"
	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/internal/rpc"
	"github.com/goliatone/go-keyforms/pkg/form"
	"github.com/goliatone/go-keyforms/pkg/report"
	"github.com/goliatone/go-keyforms/pkg/session"
)

// LoginCommand is the entry point the guard points at.
const LoginCommand = "login"

// Backend is the console RPC surface. *rpc.Console satisfies it.
type Backend interface {
	Login(ctx context.Context, in keyhub.LoginInput) (rpc.LoginResult, error)
	Logout(ctx context.Context) error
	CreateTenant(ctx context.Context, tenant keyhub.TenantInput, code keyhub.JoinCodeInput) (string, error)
	UpdateTenant(ctx context.Context, id string, tenant keyhub.TenantInput) (string, error)
	GetTenant(ctx context.Context, id string) (rpc.Tenant, error)
	Tenants(ctx context.Context) ([]rpc.Tenant, error)
	CreateRoom(ctx context.Context, room keyhub.RoomInput) (string, error)
	Rooms(ctx context.Context) ([]rpc.Room, error)
	AssignRoom(ctx context.Context, in keyhub.AssignmentInput) (string, error)
	CreateKey(ctx context.Context, key keyhub.KeyInput) (string, error)
	Keys(ctx context.Context, roomID string) ([]rpc.Key, error)
}

// Shell wires forms, session and backend into the console commands.
type Shell struct {
	forms    *keyhub.Forms
	store    *session.Store[session.ConsoleCredential]
	backend  Backend
	prompter cli.Prompter
	out      io.Writer
	reporter report.Reporter
	logger   *slog.Logger
	clock    func() time.Time
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

// WithClock sets the time source used for credential expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Shell) {
		if clock != nil {
			s.clock = clock
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

// New builds the console shell.
func New(store *session.Store[session.ConsoleCredential], backend Backend, prompter cli.Prompter, opts ...Option) (*Shell, error) {
	if store == nil || backend == nil || prompter == nil {
		return nil, errors.New("console: store, backend and prompter are required")
	}
	s := &Shell{
		store:    store,
		backend:  backend,
		prompter: prompter,
		out:      os.Stdout,
		reporter: report.Nop{},
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.forms == nil {
		s.forms = keyhub.NewForms(s.clock)
	}

	guard := session.NewGuard(store, LoginCommand)
	s.commands = cli.NewCommands("keyhub-console", guard,
		cli.Command{Name: LoginCommand, Summary: "sign in with an organization id and key", Run: s.login},
		cli.Command{Name: "logout", Summary: "end the console session", Run: s.logout},
		cli.Command{Name: "tenants", Summary: "list tenants", Protected: true, Run: s.tenants},
		cli.Command{Name: "create-tenant", Summary: "create a tenant and its join code", Protected: true, Run: s.createTenant},
		cli.Command{Name: "update-tenant", Usage: "<tenant-id>", Summary: "edit a tenant", Protected: true, Run: s.updateTenant},
		cli.Command{Name: "rooms", Summary: "list rooms", Protected: true, Run: s.rooms},
		cli.Command{Name: "create-room", Summary: "register a room", Protected: true, Run: s.createRoom},
		cli.Command{Name: "create-key", Usage: "[room-id]", Summary: "register a key for a room", Protected: true, Run: s.createKey},
		cli.Command{Name: "assign-room", Usage: "[tenant-id]", Summary: "give a tenant access to a room", Protected: true, Run: s.assignRoom},
		cli.Command{Name: "keys", Usage: "<room-id>", Summary: "list the keys of a room", Protected: true, Run: s.keys},
	)
	return s, nil
}

// Commands exposes the dispatch table, for usage output.
func (s *Shell) Commands() *cli.Commands {
	return s.commands
}

// Run executes one command. Backend errors are reported; an unauthenticated
// reply also clears the stored credential, since it is stale.
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
	if rpc.IsUnauthenticated(err) && command != LoginCommand {
		if clearErr := s.store.Clear(); clearErr != nil {
			s.logger.Warn("console: clear stale session", "error", clearErr)
		}
		return fmt.Errorf("%w: %w", session.ErrUnauthenticated, err)
	}
	return err
}

func (s *Shell) login(ctx context.Context, _ []string) error {
	return cli.Submit(ctx, s.prompter, s.forms.Login, func(ctx context.Context, in keyhub.LoginInput) error {
		result, err := s.backend.Login(ctx, in)
		if err != nil {
			return err
		}
		cred := session.NewConsoleCredential(result.SessionToken, result.TTL(), in.OrganizationID, s.clock())
		if err := s.store.Set(cred); err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Signed in to organization %s until %s", in.OrganizationID, cred.ExpiresAt.Local().Format(time.DateTime))
	})
}

func (s *Shell) logout(ctx context.Context, _ []string) error {
	if s.store.Check() == session.StateAuthenticated {
		if err := s.backend.Logout(ctx); err != nil && !rpc.IsUnauthenticated(err) {
			s.logger.Warn("console: server logout failed", "error", err)
		}
	}
	if err := s.store.Clear(); err != nil {
		return err
	}
	return s.prompter.Notify(ctx, "Signed out")
}

func (s *Shell) tenants(ctx context.Context, _ []string) error {
	tenants, err := s.backend.Tenants(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{t.ID, t.Name, t.TenantType.Label(), t.Description})
	}
	return cli.Table(s.out, []string{"ID", "NAME", "TYPE", "DESCRIPTION"}, rows)
}

func (s *Shell) createTenant(ctx context.Context, _ []string) error {
	return cli.Submit(ctx, s.prompter, s.forms.Tenant, func(ctx context.Context, tenant keyhub.TenantInput) error {
		return cli.Submit(ctx, s.prompter, s.forms.JoinCode, func(ctx context.Context, code keyhub.JoinCodeInput) error {
			id, err := s.backend.CreateTenant(ctx, tenant, code)
			if err != nil {
				return err
			}
			return s.prompter.Notify(ctx, "Created tenant %s (%s) with join code %s", tenant.Name, id, code.JoinCode)
		})
	})
}

func (s *Shell) updateTenant(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return cli.Usagef("update-tenant <tenant-id>")
	}
	current, err := s.backend.GetTenant(ctx, args[0])
	if err != nil {
		return err
	}
	seed := form.WithInitialValues(map[string]any{
		"name":        current.Name,
		"description": current.Description,
		"tenantType":  current.TenantType,
	})
	return cli.Submit(ctx, s.prompter, s.forms.Tenant, func(ctx context.Context, tenant keyhub.TenantInput) error {
		id, err := s.backend.UpdateTenant(ctx, current.ID, tenant)
		if err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Updated tenant %s", id)
	}, seed)
}

func (s *Shell) rooms(ctx context.Context, _ []string) error {
	rooms, err := s.backend.Rooms(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.ID, r.Name, r.BuildingName, r.FloorNumber, r.RoomType.Label()})
	}
	return cli.Table(s.out, []string{"ID", "NAME", "BUILDING", "FLOOR", "TYPE"}, rows)
}

func (s *Shell) createRoom(ctx context.Context, _ []string) error {
	return cli.Submit(ctx, s.prompter, s.forms.Room, func(ctx context.Context, room keyhub.RoomInput) error {
		id, err := s.backend.CreateRoom(ctx, room)
		if err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Created room %s (%s)", room.Name, id)
	})
}

func (s *Shell) createKey(ctx context.Context, args []string) error {
	var opts []form.Option
	if len(args) > 0 {
		opts = append(opts, form.WithInitialValues(map[string]any{"roomId": args[0]}))
	}
	return cli.Submit(ctx, s.prompter, s.forms.Key, func(ctx context.Context, key keyhub.KeyInput) error {
		id, err := s.backend.CreateKey(ctx, key)
		if err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Created key %s (%s)", key.KeyNumber, id)
	}, opts...)
}

func (s *Shell) assignRoom(ctx context.Context, args []string) error {
	var opts []form.Option
	if len(args) > 0 {
		opts = append(opts, form.WithInitialValues(map[string]any{"tenantId": args[0]}))
	}
	return cli.Submit(ctx, s.prompter, s.forms.AssignRoom, func(ctx context.Context, in keyhub.AssignmentInput) error {
		id, err := s.backend.AssignRoom(ctx, in)
		if err != nil {
			return err
		}
		return s.prompter.Notify(ctx, "Assigned room %s to tenant %s (%s)", in.RoomID, in.TenantID, id)
	}, opts...)
}

func (s *Shell) keys(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return cli.Usagef("keys <room-id>")
	}
	keys, err := s.backend.Keys(ctx, args[0])
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k.ID, k.KeyNumber, k.Status.Label()})
	}
	return cli.Table(s.out, []string{"ID", "NUMBER", "STATUS"}, rows)
}
