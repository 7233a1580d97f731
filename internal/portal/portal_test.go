package portal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/internal/logging"
	"github.com/goliatone/go-keyforms/internal/rpc"
	"github.com/goliatone/go-keyforms/pkg/session"
	"github.com/goliatone/go-keyforms/pkg/testsupport"
)

type fakeBackend struct {
	sessions []string
	calls    []string
	err      error
	joined   keyhub.JoinTenantInput
	rooms    []rpc.Room
}

func (f *fakeBackend) connector() Connector {
	return func(sessionID string) Backend {
		f.sessions = append(f.sessions, sessionID)
		return f
	}
}

func (f *fakeBackend) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeBackend) Me(context.Context) (rpc.User, error) {
	return rpc.User{ID: "u-1", Email: "ann@example.com", Name: "Ann", Icon: "https://img/ann.png"}, f.record("Me")
}

func (f *fakeBackend) Logout(context.Context) error { return f.record("Logout") }

func (f *fakeBackend) TenantByJoinCode(_ context.Context, in keyhub.JoinTenantInput) (rpc.TenantPreview, error) {
	return rpc.TenantPreview{ID: "t-1", Name: "Robotics", TenantType: keyhub.TenantTypeTeam}, f.record("TenantByJoinCode")
}

func (f *fakeBackend) JoinTenant(_ context.Context, in keyhub.JoinTenantInput) error {
	f.joined = in
	return f.record("JoinTenant")
}

func (f *fakeBackend) MyTenants(context.Context) ([]rpc.Tenant, error) {
	return []rpc.Tenant{{ID: "t-1", Name: "Robotics", TenantType: keyhub.TenantTypeTeam, MemberCount: 4}}, f.record("MyTenants")
}

func (f *fakeBackend) RoomsByTenant(context.Context, string) ([]rpc.Room, error) {
	return f.rooms, f.record("RoomsByTenant")
}

type fixture struct {
	shell    *Shell
	backend  *fakeBackend
	prompter *testsupport.Prompter
	storage  *session.MemoryStorage
	store    *session.Store[session.AppSession]
	out      *bytes.Buffer
}

func newFixture(t *testing.T, signedIn bool) *fixture {
	t.Helper()
	storage := session.NewMemoryStorage(nil)
	store, err := session.NewStore[session.AppSession](storage, session.AppCodec{}, session.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if signedIn {
		if err := store.Set(session.AppSession{User: session.User{ID: "u-1", Name: "Ann"}, SessionID: "sid"}); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
	backend := &fakeBackend{}
	prompter := &testsupport.Prompter{Values: map[string]map[string]string{}}
	out := &bytes.Buffer{}
	shell, err := New(store, backend.connector(), prompter, WithOutput(out), WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new shell: %v", err)
	}
	return &fixture{shell: shell, backend: backend, prompter: prompter, storage: storage, store: store, out: out}
}

func TestLoginCachesUserAndSession(t *testing.T) {
	f := newFixture(t, false)
	if err := f.shell.Run(context.Background(), []string{"login", "sid-42"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	cred, ok := f.store.Credential()
	if !ok {
		t.Fatalf("expected credential")
	}
	want := session.AppSession{
		User:      session.User{ID: "u-1", Email: "ann@example.com", Name: "Ann", Picture: "https://img/ann.png"},
		SessionID: "sid-42",
	}
	if diff := cmp.Diff(want, cred); diff != "" {
		t.Fatalf("credential mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sid-42"}, f.backend.sessions); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginRejectedLeavesSignedOut(t *testing.T) {
	f := newFixture(t, false)
	f.backend.err = &rpc.Error{Code: rpc.CodeUnauthenticated}
	err := f.shell.Run(context.Background(), []string{"login", "bad"})
	if !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if f.store.State() != session.StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", f.store.State())
	}
}

func TestJoinConfirmsPreview(t *testing.T) {
	f := newFixture(t, true)
	f.prompter.Confirmations = []bool{true}
	if err := f.shell.Run(context.Background(), []string{"join", " robo2026 "}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if f.backend.joined.JoinCode != "robo2026" {
		t.Fatalf("expected normalised code, got %q", f.backend.joined.JoinCode)
	}
	if diff := cmp.Diff([]string{"TenantByJoinCode", "JoinTenant"}, f.backend.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sid"}, f.backend.sessions); diff != "" {
		t.Fatalf("expected the cached session, got %v", f.backend.sessions)
	}
}

func TestJoinDeclined(t *testing.T) {
	f := newFixture(t, true)
	f.prompter.Values[keyhub.FormJoinTenant] = map[string]string{"joinCode": "robo2026"}
	f.prompter.Confirmations = []bool{false}
	if err := f.shell.Run(context.Background(), []string{"join"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if diff := cmp.Diff([]string{"TenantByJoinCode"}, f.backend.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinShortCodeNeverCallsBackend(t *testing.T) {
	f := newFixture(t, true)
	err := f.shell.Run(context.Background(), []string{"join", "abc"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(f.backend.calls) != 0 {
		t.Fatalf("backend must not be called, got %v", f.backend.calls)
	}
}

func TestRoomsListing(t *testing.T) {
	f := newFixture(t, true)
	f.backend.rooms = []rpc.Room{{
		ID: "r-1", Name: "A101", BuildingName: "Main", FloorNumber: "1", RoomType: keyhub.RoomTypeClassroom,
		Keys: []rpc.Key{{Status: keyhub.KeyStatusAvailable}, {Status: keyhub.KeyStatusInUse}},
	}}
	if err := f.shell.Run(context.Background(), []string{"rooms", "t-1"}); err != nil {
		t.Fatalf("rooms: %v", err)
	}
	out := f.out.String()
	for _, want := range []string{"A101", "Classroom", "1/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestGuardBlocksSignedOutCommands(t *testing.T) {
	f := newFixture(t, false)
	for _, cmd := range []string{"tenants", "join", "whoami", "rooms"} {
		if err := f.shell.Run(context.Background(), []string{cmd}); !errors.Is(err, session.ErrUnauthenticated) {
			t.Errorf("%s: expected ErrUnauthenticated, got %v", cmd, err)
		}
	}
	if len(f.backend.calls) != 0 {
		t.Fatalf("backend must not be called, got %v", f.backend.calls)
	}
}

func TestUnauthenticatedReplyClearsSession(t *testing.T) {
	f := newFixture(t, true)
	f.backend.err = &rpc.Error{Code: rpc.CodeUnauthenticated}
	if err := f.shell.Run(context.Background(), []string{"tenants"}); !rpc.IsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
	if len(f.storage.Snapshot()) != 0 {
		t.Fatalf("expected purge, got %v", f.storage.Snapshot())
	}
}
