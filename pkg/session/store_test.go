package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type tagRecorder struct {
	tags map[string]string
}

func (r *tagRecorder) Error(context.Context, error, ...slog.Attr)                  {}
func (r *tagRecorder) Message(context.Context, slog.Level, string, ...slog.Attr) {}
func (r *tagRecorder) SetTag(key, value string) {
	if r.tags == nil {
		r.tags = make(map[string]string)
	}
	r.tags[key] = value
}
func (r *tagRecorder) ClearTag(key string) { delete(r.tags, key) }

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newConsoleStore(t *testing.T, storage Storage, opts ...Option) *Store[ConsoleCredential] {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	store, err := NewStore[ConsoleCredential](storage, ConsoleCodec{}, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func millis(ts time.Time) string {
	return strconv.FormatInt(ts.UnixMilli(), 10)
}

func TestConsoleCheck_ExpiredCredentialIsPurged(t *testing.T) {
	storage := NewMemoryStorage(map[string]string{
		KeyConsoleToken:          "tok",
		KeyConsoleExpiresAt:      millis(fixedNow.Add(-time.Minute)),
		KeyConsoleOrganizationID: "org-1",
	})
	store := newConsoleStore(t, storage)

	if got := store.State(); got != StateUnknown {
		t.Fatalf("expected unknown before check, got %v", got)
	}
	if got := store.Check(); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", got)
	}
	if snapshot := storage.Snapshot(); len(snapshot) != 0 {
		t.Fatalf("expected persisted entries to be cleared, got %v", snapshot)
	}
	if _, ok := store.Credential(); ok {
		t.Fatalf("credential should not be available")
	}
}

func TestConsoleCheck_ExpiryBoundary(t *testing.T) {
	storage := NewMemoryStorage(map[string]string{
		KeyConsoleToken:     "tok",
		KeyConsoleExpiresAt: millis(fixedNow),
	})
	if got := newConsoleStore(t, storage).Check(); got != StateUnauthenticated {
		t.Fatalf("a credential expiring now must be rejected, got %v", got)
	}
}

func TestConsoleCheck_Valid(t *testing.T) {
	expires := fixedNow.Add(time.Hour)
	storage := NewMemoryStorage(map[string]string{
		KeyConsoleToken:          "tok",
		KeyConsoleExpiresAt:      millis(expires),
		KeyConsoleOrganizationID: "org-1",
	})
	reporter := &tagRecorder{}
	store := newConsoleStore(t, storage, WithReporter(reporter))

	if got := store.Check(); got != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
	cred, ok := store.Credential()
	if !ok {
		t.Fatalf("expected credential")
	}
	want := ConsoleCredential{Token: "tok", ExpiresAt: time.UnixMilli(expires.UnixMilli()), OrganizationID: "org-1"}
	if diff := cmp.Diff(want, cred); diff != "" {
		t.Fatalf("credential mismatch (-want +got):\n%s", diff)
	}
	if reporter.tags["organization_id"] != "org-1" {
		t.Fatalf("expected organization tag, got %v", reporter.tags)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(reporter.tags) != 0 {
		t.Fatalf("expected tags cleared, got %v", reporter.tags)
	}
}

func TestConsoleCheck_MalformedOrMissing(t *testing.T) {
	cases := map[string]map[string]string{
		"empty":         {},
		"token only":    {KeyConsoleToken: "tok"},
		"bad expiry":    {KeyConsoleToken: "tok", KeyConsoleExpiresAt: "soon"},
		"expiry only":   {KeyConsoleExpiresAt: millis(fixedNow.Add(time.Hour))},
		"stray org key": {KeyConsoleOrganizationID: "org-1"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage(values)
			if got := newConsoleStore(t, storage).Check(); got != StateUnauthenticated {
				t.Fatalf("expected unauthenticated, got %v", got)
			}
			if snapshot := storage.Snapshot(); len(snapshot) != 0 {
				t.Fatalf("expected purge, got %v", snapshot)
			}
		})
	}
}

func TestStore_SetClearAndSubscribe(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := newConsoleStore(t, storage)

	var seen []State
	unsubscribe := store.Subscribe(func(s State) { seen = append(seen, s) })

	store.Check()
	cred := NewConsoleCredential("tok", 30*time.Minute, "org-9", fixedNow)
	if err := store.Set(cred); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(cred); err != nil {
		t.Fatalf("set again: %v", err)
	}
	want := map[string]string{
		KeyConsoleToken:          "tok",
		KeyConsoleExpiresAt:      millis(fixedNow.Add(30 * time.Minute)),
		KeyConsoleOrganizationID: "org-9",
	}
	if diff := cmp.Diff(want, storage.Snapshot()); diff != "" {
		t.Fatalf("storage mismatch (-want +got):\n%s", diff)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	unsubscribe()
	store.Check()

	if diff := cmp.Diff([]State{StateUnauthenticated, StateAuthenticated, StateUnauthenticated}, seen); diff != "" {
		t.Fatalf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SetRejectsEmptyToken(t *testing.T) {
	store := newConsoleStore(t, NewMemoryStorage(nil))
	if err := store.Set(ConsoleCredential{ExpiresAt: fixedNow}); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
	if store.State() != StateUnknown {
		t.Fatalf("failed set must not change state")
	}
}

func TestAppCheck(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]string
		want   State
		purged bool
	}{
		{name: "valid", values: map[string]string{KeyAppUser: `{"id":"u1","email":"a@b.c","name":"Ana"}`, KeyAppChecked: "true"}, want: StateAuthenticated},
		{name: "not checked", values: map[string]string{KeyAppUser: `{"id":"u1"}`}, want: StateUnauthenticated, purged: true},
		{name: "bad json", values: map[string]string{KeyAppUser: `{"id":`, KeyAppChecked: "true"}, want: StateUnauthenticated, purged: true},
		{name: "missing id", values: map[string]string{KeyAppUser: `{"name":"Ana"}`, KeyAppChecked: "true"}, want: StateUnauthenticated, purged: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := NewMemoryStorage(tc.values)
			store, err := NewStore[AppSession](storage, AppCodec{})
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			if got := store.Check(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if tc.purged && len(storage.Snapshot()) != 0 {
				t.Fatalf("expected purge, got %v", storage.Snapshot())
			}
		})
	}
}

func TestAppSet_RoundTrip(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store, _ := NewStore[AppSession](storage, AppCodec{})
	want := AppSession{User: User{ID: "u1", Email: "ana@example.com", Name: "Ana"}, SessionID: "sess-1"}
	if err := store.Set(want); err != nil {
		t.Fatalf("set: %v", err)
	}

	reloaded, _ := NewStore[AppSession](storage, AppCodec{})
	if got := reloaded.Check(); got != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", got)
	}
	got, _ := reloaded.Credential()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	storage, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if _, ok, err := storage.Get("missing"); ok || err != nil {
		t.Fatalf("missing file should read as empty, got ok=%v err=%v", ok, err)
	}
	if err := storage.Set(map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %v", perm)
	}
	if err := storage.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := storage.Get("a"); ok {
		t.Fatalf("expected key a to be deleted")
	}
	if value, ok, _ := storage.Get("b"); !ok || value != "2" {
		t.Fatalf("expected b=2, got %q (%v)", value, ok)
	}
}

func TestFileStorage_CorruptFileIsPurgedByCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("console_token: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	storage, _ := NewFileStorage(path)
	store := newConsoleStore(t, storage)
	if got := store.Check(); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", got)
	}
	if _, _, err := storage.Get(KeyConsoleToken); err != nil {
		t.Fatalf("expected storage to be readable after purge: %v", err)
	}
}

func TestGuard(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := newConsoleStore(t, storage)
	guard := NewGuard(store, "/login")

	if err := guard.Require(); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	if err := store.Set(NewConsoleCredential("tok", time.Hour, "org", fixedNow)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := guard.Require(); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected protected handler, got %d", rec.Code)
	}
}

func TestGuard_ChecksOnlyOnce(t *testing.T) {
	checker := &countingChecker{result: StateAuthenticated}
	guard := NewGuard(checker, "")
	guard.Decide()
	guard.Decide()
	if checker.checks != 1 {
		t.Fatalf("expected a single check, got %d", checker.checks)
	}
	if d := NewGuard(&countingChecker{result: StateUnauthenticated}, "").Decide(); d.Redirect != "/login" {
		t.Fatalf("expected default login path, got %q", d.Redirect)
	}
}

type countingChecker struct {
	state  State
	result State
	checks int
}

func (c *countingChecker) State() State { return c.state }
func (c *countingChecker) Check() State {
	c.checks++
	c.state = c.result
	return c.state
}
