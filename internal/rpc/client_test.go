package rpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/internal/logging"
)

type recorded struct {
	path    string
	auth    string
	cookie  string
	version string
	body    map[string]any
}

func newServer(t *testing.T, status int, reply string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.version = r.Header.Get("Connect-Protocol-Version")
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			rec.cookie = cookie.Value
		}
		raw, _ := io.ReadAll(r.Body)
		rec.body = map[string]any{}
		if err := json.Unmarshal(raw, &rec.body); err != nil {
			t.Errorf("request body is not JSON: %s", raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, rec
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected missing BaseURL error")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestConsoleLogin(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"sessionToken":"tok","expiresIn":"86400"}`)
	console := NewConsole(client, nil)

	got, err := console.Login(context.Background(), keyhub.LoginInput{OrganizationID: "org", OrganizationKey: "key"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.SessionToken != "tok" || got.TTL() != 24*time.Hour {
		t.Fatalf("unexpected result %+v", got)
	}
	if rec.path != "/keyhub.console.v1.ConsoleAuthService/LoginWithOrgId" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.auth != "" {
		t.Fatalf("login must not send a token, got %q", rec.auth)
	}
	if rec.version != "1" {
		t.Fatalf("expected connect protocol header")
	}
	want := map[string]any{"organizationId": "org", "organizationKey": "key"}
	if diff := cmp.Diff(want, rec.body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleCreateTenant(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"id":"t-1"}`)
	console := NewConsole(client, func() string { return "tok" })

	expiry := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
	id, err := console.CreateTenant(context.Background(),
		keyhub.TenantInput{Name: "Lab", TenantType: keyhub.TenantTypeLaboratory},
		keyhub.JoinCodeInput{JoinCode: "abc123", MaxUses: 5, ExpiresAt: expiry},
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "t-1" || rec.auth != "Bearer tok" {
		t.Fatalf("unexpected id %q auth %q", id, rec.auth)
	}
	want := map[string]any{
		"name":           "Lab",
		"tenantType":     "TENANT_TYPE_LABORATORY",
		"joinCode":       "abc123",
		"joinCodeMaxUse": float64(5),
		"joinCodeExpiry": "2026-12-01T09:00:00Z",
	}
	if diff := cmp.Diff(want, rec.body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleCreateTenant_OmitsEmptyJoinCodeLimits(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"id":"t-2"}`)
	console := NewConsole(client, func() string { return "tok" })

	if _, err := console.CreateTenant(context.Background(),
		keyhub.TenantInput{Name: "Team", TenantType: keyhub.TenantTypeTeam},
		keyhub.JoinCodeInput{JoinCode: "abc123"},
	); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, key := range []string{"joinCodeMaxUse", "joinCodeExpiry", "description"} {
		if _, ok := rec.body[key]; ok {
			t.Errorf("expected %q to be omitted", key)
		}
	}
}

func TestConsoleListsDecodeEnums(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"rooms":[{"id":"r-1","name":"A101","buildingName":"Main","floorNumber":"1","roomType":"ROOM_TYPE_LABORATORY"}]}`)
	console := NewConsole(client, func() string { return "tok" })

	rooms, err := console.Rooms(context.Background())
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	want := []Room{{ID: "r-1", Name: "A101", BuildingName: "Main", FloorNumber: "1", RoomType: keyhub.RoomTypeLaboratory}}
	if diff := cmp.Diff(want, rooms); diff != "" {
		t.Fatalf("rooms mismatch (-want +got):\n%s", diff)
	}
	if rec.path != "/keyhub.console.v1.ConsoleAuthService/GetAllRooms" {
		t.Fatalf("unexpected path %q", rec.path)
	}
}

func TestAppUsesSessionCookie(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"user":{"id":"u-1","email":"a@b.c","name":"Ann"}}`)
	app := NewApp(client, func() string { return "sid" })

	user, err := app.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.ID != "u-1" || user.Name != "Ann" {
		t.Fatalf("unexpected user %+v", user)
	}
	if rec.cookie != "sid" || rec.auth != "" {
		t.Fatalf("expected cookie auth, got cookie %q auth %q", rec.cookie, rec.auth)
	}
	if rec.path != "/keyhub.app.v1.AuthService/GetMe" {
		t.Fatalf("unexpected path %q", rec.path)
	}
}

func TestCallDecodesConnectError(t *testing.T) {
	client, _ := newServer(t, http.StatusUnauthorized, `{"code":"unauthenticated","message":"session expired"}`)
	err := NewConsole(client, func() string { return "tok" }).Logout(context.Background())

	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if rpcErr.Code != CodeUnauthenticated || rpcErr.Message != "session expired" || rpcErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected error %+v", rpcErr)
	}
	if !IsUnauthenticated(err) || !IsExpected(err) {
		t.Fatalf("expected unauthenticated classification")
	}
}

func TestCallFallsBackToStatusCode(t *testing.T) {
	client, _ := newServer(t, http.StatusServiceUnavailable, `upstream down`)
	_, err := NewApp(client, nil).MyTenants(context.Background())
	if CodeOf(err) != CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if IsExpected(err) {
		t.Fatalf("unavailable should not be expected")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestInt64AcceptsStringsAndNumbers(t *testing.T) {
	for _, raw := range []string{`"42"`, `42`} {
		var v Int64
		if err := json.Unmarshal([]byte(raw), &v); err != nil || v != 42 {
			t.Fatalf("decode %s: %v %v", raw, v, err)
		}
	}
	var bad Int64
	if err := json.Unmarshal([]byte(`"x"`), &bad); err == nil {
		t.Fatalf("expected error")
	}
}
