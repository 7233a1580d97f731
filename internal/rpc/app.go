package rpc

import (
	"context"
	"time"

	"github.com/goliatone/go-keyforms/internal/keyhub"
)

const (
	appAuthService   = "keyhub.app.v1.AuthService/"
	appTenantService = "keyhub.app.v1.TenantService/"
	appRoomService   = "keyhub.app.v1.RoomService/"
)

// User is the signed-in member returned by GetMe.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TenantPreview is what a join code resolves to before joining.
type TenantPreview struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	TenantType  keyhub.TenantType `json:"tenantType"`
}

// App calls the member-facing services with the session cookie returned by
// session.
type App struct {
	client  *Client
	session func() string
}

// NewApp binds a client to a session id source.
func NewApp(client *Client, session func() string) *App {
	if session == nil {
		session = func() string { return "" }
	}
	return &App{client: client, session: session}
}

func (a *App) auth() Credential {
	return Cookie(a.session())
}

// Me returns the user the session belongs to.
func (a *App) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := a.client.Call(ctx, appAuthService+"GetMe", a.auth(), nil, &out)
	return out.User, err
}

// Logout ends the session server side.
func (a *App) Logout(ctx context.Context) error {
	return a.client.Call(ctx, appAuthService+"Logout", a.auth(), nil, nil)
}

// TenantByJoinCode previews the tenant a code belongs to.
func (a *App) TenantByJoinCode(ctx context.Context, in keyhub.JoinTenantInput) (TenantPreview, error) {
	var out TenantPreview
	err := a.client.Call(ctx, appTenantService+"GetTenantByJoinCode", a.auth(), in, &out)
	return out, err
}

// JoinTenant adds the user to the tenant owning the code.
func (a *App) JoinTenant(ctx context.Context, in keyhub.JoinTenantInput) error {
	return a.client.Call(ctx, appTenantService+"JoinTenant", a.auth(), in, nil)
}

// MyTenants lists the tenants the user belongs to.
func (a *App) MyTenants(ctx context.Context) ([]Tenant, error) {
	var out struct {
		Tenants []Tenant `json:"tenants"`
	}
	err := a.client.Call(ctx, appTenantService+"GetMyTenants", a.auth(), nil, &out)
	return out.Tenants, err
}

// RoomsByTenant lists the rooms assigned to a tenant, with their keys.
func (a *App) RoomsByTenant(ctx context.Context, tenantID string) ([]Room, error) {
	req := struct {
		TenantID string `json:"tenantId"`
	}{TenantID: tenantID}
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	err := a.client.Call(ctx, appRoomService+"GetRoomsByTenant", a.auth(), req, &out)
	return out.Rooms, err
}
