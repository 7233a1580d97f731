package rpc

import (
	"context"
	"time"

	"github.com/goliatone/go-keyforms/internal/keyhub"
)

const consoleService = "keyhub.console.v1.ConsoleAuthService/"

// Tenant as listed by the console.
type Tenant struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	TenantType     keyhub.TenantType `json:"tenantType"`
	MemberCount    int32             `json:"memberCount,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Key belongs to one room.
type Key struct {
	ID        string           `json:"id"`
	KeyNumber string           `json:"keyNumber"`
	RoomID    string           `json:"roomId"`
	Status    keyhub.KeyStatus `json:"status"`
}

// Room as listed by either backend. Keys are only filled by the app.
type Room struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BuildingName string          `json:"buildingName"`
	FloorNumber  string          `json:"floorNumber"`
	RoomType     keyhub.RoomType `json:"roomType"`
	Description  string          `json:"description,omitempty"`
	Keys         []Key           `json:"keys,omitempty"`
}

// LoginResult is the console session issued by LoginWithOrgId.
type LoginResult struct {
	SessionToken string `json:"sessionToken"`
	ExpiresIn    Int64  `json:"expiresIn"`
}

// TTL converts ExpiresIn, in seconds, to a duration.
func (r LoginResult) TTL() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

type createTenantRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	TenantType     keyhub.TenantType `json:"tenantType"`
	JoinCode       string            `json:"joinCode"`
	JoinCodeMaxUse int32             `json:"joinCodeMaxUse,omitempty"`
	JoinCodeExpiry *time.Time        `json:"joinCodeExpiry,omitempty"`
}

type updateTenantRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	TenantType  keyhub.TenantType `json:"tenantType"`
}

type assignRoomRequest struct {
	TenantID  string     `json:"tenantId"`
	RoomID    string     `json:"roomId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Console calls the organization console service. Every call except Login
// sends the token returned by token.
type Console struct {
	client *Client
	token  func() string
}

// NewConsole binds a client to a token source.
func NewConsole(client *Client, token func() string) *Console {
	if token == nil {
		token = func() string { return "" }
	}
	return &Console{client: client, token: token}
}

func (c *Console) auth() Credential {
	return Bearer(c.token())
}

// Login exchanges organization credentials for a session token.
func (c *Console) Login(ctx context.Context, in keyhub.LoginInput) (LoginResult, error) {
	var out LoginResult
	err := c.client.Call(ctx, consoleService+"LoginWithOrgId", nil, in, &out)
	return out, err
}

// Logout revokes the current token server side.
func (c *Console) Logout(ctx context.Context) error {
	return c.client.Call(ctx, consoleService+"Logout", c.auth(), nil, nil)
}

// CreateTenant creates a tenant together with its join code and returns the
// new tenant id.
func (c *Console) CreateTenant(ctx context.Context, tenant keyhub.TenantInput, code keyhub.JoinCodeInput) (string, error) {
	req := createTenantRequest{
		Name:           tenant.Name,
		Description:    tenant.Description,
		TenantType:     tenant.TenantType,
		JoinCode:       code.JoinCode,
		JoinCodeMaxUse: code.MaxUses,
		JoinCodeExpiry: optionalTime(code.ExpiresAt),
	}
	var out idResponse
	if err := c.client.Call(ctx, consoleService+"CreateTenant", c.auth(), req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateTenant replaces the editable fields of a tenant.
func (c *Console) UpdateTenant(ctx context.Context, id string, tenant keyhub.TenantInput) (string, error) {
	req := updateTenantRequest{
		ID:          id,
		Name:        tenant.Name,
		Description: tenant.Description,
		TenantType:  tenant.TenantType,
	}
	var out idResponse
	// The procedure name is misspelled in the service definition.
	if err := c.client.Call(ctx, consoleService+"UpdaTenant", c.auth(), req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// GetTenant fetches one tenant of the organization.
func (c *Console) GetTenant(ctx context.Context, id string) (Tenant, error) {
	var out struct {
		Tenant Tenant `json:"tenant"`
	}
	err := c.client.Call(ctx, consoleService+"GetTenantById", c.auth(), idResponse{ID: id}, &out)
	return out.Tenant, err
}

// Tenants lists the organization's tenants.
func (c *Console) Tenants(ctx context.Context) ([]Tenant, error) {
	var out struct {
		Tenants []Tenant `json:"tenants"`
	}
	err := c.client.Call(ctx, consoleService+"GetAllTenants", c.auth(), nil, &out)
	return out.Tenants, err
}

// CreateRoom returns the new room id.
func (c *Console) CreateRoom(ctx context.Context, room keyhub.RoomInput) (string, error) {
	var out idResponse
	if err := c.client.Call(ctx, consoleService+"CreateRoom", c.auth(), room, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Rooms lists the organization's rooms.
func (c *Console) Rooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	err := c.client.Call(ctx, consoleService+"GetAllRooms", c.auth(), nil, &out)
	return out.Rooms, err
}

// AssignRoom grants a tenant access to a room and returns the assignment id.
func (c *Console) AssignRoom(ctx context.Context, in keyhub.AssignmentInput) (string, error) {
	req := assignRoomRequest{
		TenantID:  in.TenantID,
		RoomID:    in.RoomID,
		ExpiresAt: optionalTime(in.ExpiresAt),
	}
	var out struct {
		AssignmentID string `json:"assignmentId"`
	}
	if err := c.client.Call(ctx, consoleService+"AssignRoomToTenant", c.auth(), req, &out); err != nil {
		return "", err
	}
	return out.AssignmentID, nil
}

// CreateKey registers a key for a room and returns its id.
func (c *Console) CreateKey(ctx context.Context, key keyhub.KeyInput) (string, error) {
	var out idResponse
	if err := c.client.Call(ctx, consoleService+"CreateKey", c.auth(), key, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Keys lists the keys of a room.
func (c *Console) Keys(ctx context.Context, roomID string) ([]Key, error) {
	req := struct {
		RoomID string `json:"roomId"`
	}{RoomID: roomID}
	var out struct {
		Keys []Key `json:"keys"`
	}
	err := c.client.Call(ctx, consoleService+"GetKeysByRoom", c.auth(), req, &out)
	return out.Keys, err
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
