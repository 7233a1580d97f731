// Package keyhub declares the keyhub records, their validation schemas and
// the form definitions the console and portal drive.
package keyhub

import (
	"regexp"
	"time"

	"github.com/goliatone/go-keyforms/pkg/schema"
)

// Form names.
const (
	FormTenant     = "tenant"
	FormJoinCode   = "join-code"
	FormRoom       = "room"
	FormKey        = "key"
	FormAssignRoom = "assign-room"
	FormJoinTenant = "join-tenant"
	FormLogin      = "console-login"
)

var alphanumeric = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// TenantInput is the payload of the create and update tenant forms.
type TenantInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TenantType  TenantType `json:"tenantType"`
}

// JoinCodeInput is the join code issued alongside a tenant.
type JoinCodeInput struct {
	JoinCode  string    `json:"joinCode"`
	MaxUses   int32     `json:"joinCodeMaxUse"`
	ExpiresAt time.Time `json:"joinCodeExpiry"`
}

// RoomInput is the payload of the create room form.
type RoomInput struct {
	Name         string   `json:"name"`
	BuildingName string   `json:"buildingName"`
	FloorNumber  string   `json:"floorNumber"`
	RoomType     RoomType `json:"roomType"`
	Description  string   `json:"description"`
}

// KeyInput is the payload of the create key form.
type KeyInput struct {
	RoomID    string `json:"roomId"`
	KeyNumber string `json:"keyNumber"`
}

// AssignmentInput assigns a room to a tenant until an optional expiry.
type AssignmentInput struct {
	TenantID  string    `json:"tenantId"`
	RoomID    string    `json:"roomId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// JoinTenantInput is the portal join form.
type JoinTenantInput struct {
	JoinCode string `json:"joinCode"`
}

// LoginInput is the console organization login.
type LoginInput struct {
	OrganizationID  string `json:"organizationId"`
	OrganizationKey string `json:"organizationKey"`
}

// TenantSchema validates tenant names and descriptions.
func TenantSchema() *schema.Object[TenantInput] {
	return schema.MustObject(
		schema.String("name", func(t *TenantInput) *string { return &t.Name }).
			Trim().
			Required("tenant name is required").
			Max(15, "tenant name must be 15 characters or fewer").
			NotBlank("tenant name must contain a visible character"),
		schema.String("description", func(t *TenantInput) *string { return &t.Description }).
			Trim().Sanitize().Optional().
			Max(300, "description must be 300 characters or fewer").
			NotBlank("description must contain a visible character"),
		schema.Enum("tenantType", func(t *TenantInput) *TenantType { return &t.TenantType }, TenantTypes()...).
			Required("tenant type is required"),
	)
}

// JoinCodeSchema validates join codes. now anchors the expiry check.
func JoinCodeSchema(now func() time.Time) *schema.Object[JoinCodeInput] {
	return schema.MustObject(
		joinCodeField(func(j *JoinCodeInput) *string { return &j.JoinCode }),
		schema.Int("joinCodeMaxUse", func(j *JoinCodeInput) *int32 { return &j.MaxUses }).
			Min(0, "max uses cannot be negative"),
		schema.Time("joinCodeExpiry", func(j *JoinCodeInput) *time.Time { return &j.ExpiresAt }).
			Future(now, "expiry must be in the future"),
	)
}

// RoomSchema validates rooms with the backend length limits.
func RoomSchema() *schema.Object[RoomInput] {
	return schema.MustObject(
		schema.String("name", func(r *RoomInput) *string { return &r.Name }).
			Trim().Required("room name is required").Max(20),
		schema.String("buildingName", func(r *RoomInput) *string { return &r.BuildingName }).
			Trim().Required("building name is required").Max(20),
		schema.String("floorNumber", func(r *RoomInput) *string { return &r.FloorNumber }).
			Trim().Required("floor number is required").Max(10),
		schema.Enum("roomType", func(r *RoomInput) *RoomType { return &r.RoomType }, RoomTypes()...).
			Required("room type is required"),
		schema.String("description", func(r *RoomInput) *string { return &r.Description }).
			Trim().Sanitize().Optional().Max(200),
	)
}

// KeySchema validates new keys.
func KeySchema() *schema.Object[KeyInput] {
	return schema.MustObject(
		roomIDField(func(k *KeyInput) *string { return &k.RoomID }),
		schema.String("keyNumber", func(k *KeyInput) *string { return &k.KeyNumber }).
			Trim().Required("key number is required").Max(10),
	)
}

// AssignmentSchema validates room assignments.
func AssignmentSchema(now func() time.Time) *schema.Object[AssignmentInput] {
	return schema.MustObject(
		schema.String("tenantId", func(a *AssignmentInput) *string { return &a.TenantID }).
			Trim().Required("tenant id is required").UUID("tenant id must be a valid UUID"),
		roomIDField(func(a *AssignmentInput) *string { return &a.RoomID }),
		schema.Time("expiresAt", func(a *AssignmentInput) *time.Time { return &a.ExpiresAt }).
			Future(now, "expiry must be in the future"),
	)
}

// JoinTenantSchema validates the portal join form.
func JoinTenantSchema() *schema.Object[JoinTenantInput] {
	return schema.MustObject(
		joinCodeField(func(j *JoinTenantInput) *string { return &j.JoinCode }),
	)
}

// LoginSchema validates console logins.
func LoginSchema() *schema.Object[LoginInput] {
	return schema.MustObject(
		schema.String("organizationId", func(l *LoginInput) *string { return &l.OrganizationID }).
			Trim().Required("organization id is required").UUID("organization id must be a valid UUID"),
		schema.String("organizationKey", func(l *LoginInput) *string { return &l.OrganizationKey }).
			Required("organization key is required"),
	)
}

func joinCodeField[T any](ref func(*T) *string) schema.Field[T] {
	return schema.String("joinCode", ref).
		Trim().
		Required("join code is required").
		Min(6).
		Max(20).
		Pattern(alphanumeric, "join code must contain only letters and digits")
}

func roomIDField[T any](ref func(*T) *string) schema.Field[T] {
	return schema.String("roomId", ref).
		Trim().Required("room id is required").UUID("room id must be a valid UUID")
}
