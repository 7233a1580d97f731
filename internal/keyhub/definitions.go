package keyhub

import (
	"time"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// Forms holds every keyhub form definition.
type Forms struct {
	Tenant     *form.Typed[TenantInput]
	JoinCode   *form.Typed[JoinCodeInput]
	Room       *form.Typed[RoomInput]
	Key        *form.Typed[KeyInput]
	AssignRoom *form.Typed[AssignmentInput]
	JoinTenant *form.Typed[JoinTenantInput]
	Login      *form.Typed[LoginInput]
}

// NewForms builds the definitions. now anchors expiry checks and the
// datetime transforms; nil means time.Now.
func NewForms(now func() time.Time) *Forms {
	if now == nil {
		now = time.Now
	}
	timestamp := form.Timestamp(time.Local)

	return &Forms{
		Tenant: form.MustDefine[TenantInput](FormTenant, "Tenant", TenantSchema(), []form.FieldMeta{
			{Name: "name", Label: "Tenant name", Kind: form.KindText, Required: true, Help: "Up to 15 characters"},
			{Name: "description", Label: "Description", Kind: form.KindTextArea, Help: "Up to 300 characters"},
			{Name: "tenantType", Label: "Tenant type", Kind: form.KindChoice, Required: true, Options: tenantTypes.choices(), Transform: tenantTypes.transform()},
		}, func() map[string]any {
			return map[string]any{"name": "", "description": "", "tenantType": TenantTypeTeam}
		}),

		JoinCode: form.MustDefine[JoinCodeInput](FormJoinCode, "Join code", JoinCodeSchema(now), []form.FieldMeta{
			{Name: "joinCode", Label: "Join code", Kind: form.KindText, Required: true, Help: "6 to 20 letters or digits"},
			{Name: "joinCodeMaxUse", Label: "Maximum uses", Kind: form.KindNumber, Help: "0 means unlimited", Transform: form.Integer[int32]()},
			{Name: "joinCodeExpiry", Label: "Expires at", Kind: form.KindDateTime, Placeholder: "2006-01-02T15:04", Help: "Leave empty for no expiry", Transform: timestamp},
		}, nil),

		Room: form.MustDefine[RoomInput](FormRoom, "Room", RoomSchema(), []form.FieldMeta{
			{Name: "name", Label: "Room name", Kind: form.KindText, Required: true},
			{Name: "buildingName", Label: "Building", Kind: form.KindText, Required: true},
			{Name: "floorNumber", Label: "Floor", Kind: form.KindText, Required: true},
			{Name: "roomType", Label: "Room type", Kind: form.KindChoice, Required: true, Options: roomTypes.choices(), Transform: roomTypes.transform()},
			{Name: "description", Label: "Description", Kind: form.KindTextArea},
		}, func() map[string]any {
			return map[string]any{"roomType": RoomTypeClassroom}
		}),

		Key: form.MustDefine[KeyInput](FormKey, "Key", KeySchema(), []form.FieldMeta{
			{Name: "roomId", Label: "Room ID", Kind: form.KindText, Required: true},
			{Name: "keyNumber", Label: "Key number", Kind: form.KindText, Required: true},
		}, nil),

		AssignRoom: form.MustDefine[AssignmentInput](FormAssignRoom, "Assign room", AssignmentSchema(now), []form.FieldMeta{
			{Name: "tenantId", Label: "Tenant ID", Kind: form.KindText, Required: true},
			{Name: "roomId", Label: "Room ID", Kind: form.KindText, Required: true},
			{Name: "expiresAt", Label: "Expires at", Kind: form.KindDateTime, Placeholder: "2006-01-02T15:04", Help: "Leave empty for no expiry", Transform: timestamp},
		}, nil),

		JoinTenant: form.MustDefine[JoinTenantInput](FormJoinTenant, "Join tenant", JoinTenantSchema(), []form.FieldMeta{
			{Name: "joinCode", Label: "Join code", Kind: form.KindText, Required: true},
		}, nil),

		Login: form.MustDefine[LoginInput](FormLogin, "Console login", LoginSchema(), []form.FieldMeta{
			{Name: "organizationId", Label: "Organization ID", Kind: form.KindText, Required: true},
			{Name: "organizationKey", Label: "Organization key", Kind: form.KindSecret, Required: true},
		}, nil),
	}
}

// Definitions lists every form as a type-erased definition.
func (f *Forms) Definitions() []form.Definition {
	return []form.Definition{f.Tenant, f.JoinCode, f.Room, f.Key, f.AssignRoom, f.JoinTenant, f.Login}
}

// Registry returns a registry holding every keyhub form.
func (f *Forms) Registry() (*form.Registry, error) {
	return form.NewRegistry(f.Definitions()...)
}
