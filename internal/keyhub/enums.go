package keyhub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// TenantType classifies a tenant. Values follow the RPC enum numbering.
type TenantType int32

const (
	TenantTypeUnspecified TenantType = iota
	TenantTypeTeam
	TenantTypeDepartment
	TenantTypeProject
	TenantTypeLaboratory
)

// RoomType classifies a room.
type RoomType int32

const (
	RoomTypeUnspecified RoomType = iota
	RoomTypeClassroom
	RoomTypeMeetingRoom
	RoomTypeLaboratory
	RoomTypeOffice
	RoomTypeWorkshop
	RoomTypeStorage
)

// KeyStatus is the lifecycle state of a physical key.
type KeyStatus int32

const (
	KeyStatusUnspecified KeyStatus = iota
	KeyStatusAvailable
	KeyStatusInUse
	KeyStatusLost
	KeyStatusDamaged
)

var tenantTypes = enumSet[TenantType]{
	prefix: "TENANT_TYPE_",
	entries: []enumEntry[TenantType]{
		{TenantTypeTeam, "TEAM", "Team"},
		{TenantTypeDepartment, "DEPARTMENT", "Department"},
		{TenantTypeProject, "PROJECT", "Project"},
		{TenantTypeLaboratory, "LABORATORY", "Laboratory"},
	},
}

var roomTypes = enumSet[RoomType]{
	prefix: "ROOM_TYPE_",
	entries: []enumEntry[RoomType]{
		{RoomTypeClassroom, "CLASSROOM", "Classroom"},
		{RoomTypeMeetingRoom, "MEETING_ROOM", "Meeting room"},
		{RoomTypeLaboratory, "LABORATORY", "Laboratory"},
		{RoomTypeOffice, "OFFICE", "Office"},
		{RoomTypeWorkshop, "WORKSHOP", "Workshop"},
		{RoomTypeStorage, "STORAGE", "Storage"},
	},
}

var keyStatuses = enumSet[KeyStatus]{
	prefix: "KEY_STATUS_",
	entries: []enumEntry[KeyStatus]{
		{KeyStatusAvailable, "AVAILABLE", "Available"},
		{KeyStatusInUse, "IN_USE", "In use"},
		{KeyStatusLost, "LOST", "Lost"},
		{KeyStatusDamaged, "DAMAGED", "Damaged"},
	},
}

func (t TenantType) String() string { return tenantTypes.name(t) }
func (t TenantType) Label() string  { return tenantTypes.label(t) }

func (t TenantType) MarshalJSON() ([]byte, error) { return tenantTypes.marshal(t) }
func (t *TenantType) UnmarshalJSON(data []byte) error {
	return tenantTypes.unmarshal(data, t)
}

func (t RoomType) String() string { return roomTypes.name(t) }
func (t RoomType) Label() string  { return roomTypes.label(t) }

func (t RoomType) MarshalJSON() ([]byte, error) { return roomTypes.marshal(t) }
func (t *RoomType) UnmarshalJSON(data []byte) error {
	return roomTypes.unmarshal(data, t)
}

func (s KeyStatus) String() string { return keyStatuses.name(s) }
func (s KeyStatus) Label() string  { return keyStatuses.label(s) }

func (s KeyStatus) MarshalJSON() ([]byte, error) { return keyStatuses.marshal(s) }
func (s *KeyStatus) UnmarshalJSON(data []byte) error {
	return keyStatuses.unmarshal(data, s)
}

// TenantTypes lists the selectable tenant types.
func TenantTypes() []TenantType { return tenantTypes.values() }

// RoomTypes lists the selectable room types.
func RoomTypes() []RoomType { return roomTypes.values() }

// ParseTenantType accepts "TEAM", "TENANT_TYPE_TEAM", the label or the
// enum number.
func ParseTenantType(raw string) (TenantType, bool) { return tenantTypes.parse(raw) }

// ParseRoomType accepts the same spellings as ParseTenantType.
func ParseRoomType(raw string) (RoomType, bool) { return roomTypes.parse(raw) }

type enumEntry[V ~int32] struct {
	value V
	name  string
	label string
}

type enumSet[V ~int32] struct {
	prefix  string
	entries []enumEntry[V]
}

func (s enumSet[V]) find(v V) (enumEntry[V], bool) {
	for _, entry := range s.entries {
		if entry.value == v {
			return entry, true
		}
	}
	return enumEntry[V]{}, false
}

func (s enumSet[V]) name(v V) string {
	if entry, ok := s.find(v); ok {
		return entry.name
	}
	return "UNSPECIFIED"
}

func (s enumSet[V]) label(v V) string {
	if entry, ok := s.find(v); ok {
		return entry.label
	}
	return "Unspecified"
}

func (s enumSet[V]) values() []V {
	out := make([]V, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.value)
	}
	return out
}

func (s enumSet[V]) parse(raw string) (V, bool) {
	trimmed := strings.TrimSpace(raw)
	upper := strings.TrimPrefix(strings.ToUpper(trimmed), s.prefix)
	for _, entry := range s.entries {
		if entry.name == upper || strings.EqualFold(entry.label, trimmed) {
			return entry.value, true
		}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 32); err == nil {
		if _, ok := s.find(V(n)); ok {
			return V(n), true
		}
	}
	return 0, false
}

func (s enumSet[V]) choices() []form.Choice {
	out := make([]form.Choice, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, form.Choice{Value: entry.name, Label: entry.label})
	}
	return out
}

// lookup indexes every accepted spelling for the form Enum transform.
func (s enumSet[V]) lookup() map[string]V {
	out := make(map[string]V, len(s.entries)*3)
	for _, entry := range s.entries {
		out[entry.name] = entry.value
		out[s.prefix+entry.name] = entry.value
		out[strconv.Itoa(int(entry.value))] = entry.value
	}
	return out
}

func (s enumSet[V]) transform() form.Transform {
	return form.Enum(s.lookup(), s.choices())
}

// marshal emits the wire name, as protojson does.
func (s enumSet[V]) marshal(v V) ([]byte, error) {
	return json.Marshal(s.prefix + s.name(v))
}

// unmarshal accepts wire names and enum numbers.
func (s enumSet[V]) unmarshal(data []byte, out *V) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if strings.TrimPrefix(name, s.prefix) == "UNSPECIFIED" {
			*out = 0
			return nil
		}
		value, ok := s.parse(name)
		if !ok {
			return fmt.Errorf("keyhub: unknown %s value %q", strings.TrimSuffix(strings.ToLower(s.prefix), "_"), name)
		}
		*out = value
		return nil
	}
	var n int32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("keyhub: decode %s: %w", strings.TrimSuffix(strings.ToLower(s.prefix), "_"), err)
	}
	*out = V(n)
	return nil
}
