package form_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-keyforms/pkg/form"
)

func tenantFields() []form.FieldMeta {
	return []form.FieldMeta{
		{Name: "name", Label: "Name", Kind: form.KindText, Required: true},
		{Name: "description", Label: "Description", Kind: form.KindTextArea},
		{Name: "kind", Label: "Kind", Kind: form.KindChoice, Options: kindChoices, Transform: form.Enum(kindValues, kindChoices), Required: true},
		{Name: "seats", Label: "Seats", Kind: form.KindNumber, Transform: form.Integer[int32]()},
		{Name: "joinCode", Label: "Join code", Kind: form.KindText},
	}
}

func tenantDefinition(t *testing.T) *form.Typed[tenant] {
	t.Helper()
	def, err := form.Define[tenant]("tenant", "Create tenant", tenantSchema(), tenantFields(), func() map[string]any {
		return map[string]any{"kind": kindTeam}
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	return def
}

func TestDefine_RequiresCompleteMetadata(t *testing.T) {
	fields := tenantFields()[:4]
	if _, err := form.Define[tenant]("tenant", "", tenantSchema(), fields, nil); !errors.Is(err, form.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for missing metadata, got %v", err)
	}

	extra := append(tenantFields(), form.FieldMeta{Name: "ghost"})
	if _, err := form.Define[tenant]("tenant", "", tenantSchema(), extra, nil); !errors.Is(err, form.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for unknown field, got %v", err)
	}
}

func TestInstance_ChangeBlurValidate(t *testing.T) {
	def := tenantDefinition(t)
	inst, err := def.Instantiate(form.WithInitialValues(map[string]any{"name": "Lab"}))
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if got := inst.Display("kind"); got != "1" {
		t.Fatalf("defaults should seed kind, got %q", got)
	}
	if err := inst.Change("seats", "7"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := inst.Change("joinCode", "ab"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if msgs := inst.Blur("joinCode"); len(msgs) != 1 {
		t.Fatalf("expected one join code message, got %v", msgs)
	}

	value, issues := inst.Validate()
	if value != nil || len(issues) != 1 {
		t.Fatalf("expected single failure, got value=%v issues=%v", value, issues)
	}

	if err := inst.Change("joinCode", "abcdef"); err != nil {
		t.Fatalf("change: %v", err)
	}
	value, issues = inst.Validate()
	if len(issues) != 0 {
		t.Fatalf("expected success, got %v", issues)
	}
	want := tenant{Name: "Lab", Kind: kindTeam, Seats: 7, JoinCode: "abcdef"}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestInstance_CallerValuesWinOverDefaults(t *testing.T) {
	def := tenantDefinition(t)
	mounted, err := def.Open(form.WithInitialValues(map[string]any{"kind": kindProject}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := mounted.Controller().State().Kind; got != kindProject {
		t.Fatalf("expected caller value, got %v", got)
	}
}

func TestInstances_DoNotShareState(t *testing.T) {
	def := tenantDefinition(t)
	a, _ := def.Instantiate()
	b, _ := def.Instantiate()
	if err := a.Change("name", "Alpha"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got, _ := b.Value("name"); got != "" {
		t.Fatalf("instances share state: %v", got)
	}
}

func TestRegistry(t *testing.T) {
	reg, err := form.NewRegistry(tenantDefinition(t))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := reg.Register(tenantDefinition(t)); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if _, err := reg.Get("room"); !errors.Is(err, form.ErrDefinitionNotFound) {
		t.Fatalf("expected ErrDefinitionNotFound, got %v", err)
	}
	def, err := reg.Get("tenant")
	if err != nil || def.Title() != "Create tenant" {
		t.Fatalf("unexpected lookup result %v (%v)", def, err)
	}
	if diff := cmp.Diff([]string{"tenant"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}
