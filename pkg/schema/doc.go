// Package schema declares record validators without reflection.
//
// A schema is built from typed field declarations, each bound to one member
// of the record through an accessor function:
//
//	type Tenant struct{ Name, Description string }
//
//	var tenantSchema = schema.MustObject(
//		schema.String("name", func(t *Tenant) *string { return &t.Name }).
//			Trim().Required().Max(15),
//		schema.String("description", func(t *Tenant) *string { return &t.Description }).
//			Trim().Optional().Max(300),
//	)
//
// Fields run their normalisers (trim, markup stripping) before their rules,
// and every rule is evaluated so a field can report several issues at once.
// Results never carry Go errors for invalid input: failures are Issues with
// JSON Pointer paths, the same shape backends return in validation payloads.
package schema
