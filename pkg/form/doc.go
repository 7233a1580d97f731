// Package form holds the state of a form instance: field values, per-field
// messages and the revalidation queue, all driven through a schema.
//
// A Controller is generic over the record type. Bindings adapt one field to
// the value/change/blur/errors contract of an input widget, applying the
// field's Transform before the value reaches the controller. Definitions and
// Instances offer the same operations without the type parameter so prompt
// runners and HTTP handlers can drive any registered form.
package form
