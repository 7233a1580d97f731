// Package formcheck serves form definitions over HTTP so non-Go clients can
// reuse the same validation rules.
//
// Routes, relative to the configured route path (default /forms):
//
//	GET  /forms                          list definitions and their fields
//	POST /forms/{form}/validate          validate a whole record
//	POST /forms/{form}/fields/{field}    validate one field
//
// Request bodies carry raw widget input as strings: {"values": {"name": "Lab"}}.
// Values go through the same transforms as interactive input, so "10" becomes
// an integer and "Laboratory" an enum member before the rules run. An invalid
// record answers 422 with the messages grouped per field.
package formcheck
