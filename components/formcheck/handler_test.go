package formcheck

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-keyforms/internal/keyhub"
	"github.com/goliatone/go-keyforms/pkg/form"
	"github.com/goliatone/go-keyforms/pkg/testsupport"
)

const roomID = "550e8400-e29b-41d4-a716-446655440000"

func testHandler(t *testing.T, fns ...OptionFn) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	registry, err := keyhub.NewForms(now).Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewHandler(append([]OptionFn{WithRegistry(registry)}, fns...)...)
}

func serve(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandler_ListsDefinitions(t *testing.T) {
	rec := serve(t, testHandler(t), http.MethodGet, "/forms", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}

	payload := decode[listResponse](t, rec)
	names := make([]string, 0, len(payload.Data))
	for _, summary := range payload.Data {
		names = append(names, summary.Name)
	}
	want := []string{"assign-room", "console-login", "join-code", "join-tenant", "key", "room", "tenant"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	for _, summary := range payload.Data {
		if summary.Name == keyhub.FormKey && len(summary.Fields) != 2 {
			t.Fatalf("expected key form to expose two fields, got %v", summary.Fields)
		}
	}
}

func TestHandler_ValidateSuccessReturnsNormalisedValue(t *testing.T) {
	body := `{"values":{"roomId":" ` + roomID + ` ","keyNumber":" K-12 "}}`
	rec := serve(t, testHandler(t), http.MethodPost, "/forms/key/validate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		OK         bool                `json:"ok"`
		Value      keyhub.KeyInput     `json:"value"`
		Errors     map[string][]string `json:"errors"`
		FormErrors []string            `json:"formErrors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.OK {
		t.Fatalf("expected ok, got %s", rec.Body.String())
	}
	if diff := cmp.Diff(keyhub.KeyInput{RoomID: roomID, KeyNumber: "K-12"}, payload.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if len(payload.Errors) != 0 || len(payload.FormErrors) != 0 {
		t.Fatalf("expected no messages, got %v %v", payload.Errors, payload.FormErrors)
	}
}

func TestHandler_ValidateFailureReportsFieldErrors(t *testing.T) {
	body := `{"values":{"roomId":"nope","keyNumber":""}}`
	rec := serve(t, testHandler(t), http.MethodPost, "/forms/key/validate", body, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	golden := filepath.Join("testdata", "key_validate_invalid.golden.json")
	if diff := testsupport.CompareGoldenJSON(t, golden, rec.Body.Bytes()); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_ListMatchesGolden(t *testing.T) {
	registry, err := form.NewRegistry(keyhub.NewForms(nil).Key)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	rec := serve(t, NewHandler(WithRegistry(registry)), http.MethodGet, "/forms", "", nil)
	golden := filepath.Join("testdata", "key_list.golden.json")
	if diff := testsupport.CompareGoldenJSON(t, golden, rec.Body.Bytes()); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_ValidateMergesConversionFailures(t *testing.T) {
	body := `{"values":{"name":"Lab","tenantType":"GUILD"}}`
	rec := serve(t, testHandler(t), http.MethodPost, "/forms/tenant/validate", body, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decode[Result](t, rec)
	if payload.OK {
		t.Fatalf("expected rejected conversion to fail the record")
	}
	if len(payload.Errors["tenantType"]) == 0 {
		t.Fatalf("expected tenantType message, got %v", payload.Errors)
	}
	if _, ok := payload.Errors["name"]; ok {
		t.Fatalf("name should be valid, got %v", payload.Errors["name"])
	}
}

func TestHandler_FieldValidation(t *testing.T) {
	h := testHandler(t)

	rec := serve(t, h, http.MethodPost, "/forms/join-tenant/fields/joinCode", `{"values":{"joinCode":"abc-123"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decode[FieldResult](t, rec)
	want := FieldResult{Field: "joinCode", OK: false, Errors: []string{"join code must contain only letters and digits"}}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	rec = serve(t, h, http.MethodPost, "/forms/join-tenant/fields/joinCode", `{"values":{"joinCode":"ABC123"}}`, nil)
	payload = decode[FieldResult](t, rec)
	if !payload.OK || len(payload.Errors) != 0 {
		t.Fatalf("expected valid code, got %+v", payload)
	}
}

func TestHandler_FieldValidationIgnoresOtherFields(t *testing.T) {
	body := `{"values":{"name":"Lab","tenantType":"GUILD"}}`
	rec := serve(t, testHandler(t), http.MethodPost, "/forms/tenant/fields/name", body, nil)
	payload := decode[FieldResult](t, rec)
	if !payload.OK {
		t.Fatalf("expected name to pass on its own, got %+v", payload)
	}
}

func TestHandler_Errors(t *testing.T) {
	h := testHandler(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown form", http.MethodPost, "/forms/missing/validate", `{"values":{}}`, http.StatusNotFound},
		{"unknown field route", http.MethodPost, "/forms/key/fields/colour", `{"values":{}}`, http.StatusNotFound},
		{"unknown field value", http.MethodPost, "/forms/key/validate", `{"values":{"colour":"red"}}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/forms/key/validate", `{"values":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/forms/key/validate", "", http.StatusMethodNotAllowed},
		{"unrouted", http.MethodGet, "/elsewhere", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, h, tc.method, tc.path, tc.body, nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if payload := decode[errorResponse](t, rec); payload.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestHandler_BodyLimit(t *testing.T) {
	h := testHandler(t, WithMaxBodyBytes(16))
	body := `{"values":{"keyNumber":"` + strings.Repeat("k", 64) + `"}}`
	rec := serve(t, h, http.MethodPost, "/forms/key/validate", body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHandler_BearerGuard(t *testing.T) {
	h := testHandler(t, WithGuard(BearerGuard("s3cret")))

	rec := serve(t, h, http.MethodGet, "/forms", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = serve(t, h, http.MethodGet, "/forms", "", http.Header{"Authorization": {"Bearer s3cret"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GuardWithoutStatusIsForbidden(t *testing.T) {
	h := testHandler(t, WithGuard(func(*http.Request) error { return errors.New("nope") }))
	rec := serve(t, h, http.MethodGet, "/forms", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
