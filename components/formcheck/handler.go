package formcheck

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-keyforms/pkg/form"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Request is the body of both validation routes.
type Request struct {
	Values map[string]string `json:"values"`
}

// Result is the whole-record validation reply. Value holds the normalised
// record when OK is true.
type Result struct {
	OK         bool                `json:"ok"`
	Value      any                 `json:"value,omitempty"`
	Errors     map[string][]string `json:"errors"`
	FormErrors []string            `json:"formErrors"`
}

// FieldResult is the single-field validation reply.
type FieldResult struct {
	Field  string   `json:"field"`
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// Summary describes one definition in the listing.
type Summary struct {
	Name   string           `json:"name"`
	Title  string           `json:"title"`
	Fields []form.FieldMeta `json:"fields"`
}

type listResponse struct {
	Data []Summary `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds a router for the default options plus overrides.
func NewHandler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the router for a pre-constructed Options value.
// Routes are mounted under opts.RoutePath.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	h := &handler{opts: opts}

	root := mountPath("", opts.RoutePath)
	router := mux.NewRouter()
	router.HandleFunc(root, h.list).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(root+"/{form}/validate", h.validate).Methods(http.MethodPost)
	router.HandleFunc(root+"/{form}/fields/{field}", h.field).Methods(http.MethodPost)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, StatusError{Code: http.StatusNotFound})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, StatusError{Code: http.StatusMethodNotAllowed})
	})
	if opts.Guard != nil {
		router.Use(guardMiddleware(opts.Guard))
	}
	return router
}

type handler struct {
	opts Options
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	names := h.opts.Registry.List()
	data := make([]Summary, 0, len(names))
	for _, name := range names {
		def, err := h.opts.Registry.Get(name)
		if err != nil {
			continue
		}
		data = append(data, Summary{Name: def.Name(), Title: def.Title(), Fields: def.Fields()})
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: data})
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	inst, req, err := h.prepare(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rejected, err := apply(inst, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}

	value, issues := inst.Validate()
	result := Result{
		OK:         len(issues) == 0 && len(rejected) == 0,
		Errors:     nonEmpty(inst.Errors()),
		FormErrors: inst.FormErrors(),
	}
	for name, messages := range rejected {
		result.Errors[name] = append(messages, result.Errors[name]...)
	}
	if result.FormErrors == nil {
		result.FormErrors = []string{}
	}

	status := http.StatusUnprocessableEntity
	if result.OK {
		result.Value = value
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (h *handler) field(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["field"]
	inst, req, err := h.prepare(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasField(inst, name) {
		writeError(w, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("unknown field %q", name)})
		return
	}
	rejected, err := apply(inst, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, ok := rejected[name]
	if !ok {
		messages = inst.Blur(name)
	}
	writeJSON(w, http.StatusOK, FieldResult{Field: name, OK: len(messages) == 0, Errors: messages})
}

func (h *handler) prepare(w http.ResponseWriter, r *http.Request) (form.Instance, Request, error) {
	var req Request
	def, err := h.opts.Registry.Get(mux.Vars(r)["form"])
	if err != nil {
		return nil, req, StatusError{Code: http.StatusNotFound, Err: err}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, req, StatusError{Code: http.StatusRequestEntityTooLarge}
		}
		return nil, req, StatusError{Code: http.StatusBadRequest, Err: err}
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, req, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("invalid request body: %w", err)}
	}

	inst, err := def.Instantiate()
	if err != nil {
		h.opts.Logger.Error("formcheck: instantiate form", "form", def.Name(), "error", err)
		return nil, req, StatusError{Code: http.StatusInternalServerError}
	}
	return inst, req, nil
}

// apply routes raw values through the instance in presentation order and
// returns the conversion failures by field.
func apply(inst form.Instance, values map[string]string) (map[string][]string, error) {
	for name := range values {
		if !hasField(inst, name) {
			return nil, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("unknown field %q", name)}
		}
	}
	rejected := make(map[string][]string)
	for _, meta := range inst.Fields() {
		raw, ok := values[meta.Name]
		if !ok {
			continue
		}
		if meta.Transform != nil {
			if _, err := meta.Transform(raw); err != nil {
				rejected[meta.Name] = []string{err.Error()}
				continue
			}
		}
		if err := inst.Change(meta.Name, raw); err != nil {
			return nil, StatusError{Code: http.StatusBadRequest, Err: err}
		}
	}
	return rejected, nil
}

func hasField(inst form.Instance, name string) bool {
	for _, meta := range inst.Fields() {
		if meta.Name == name {
			return true
		}
	}
	return false
}

func nonEmpty(errs form.Errors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for name, messages := range errs {
		if len(messages) > 0 {
			out[name] = messages
		}
	}
	return out
}

func guardMiddleware(guard GuardFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	writeJSON(w, code, errorResponse{Error: http.StatusText(code)})
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.StatusCode()
	}
	message := http.StatusText(code)
	if code < http.StatusInternalServerError {
		message = err.Error()
	}
	writeJSON(w, code, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}
