package formcheck

import (
	"net/http"

	"github.com/goliatone/go-keyforms/pkg/form"
)

// Component serves one registry. The router for the configured route path
// is built once; RegisterRoutes builds another for the joined mount prefix.
type Component struct {
	opts    Options
	handler http.Handler
}

// New builds a component from the default options plus overrides.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts, handler: HandlerWithOptions(opts)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return NewOptions()
	}
	return c.opts
}

// Registry returns the definitions the component validates against.
func (c *Component) Registry() *form.Registry {
	return c.Options().Registry
}

// Handler serves the routes at RoutePath without a base path.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return NewHandler()
	}
	return c.handler
}

// RegisterRoutes mounts the component under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, c.Options())
}
