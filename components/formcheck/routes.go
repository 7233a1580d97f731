package formcheck

import (
	"errors"
	"net/http"
	"strings"
)

// Mux accepts the handler. *http.ServeMux and *mux.Router both satisfy it.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

var errMissingMux = errors.New("formcheck: missing mux")

// MountPath joins basePath and the configured route path, the prefix every
// formcheck route lives under.
func MountPath(basePath string, fns ...OptionFn) string {
	return mountPath(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes mounts the listing and validation routes under basePath.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions mounts a router built from opts and returns the
// mount prefix. The router matches complete request paths, so it is built
// for the joined prefix and registered for both the listing path and the
// subtree below it.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", errMissingMux
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	prefix := mountPath(basePath, opts.RoutePath)
	opts.RoutePath = prefix

	router := HandlerWithOptions(opts)
	mux.Handle(prefix, router)
	mux.Handle(prefix+"/", router)
	return prefix, nil
}

// mountPath normalises both parts to a single leading slash and no trailing
// slash. An empty route path falls back to /forms.
func mountPath(basePath, routePath string) string {
	routePath = "/" + strings.Trim(strings.TrimSpace(routePath), "/")
	if routePath == "/" {
		routePath = "/forms"
	}
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return routePath
	}
	return "/" + basePath + routePath
}
