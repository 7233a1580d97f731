package form

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDefinitionNotFound is returned when a registry lookup misses.
var ErrDefinitionNotFound = errors.New("form: definition not found")

// Registry stores form definitions by name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry creates a registry pre-populated with defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{definitions: make(map[string]Definition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Duplicate names return an error.
func (r *Registry) Register(def Definition) error {
	if def == nil {
		return fmt.Errorf("form: definition is required")
	}
	name := def.Name()
	if name == "" {
		return fmt.Errorf("form: definition name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; exists {
		return fmt.Errorf("form: definition %q already registered", name)
	}
	r.definitions[name] = def
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefinitionNotFound, name)
	}
	return def, nil
}

// List returns sorted definition names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a definition is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.definitions[name]
	return ok
}
