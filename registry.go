package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps names to schemas so one schema can reuse another by name.
// A name can be registered only once.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*Schema{}}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by New, Named,
// Register and Get.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register stores s under name.
func (r *Registry) Register(name string, s *Schema) error {
	if name == "" {
		return ErrInvalidName
	}
	if s == nil {
		return ErrNilSchema
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	r.schemas[name] = s
	return nil
}

// Get returns the schema registered under name or ErrNotRegistered.
func (r *Registry) Get(name string) (*Schema, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	s, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return s, nil
}

// Lookup is the non-strict variant of Get.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	s, ok := r.schemas[name]
	r.mu.RUnlock()
	return s, ok
}

// Names lists registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates an empty required schema bound to r for name lookups.
func (r *Registry) New() *Schema {
	return &Schema{reg: r}
}

// Named creates a schema and registers it under name.
func (r *Registry) Named(name string) (*Schema, error) {
	s := r.New()
	if err := r.Register(name, s); err != nil {
		return nil, err
	}
	return s, nil
}

// New creates a schema bound to the default registry.
func New() *Schema { return defaultRegistry.New() }

// Named creates a schema registered in the default registry.
func Named(name string) (*Schema, error) { return defaultRegistry.Named(name) }

// Register stores s in the default registry.
func Register(name string, s *Schema) error { return defaultRegistry.Register(name, s) }

// Get looks name up in the default registry.
func Get(name string) (*Schema, error) { return defaultRegistry.Get(name) }

// Lookup is the non-strict variant of Get on the default registry.
func Lookup(name string) (*Schema, bool) { return defaultRegistry.Lookup(name) }
