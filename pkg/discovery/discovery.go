// Package discovery enumerates the resource types known to a test process.
//
// Names starting with an underscore mark internal entries; they are listed
// here like any other and left for consumers to skip.
package discovery

import (
	"errors"
	"fmt"
	"sync"

	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// Errors.
var (
	ErrDuplicateResource = errors.New("resource already registered")
	ErrInvalidResource   = errors.New("invalid resource registration")
)

// Discoverer enumerates resource types by name.
type Discoverer interface {
	// Discover returns a mapping from resource name to resource type.
	Discover() (map[string]*resource.Type, error)
}

// Func adapts a plain function to Discoverer.
type Func func() (map[string]*resource.Type, error)

// Discover calls f.
func (f Func) Discover() (map[string]*resource.Type, error) {
	return f()
}

// Registry is an in-process Discoverer. Thread-safe.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]*resource.Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]*resource.Type),
	}
}

// Register adds a resource type under name.
func (r *Registry) Register(name string, t *resource.Type) error {
	if name == "" || t == nil {
		return fmt.Errorf("%w: name %q", ErrInvalidResource, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, name)
	}
	r.resources[name] = t
	return nil
}

// Lookup returns the resource type registered under name.
func (r *Registry) Lookup(name string) (*resource.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.resources[name]
	return t, ok
}

// Size returns the number of registered resources.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Discover returns a copy of the registered resources.
func (r *Registry) Discover() (map[string]*resource.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*resource.Type, len(r.resources))
	for name, t := range r.resources {
		result[name] = t
	}
	return result, nil
}
