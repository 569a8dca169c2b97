package dictionary

import (
	"errors"
	"sort"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// UnknownResourceError is returned when a resource has no registered schema.
type UnknownResourceError struct {
	Resource string
}

func (e *UnknownResourceError) Error() string {
	return "unknown resource: " + e.Resource
}

// ToError converts the error into a categorized error suitable for rendering.
func (e *UnknownResourceError) ToError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithCode(404).
		WithTextCode("UNKNOWN_RESOURCE").
		WithMetadata(map[string]any{"resource": e.Resource})
}

// IsUnknownResource reports whether err is an *UnknownResourceError.
func IsUnknownResource(err error) bool {
	var target *UnknownResourceError
	return errors.As(err, &target)
}

// Registry holds the immutable schemas of the resource catalogue.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry creates a registry and registers the given schemas.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]Schema)}
	if err := r.Register(schemas...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register normalizes, validates and stores the schemas. Registering a
// name twice replaces the earlier schema. Nothing is stored if any
// schema is invalid.
func (r *Registry) Register(schemas ...Schema) error {
	normalized := make([]Schema, 0, len(schemas))
	for _, s := range schemas {
		n := s.Normalize()
		if err := n.Validate(); err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range normalized {
		r.schemas[s.Name] = s
	}
	return nil
}

// Schema returns a copy of the schema registered under name.
func (r *Registry) Schema(name string) (Schema, error) {
	r.mu.RLock()
	s, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return Schema{}, &UnknownResourceError{Resource: name}
	}
	return s.Clone(), nil
}

// Names returns the registered resource names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
