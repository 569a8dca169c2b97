// Package source implements the live side of a resource query: a local
// SQL table, a go-repository-bun repository, or an upstream HTTP API.
package source

import (
	"context"
	"strconv"
	"sync"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/params"
	"github.com/goliatone/go-resource-query/predicate"
)

const (
	// PageParam and SizeParam name the paging fields a schema may declare.
	PageParam = "page"
	SizeParam = "size"

	DefaultSize = 30
	MaxSize     = 1000
)

// Request is everything a source needs to run one query.
type Request struct {
	Schema    dictionary.Schema
	Params    params.Params
	Predicate predicate.Predicate
}

// ResourceID returns the identity value when the request targets a
// single record.
func (r Request) ResourceID() (string, bool) {
	return predicate.ResourceID(r.Schema, r.Params)
}

// Page returns the 1-based page and the page size, clamped to sane bounds.
func (r Request) Page() (page, size int) {
	page, size = 1, DefaultSize
	if v, ok := r.Params.Get(PageParam); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v, ok := r.Params.Get(SizeParam); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	if size > MaxSize {
		size = MaxSize
	}
	return page, size
}

// Source produces fresh data for a request. found is false when the
// source has nothing for the request; that is not an error.
type Source interface {
	Fetch(ctx context.Context, req Request) (payload cache.Payload, found bool, err error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, req Request) (cache.Payload, bool, error)

func (f Func) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	return f(ctx, req)
}

// FetchFn binds a source to one request for the resolver.
func FetchFn(src Source, req Request) cache.FetchFn {
	return func(ctx context.Context) (cache.Payload, bool, error) {
		return src.Fetch(ctx, req)
	}
}

// Router dispatches to a source by the schema's source kind.
type Router map[dictionary.SourceKind]Source

// Fetch runs the source registered for the request's schema.
func (r Router) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	src, ok := r[req.Schema.Source]
	if !ok {
		return cache.Payload{}, false, &UnsupportedSourceError{Resource: req.Schema.Name, Kind: req.Schema.Source}
	}
	return src.Fetch(ctx, req)
}

// UnsupportedSourceError is returned when no source serves a schema's kind.
type UnsupportedSourceError struct {
	Resource string
	Kind     dictionary.SourceKind
}

func (e *UnsupportedSourceError) Error() string {
	return "no " + string(e.Kind) + " source configured for " + e.Resource
}

// Mux routes by resource name first and falls back to a Router keyed by
// source kind. It is safe for concurrent use.
type Mux struct {
	mu        sync.RWMutex
	resources map[string]Source
	kinds     Router
}

// NewMux creates a mux falling back to kinds.
func NewMux(kinds Router) *Mux {
	if kinds == nil {
		kinds = Router{}
	}
	return &Mux{resources: map[string]Source{}, kinds: kinds}
}

// Handle serves resource from src, replacing any earlier registration.
func (m *Mux) Handle(resource string, src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[resource] = src
}

func (m *Mux) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	m.mu.RLock()
	src, ok := m.resources[req.Schema.Name]
	m.mu.RUnlock()
	if ok {
		return src.Fetch(ctx, req)
	}
	return m.kinds.Fetch(ctx, req)
}
