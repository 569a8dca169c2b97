package params

import "github.com/goliatone/go-resource-query/dictionary"

// Params is the normalized, validated parameter set of one request,
// keyed by field name and kept in dictionary order.
type Params struct {
	order   []string
	values  map[string]string
	storage map[string]string
}

func newParams(size int) Params {
	return Params{
		order:   make([]string, 0, size),
		values:  make(map[string]string, size),
		storage: make(map[string]string, size),
	}
}

func (p *Params) set(f dictionary.Field, v string) {
	if _, ok := p.values[f.Name]; !ok {
		p.order = append(p.order, f.Name)
	}
	p.values[f.Name] = v
	p.storage[f.Name] = f.Storage
}

// Get returns the final value of the named field.
func (p Params) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether the named field carries a value.
func (p Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Storage returns the storage name of a field present in the set.
func (p Params) Storage(name string) string {
	return p.storage[name]
}

// Names returns the present field names in dictionary order.
func (p Params) Names() []string {
	return append([]string(nil), p.order...)
}

// Len returns the number of present fields.
func (p Params) Len() int {
	return len(p.order)
}

// Map returns a copy of the values keyed by field name.
func (p Params) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// ByStorage returns the values keyed by storage name, skipping fields
// that have none.
func (p Params) ByStorage() map[string]string {
	out := make(map[string]string, len(p.values))
	for name, v := range p.values {
		if s := p.storage[name]; s != "" {
			out[s] = v
		}
	}
	return out
}

// Subset returns the values of the fields whose mode is mode, keyed by
// field name.
func (p Params) Subset(schema dictionary.Schema, mode dictionary.Mode) map[string]string {
	out := map[string]string{}
	for _, f := range schema.Fields {
		if f.Mode != mode {
			continue
		}
		if v, ok := p.values[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
