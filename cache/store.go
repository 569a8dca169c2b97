package cache

import (
	"context"
	"encoding/json"
	"maps"
)

// NothingFound is the error text of the Empty payload.
const NothingFound = "nothing found"

// Record is one result row.
type Record = map[string]any

// Payload is the value returned to callers and stored in the cache.
type Payload struct {
	Data  []Record       `json:"data" msgpack:"data"`
	Meta  map[string]any `json:"-" msgpack:"meta,omitempty"`
	Error string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Empty returns the terminal payload served when neither the cache nor
// the live source can satisfy a request.
func Empty() Payload {
	return Payload{Data: []Record{}, Error: NothingFound}
}

// IsEmpty reports whether p is the terminal Empty payload.
func (p Payload) IsEmpty() bool {
	return p.Error == NothingFound && len(p.Data) == 0
}

// Clone copies the payload with its own data slice, records and meta
// map. Values nested inside a record are shared.
func (p Payload) Clone() Payload {
	out := Payload{Meta: maps.Clone(p.Meta), Error: p.Error}
	if p.Data != nil {
		out.Data = make([]Record, len(p.Data))
		for i, r := range p.Data {
			out.Data[i] = maps.Clone(r)
		}
	}
	return out
}

// MarshalJSON flattens Meta next to data and error. The data and error
// keys always win over metadata with the same name.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Meta)+2)
	for k, v := range p.Meta {
		out[k] = v
	}
	data := p.Data
	if data == nil {
		data = []Record{}
	}
	out["data"] = data
	if p.Error != "" {
		out["error"] = p.Error
	} else {
		delete(out, "error")
	}
	return json.Marshal(out)
}

// FetchFn produces a fresh payload from the live source. found reports
// whether the source had data; a false found with a nil error is a normal
// outcome, not a failure.
type FetchFn func(ctx context.Context) (payload Payload, found bool, err error)

// Store is the key/value contract the resolver relies on. Set overwrites
// unconditionally. Implementations must be safe for concurrent use and
// keep their own latency bounded.
type Store interface {
	Get(ctx context.Context, key string) (Payload, bool, error)
	Set(ctx context.Context, key string, value Payload) error
}

// Deleter is implemented by stores that support removal.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// PrefixDeleter is implemented by stores that can drop a key range.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// StoreError reports a failed cache write. It never fails a request.
type StoreError struct {
	Key string
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "cache " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
