package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// Cloner is implemented by values with mutable state. The in-memory
// stores copy such values on Set and Get so callers never share an entry
// with the cache.
type Cloner[V any] interface {
	Clone() V
}

func cloneValue[V any](v V) V {
	if c, ok := any(v).(Cloner[V]); ok {
		return c.Clone()
	}
	return v
}

// SturdycStore is a sharded in-memory store backed by a sturdyc client.
type SturdycStore[V any] struct {
	client *sturdyc.Client[V]
}

// NewSturdycStore validates cfg and creates the store.
func NewSturdycStore[V any](cfg MemoryConfig) (*SturdycStore[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[V](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		opts...,
	)
	return &SturdycStore[V]{client: client}, nil
}

// Get returns a copy of the entry stored under key.
func (s *SturdycStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	v, ok := s.client.Get(key)
	if !ok {
		return v, false, nil
	}
	return cloneValue(v), true, nil
}

// Set stores a copy of value under key, overwriting any entry.
func (s *SturdycStore[V]) Set(_ context.Context, key string, value V) error {
	s.client.Set(key, cloneValue(value))
	return nil
}

// Delete removes a single entry.
func (s *SturdycStore[V]) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (s *SturdycStore[V]) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	removed := 0
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries.
func (s *SturdycStore[V]) Len() int {
	return s.client.Size()
}
