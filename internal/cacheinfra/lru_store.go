package cacheinfra

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// lruCache is the method set shared by the plain and expirable LRU caches.
type lruCache[V any] interface {
	Add(key string, value V) bool
	Get(key string) (V, bool)
	Remove(key string) bool
	Keys() []string
	Len() int
}

// LRUStore is a bounded in-memory store that evicts the least recently
// used entry when full.
type LRUStore[V any] struct {
	cache lruCache[V]
}

// NewLRUStore validates cfg and creates the store. A positive TTL selects
// the expirable variant.
func NewLRUStore[V any](cfg LRUConfig) (*LRUStore[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.TTL > 0 {
		return &LRUStore[V]{cache: expirable.NewLRU[string, V](cfg.Size, nil, cfg.TTL)}, nil
	}

	c, err := lru.New[string, V](cfg.Size)
	if err != nil {
		return nil, err
	}
	return &LRUStore[V]{cache: c}, nil
}

func (s *LRUStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return v, false, nil
	}
	return cloneValue(v), true, nil
}

func (s *LRUStore[V]) Set(_ context.Context, key string, value V) error {
	s.cache.Add(key, cloneValue(value))
	return nil
}

func (s *LRUStore[V]) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *LRUStore[V]) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	removed := 0
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) && s.cache.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries.
func (s *LRUStore[V]) Len() int {
	return s.cache.Len()
}
