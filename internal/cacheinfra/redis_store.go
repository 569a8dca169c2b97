package cacheinfra

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// minKeyHead is the shortest readable key head kept before a digest.
	minKeyHead = 8
	// maxDigestLen is the longest digest suffix: "#" and 16 hex digits.
	maxDigestLen = 17
)

// RedisStore keeps msgpack-encoded entries in Redis.
type RedisStore[V any] struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	maxKeyLen int
	owned     bool
}

// NewRedisClient builds a client from cfg.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}), nil
}

// NewRedisStore wraps an existing client. The client is owned by the caller.
func NewRedisStore[V any](client redis.UniversalClient, cfg RedisConfig) (*RedisStore[V], error) {
	if client == nil {
		return nil, &ConfigError{Field: "Client", Message: "cannot be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RedisStore[V]{
		client:    client,
		prefix:    cfg.Prefix,
		ttl:       cfg.TTL,
		maxKeyLen: cfg.MaxKeyLength,
	}, nil
}

// DialRedisStore dials a client from cfg. The store owns the client and
// closes it on Close.
func DialRedisStore[V any](cfg RedisConfig) (*RedisStore[V], error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewRedisStore[V](client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Close closes the client when the store dialed it.
func (s *RedisStore[V]) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// StorageKey returns the Redis key used for key.
func (s *RedisStore[V]) StorageKey(key string) string {
	full := s.prefix + key
	if s.maxKeyLen == 0 || len(full) <= s.maxKeyLen {
		return full
	}
	digest := "#" + strconv.FormatUint(xxhash.Sum64String(key), 16)
	// The prefix always survives so DeleteByPrefix still matches.
	head := max(s.maxKeyLen-len(digest), len(s.prefix))
	return full[:head] + digest
}

func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := s.client.Get(ctx, s.StorageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *RedisStore[V]) Set(ctx context.Context, key string, value V) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.StorageKey(key), data, s.ttl).Err()
}

func (s *RedisStore[V]) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.StorageKey(key)).Err()
}

// DeleteByPrefix scans for keys starting with prefix and deletes them.
func (s *RedisStore[V]) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	match := escapeGlob(s.prefix+prefix) + "*"

	removed := 0
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, 256).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
