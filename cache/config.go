package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-resource-query/internal/cacheinfra"
)

// Backend selects the Store implementation.
type Backend string

const (
	// BackendMemory is a sharded in-process store with TTL expiry.
	BackendMemory Backend = "memory"
	// BackendLRU is a bounded in-process store with LRU eviction.
	BackendLRU Backend = "lru"
	// BackendRedis keeps entries in an external Redis server.
	BackendRedis Backend = "redis"
)

type (
	// MemoryConfig configures BackendMemory.
	MemoryConfig = cacheinfra.MemoryConfig
	// LRUConfig configures BackendLRU.
	LRUConfig = cacheinfra.LRUConfig
	// RedisConfig configures BackendRedis.
	RedisConfig = cacheinfra.RedisConfig
	// ConfigError reports an invalid option.
	ConfigError = cacheinfra.ConfigError
)

// Config exposes store configuration for consumers of the cache package.
// Only the section matching Backend is used.
type Config struct {
	Backend Backend
	Memory  MemoryConfig
	LRU     LRUConfig
	Redis   RedisConfig
}

// DefaultConfig returns a memory-backed configuration with default options
// for every backend.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Memory:  cacheinfra.DefaultMemoryConfig(),
		LRU:     cacheinfra.DefaultLRUConfig(),
		Redis:   cacheinfra.DefaultRedisConfig(),
	}
}

// Validate checks the section selected by Backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
		return c.Memory.Validate()
	case BackendLRU:
		return c.LRU.Validate()
	case BackendRedis:
		return c.Redis.Validate()
	}
	return &ConfigError{Field: "Backend", Message: fmt.Sprintf("unknown backend %q", c.Backend)}
}

// StoreOption customizes NewStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	redisClient redis.UniversalClient
}

// WithRedisClient makes NewStore reuse client instead of dialing its own.
func WithRedisClient(client redis.UniversalClient) StoreOption {
	return func(o *storeOptions) {
		o.redisClient = client
	}
}

// NewStore builds the Store selected by cfg.Backend. A redis store that
// dials its own client implements io.Closer.
func NewStore(cfg Config, opts ...StoreOption) (Store, error) {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Backend {
	case BackendMemory, "":
		s, err := cacheinfra.NewSturdycStore[Payload](cfg.Memory)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendLRU:
		s, err := cacheinfra.NewLRUStore[Payload](cfg.LRU)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		if o.redisClient == nil {
			s, err := cacheinfra.DialRedisStore[Payload](cfg.Redis)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		s, err := cacheinfra.NewRedisStore[Payload](o.redisClient, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, &ConfigError{Field: "Backend", Message: fmt.Sprintf("unknown backend %q", cfg.Backend)}
}
