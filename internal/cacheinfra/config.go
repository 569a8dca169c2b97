package cacheinfra

import "time"

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// MemoryConfig holds the options of the sharded in-memory store.
type MemoryConfig struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the lifetime of an entry. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when a shard is
	// full. Must be between 1 and 100. Default: 10
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero keeps the library default.
	EvictionInterval time.Duration
}

// DefaultMemoryConfig returns the defaults used when no configuration is given.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks the memory store options.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// LRUConfig holds the options of the bounded LRU store.
type LRUConfig struct {
	// Size is the maximum number of entries. Must be greater than 0.
	Size int

	// TTL expires entries after the given duration. Zero disables expiry.
	TTL time.Duration
}

// DefaultLRUConfig returns the LRU defaults.
func DefaultLRUConfig() LRUConfig {
	return LRUConfig{Size: 1024, TTL: 5 * time.Minute}
}

// Validate checks the LRU options.
func (c LRUConfig) Validate() error {
	if c.Size <= 0 {
		return &ConfigError{Field: "Size", Message: "must be greater than 0"}
	}
	if c.TTL < 0 {
		return &ConfigError{Field: "TTL", Message: "must be non-negative"}
	}
	return nil
}

// RedisConfig holds the options of the Redis store.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	// Prefix namespaces every key written by the store.
	Prefix string

	// TTL is the entry lifetime. Zero stores entries without expiry.
	TTL time.Duration

	// DialTimeout, ReadTimeout and WriteTimeout bound every round trip so
	// a slow server degrades to a cache miss instead of stalling a request.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxKeyLength caps the stored key length. Longer keys keep their
	// leading part and get an xxhash digest suffix. Zero disables capping;
	// otherwise it must leave room for the prefix, a short head and the
	// digest.
	MaxKeyLength int
}

// DefaultRedisConfig returns the Redis defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Prefix:       "resq:",
		TTL:          10 * time.Minute,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxKeyLength: 512,
	}
}

// Validate checks the Redis options.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "cannot be empty"}
	}
	if c.DB < 0 {
		return &ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	if c.TTL < 0 || c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return &ConfigError{Field: "Timeouts", Message: "must be non-negative"}
	}
	if c.MaxKeyLength != 0 && c.MaxKeyLength < len(c.Prefix)+minKeyHead+maxDigestLen {
		return &ConfigError{Field: "MaxKeyLength", Message: "too small for the prefix and digest"}
	}
	return nil
}
