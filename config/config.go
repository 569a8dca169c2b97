// Package config loads process configuration from defaults, an optional
// YAML file and RESQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/source"
)

// EnvPrefix is prepended to environment overrides, e.g. RESQ_CACHE_BACKEND.
const EnvPrefix = "RESQ"

type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Catalogue CatalogueConfig `mapstructure:"catalogue"`
	Log       LogConfig       `mapstructure:"log"`
}

type CacheConfig struct {
	Backend            string        `mapstructure:"backend"`
	Capacity           int           `mapstructure:"capacity"`
	Shards             int           `mapstructure:"shards"`
	TTL                time.Duration `mapstructure:"ttl"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	LRUSize            int           `mapstructure:"lru_size"`
	Redis              RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Prefix       string        `mapstructure:"prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxKeyLength int           `mapstructure:"max_key_length"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == DriverSQLite
}

type UpstreamConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

// CatalogueConfig points at extra dictionary files loaded on top of the
// built-in catalogue.
type CatalogueConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	mem := cache.DefaultConfig()

	v.SetDefault("cache.backend", string(cache.BackendMemory))
	v.SetDefault("cache.capacity", mem.Memory.Capacity)
	v.SetDefault("cache.shards", mem.Memory.NumShards)
	v.SetDefault("cache.ttl", mem.Memory.TTL)
	v.SetDefault("cache.eviction_percentage", mem.Memory.EvictionPercentage)
	v.SetDefault("cache.lru_size", mem.LRU.Size)
	v.SetDefault("cache.redis.addr", mem.Redis.Addr)
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", mem.Redis.Prefix)
	v.SetDefault("cache.redis.ttl", mem.Redis.TTL)
	v.SetDefault("cache.redis.dial_timeout", mem.Redis.DialTimeout)
	v.SetDefault("cache.redis.read_timeout", mem.Redis.ReadTimeout)
	v.SetDefault("cache.redis.write_timeout", mem.Redis.WriteTimeout)
	v.SetDefault("cache.redis.max_key_length", mem.Redis.MaxKeyLength)

	up := source.DefaultUpstreamConfig()
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "file::memory:?cache=shared")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("upstream.base_url", up.BaseURL)
	v.SetDefault("upstream.timeout", up.Timeout)
	v.SetDefault("upstream.max_retries", up.MaxRetries)
	v.SetDefault("catalogue.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration. An empty path skips the file and uses
// defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg, err := load(viper.New(), path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func load(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ConfigError reports an invalid configuration section.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
}

// Validate checks every section and returns the first failing one.
func (c Config) Validate() error {
	sections := []struct {
		name string
		err  error
	}{
		{"database", validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
			validation.Field(&c.Database.DSN, validation.Required),
			validation.Field(&c.Database.MaxOpenConns, validation.Min(0)),
		)},
		{"upstream", validation.ValidateStruct(&c.Upstream,
			validation.Field(&c.Upstream.BaseURL, validation.Required),
			validation.Field(&c.Upstream.Timeout, validation.Min(time.Duration(0))),
		)},
		{"log", validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		)},
	}

	for _, s := range sections {
		if s.err != nil {
			return &ConfigError{Field: s.name, Message: s.err.Error()}
		}
	}

	if err := c.Cache.Store().Validate(); err != nil {
		var cerr *cache.ConfigError
		if errors.As(err, &cerr) {
			return &ConfigError{Field: "cache." + cerr.Field, Message: cerr.Message}
		}
		return &ConfigError{Field: "cache", Message: err.Error()}
	}
	return nil
}

// Store converts the cache section into store options.
func (c CacheConfig) Store() cache.Config {
	out := cache.DefaultConfig()
	out.Backend = cache.Backend(c.Backend)

	out.Memory.Capacity = c.Capacity
	out.Memory.NumShards = c.Shards
	out.Memory.TTL = c.TTL
	out.Memory.EvictionPercentage = c.EvictionPercentage

	out.LRU.Size = c.LRUSize
	out.LRU.TTL = c.TTL

	out.Redis.Addr = c.Redis.Addr
	out.Redis.Username = c.Redis.Username
	out.Redis.Password = c.Redis.Password
	out.Redis.DB = c.Redis.DB
	out.Redis.Prefix = c.Redis.Prefix
	out.Redis.TTL = c.Redis.TTL
	out.Redis.DialTimeout = c.Redis.DialTimeout
	out.Redis.ReadTimeout = c.Redis.ReadTimeout
	out.Redis.WriteTimeout = c.Redis.WriteTimeout
	out.Redis.MaxKeyLength = c.Redis.MaxKeyLength
	return out
}

// Source converts the upstream section into source options.
func (u UpstreamConfig) Source() source.UpstreamConfig {
	return source.UpstreamConfig{
		BaseURL:    u.BaseURL,
		Timeout:    u.Timeout,
		MaxRetries: u.MaxRetries,
	}
}
