package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/config"
	"github.com/goliatone/go-resource-query/pkg/testsupport"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, cache.DefaultConfig().Memory, cfg.Cache.Store().Memory)
	assert.Equal(t, cache.DefaultConfig().Redis, cfg.Cache.Store().Redis)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	cfg, err := config.Load(testsupport.FixturePath("config.yaml"))
	require.NoError(t, err)

	store := cfg.Cache.Store()
	assert.Equal(t, cache.BackendRedis, store.Backend)
	assert.Equal(t, "redis.internal:6380", store.Redis.Addr)
	assert.Equal(t, "zen:", store.Redis.Prefix)
	assert.Equal(t, time.Hour, store.Redis.TTL)
	assert.Equal(t, 2*time.Minute, store.Memory.TTL)
	assert.Equal(t, 500*time.Millisecond, store.Redis.ReadTimeout)

	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "https://zenodo.example/api", cfg.Upstream.Source().BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, uint64(2), cfg.Upstream.MaxRetries)
	assert.Equal(t, "./dictionaries", cfg.Catalogue.Dir)
	assert.True(t, cfg.Log.Development)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RESQ_CACHE_BACKEND", "lru")
	t.Setenv("RESQ_CACHE_LRU_SIZE", "64")
	t.Setenv("RESQ_UPSTREAM_TIMEOUT", "250ms")

	cfg, err := config.Load("")
	require.NoError(t, err)

	store := cfg.Cache.Store()
	assert.Equal(t, cache.BackendLRU, store.Backend)
	assert.Equal(t, 64, store.LRU.Size)
	assert.Equal(t, 250*time.Millisecond, cfg.Upstream.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "database"},
		{"dsn", func(c *config.Config) { c.Database.DSN = "" }, "database"},
		{"base url", func(c *config.Config) { c.Upstream.BaseURL = "" }, "upstream"},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }, "log"},
		{"cache backend", func(c *config.Config) { c.Cache.Backend = "disk" }, "cache.Backend"},
		{"cache capacity", func(c *config.Config) { c.Cache.Capacity = 0 }, "cache.Capacity"},
		{"redis addr", func(c *config.Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		}, "cache.Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			var cerr *config.ConfigError
			require.ErrorAs(t, cfg.Validate(), &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("RESQ_DATABASE_DRIVER", "oracle")

	_, err := config.Load("")
	var cerr *config.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "database", cerr.Field)
}
