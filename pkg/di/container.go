package di

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/catalogue"
	"github.com/goliatone/go-resource-query/config"
	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/querycache"
	"github.com/goliatone/go-resource-query/source"
)

// Container wires the query service and everything it depends on. It
// owns the singletons built from configuration and releases them on
// Close.
type Container struct {
	config        config.Config
	logger        *zap.Logger
	store         cache.Store
	keySerializer cache.KeySerializer
	db            *bun.DB
	ownsDB        bool
	registry      *dictionary.Registry
	sources       *source.Mux
	service       *querycache.Service
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	db          *bun.DB
	redisClient redis.UniversalClient
	httpClient  *http.Client
	schemas     []dictionary.Schema
}

// WithLogger uses logger instead of building one from the log section.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDB uses db instead of opening the configured database. The caller
// keeps ownership of db.
func WithDB(db *bun.DB) Option {
	return func(o *options) { o.db = db }
}

// WithRedisClient makes the redis backend reuse client.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) { o.redisClient = client }
}

// WithHTTPClient sets the client used by the upstream source.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithSchemas registers extra resources next to the built-in catalogue.
func WithSchemas(schemas ...dictionary.Schema) Option {
	return func(o *options) { o.schemas = append(o.schemas, schemas...) }
}

// NewContainer validates cfg and builds the logger, cache store,
// database, sources, resource registry and query service.
func NewContainer(cfg config.Config, opts ...Option) (_ *Container, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		config:        cfg,
		logger:        o.logger,
		keySerializer: cache.NewDefaultKeySerializer(),
	}

	if c.logger == nil {
		logger, err := NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		c.logger = logger
	}

	var storeOpts []cache.StoreOption
	if o.redisClient != nil {
		storeOpts = append(storeOpts, cache.WithRedisClient(o.redisClient))
	}
	store, err := newStore(cfg.Cache.Store(), storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}
	c.store = store
	defer func() {
		if err != nil {
			_ = c.closeStore()
		}
	}()

	schemas := o.schemas
	if cfg.Catalogue.Dir != "" {
		extra, err := dictionary.LoadDir(cfg.Catalogue.Dir)
		if err != nil {
			return nil, fmt.Errorf("load dictionaries: %w", err)
		}
		schemas = append(extra, schemas...)
	}
	registry, err := catalogue.NewRegistry(schemas...)
	if err != nil {
		return nil, err
	}
	c.registry = registry

	c.db = o.db
	if c.db == nil {
		db, err := OpenDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		c.db, c.ownsDB = db, true
	}

	upstreamOpts := []source.UpstreamOption{source.WithUpstreamLogger(c.logger)}
	if o.httpClient != nil {
		upstreamOpts = append(upstreamOpts, source.WithHTTPClient(o.httpClient))
	}
	c.sources = source.NewMux(source.Router{
		dictionary.SourceLocal:    source.NewSQL(c.db, source.WithSQLLogger(c.logger)),
		dictionary.SourceUpstream: source.NewUpstream(cfg.Upstream.Source(), upstreamOpts...),
	})

	c.service = querycache.New(c.registry, c.store, c.sources,
		querycache.WithLogger(c.logger),
		querycache.WithKeySerializer(c.keySerializer),
	)
	return c, nil
}

// newStore is replaced in tests.
var newStore = cache.NewStore

func (c *Container) closeStore() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewContainerWithDefaults creates a container from config.Default().
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

// NewLogger builds a production or development zap logger at the
// configured level.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// OpenDB opens the configured database through bun.
func OpenDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		err   error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		sqldb, err = sql.Open("sqlite3", cfg.DSN)
	case config.DriverPostgres:
		sqldb, err = sql.Open("postgres", cfg.DSN)
	default:
		return nil, &config.ConfigError{Field: "database", Message: "unknown driver " + cfg.Driver}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.Driver == config.DriverSQLite {
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// UseRepository serves resource from a typed repository instead of the
// generic SQL source. Go methods cannot take type parameters, so this is
// a package-level function.
func UseRepository[T any](c *Container, resource string, repo source.Lister[T], toRecord source.RecordFunc[T]) error {
	if _, err := c.registry.Schema(resource); err != nil {
		return err
	}
	c.sources.Handle(resource, source.NewRepository(repo, toRecord))
	return nil
}

// Service returns the query service.
func (c *Container) Service() *querycache.Service {
	return c.service
}

// Store returns the cache store.
func (c *Container) Store() cache.Store {
	return c.store
}

// KeySerializer returns the key serializer shared with the service.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Registry returns the resource registry.
func (c *Container) Registry() *dictionary.Registry {
	return c.registry
}

// DB returns the database behind local resources.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Logger returns the container logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// Close releases the database if the container opened it and any client
// held by the cache store.
func (c *Container) Close() error {
	errs := []error{c.closeStore()}
	if c.ownsDB && c.db != nil {
		errs = append(errs, c.db.Close())
	}
	_ = c.logger.Sync()
	return errors.Join(errs...)
}
