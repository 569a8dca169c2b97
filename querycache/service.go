package querycache

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/params"
	"github.com/goliatone/go-resource-query/predicate"
	"github.com/goliatone/go-resource-query/source"
)

// ErrInvalidationUnsupported is returned by Invalidate when the store can
// not remove entries.
var ErrInvalidationUnsupported = errors.New("cache store does not support deletion")

// Response is the outcome of one query.
type Response struct {
	RequestID string        `json:"requestId"`
	Resource  string        `json:"resource"`
	Key       string        `json:"key,omitempty"`
	Action    cache.Action  `json:"action"`
	Forced    bool          `json:"forced,omitempty"`
	Payload   cache.Payload `json:"payload"`
	// StoreErr reports a failed cache write. The payload is still valid.
	StoreErr error `json:"-"`
}

// Service runs resource queries through validation, predicate
// compilation and the cache-aside resolver.
type Service struct {
	registry   *dictionary.Registry
	store      cache.Store
	resolver   *cache.Resolver
	source     source.Source
	serializer cache.KeySerializer
	predicate  []predicate.Option
	keys       *xsync.MapOf[string, string]
	logger     *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger shared by the service and its resolver.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(ks cache.KeySerializer) Option {
	return func(s *Service) {
		if ks != nil {
			s.serializer = ks
		}
	}
}

// WithPredicateOptions applies opts to every compiled predicate.
func WithPredicateOptions(opts ...predicate.Option) Option {
	return func(s *Service) {
		s.predicate = append(s.predicate, opts...)
	}
}

// New creates a service answering queries for the resources in registry.
func New(registry *dictionary.Registry, store cache.Store, src source.Source, opts ...Option) *Service {
	s := &Service{
		registry:   registry,
		store:      store,
		source:     src,
		serializer: cache.NewDefaultKeySerializer(),
		keys:       xsync.NewMapOf[string, string](),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = cache.NewResolver(store, cache.WithLogger(s.logger))
	return s
}

// Query answers one request. It fails for unknown resources and returns
// a *params.ValidationError before touching the cache or the source when
// raw does not satisfy the resource's rules. Every other outcome,
// including an empty result, is a Response.
func (s *Service) Query(ctx context.Context, resource string, raw map[string]string) (*Response, error) {
	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	schema, err := s.registry.Schema(resource)
	if err != nil {
		return nil, err
	}

	raw, refresh := splitRefresh(raw, schema.RefreshParam)
	p, err := params.Validate(schema, raw)
	if err != nil {
		s.logger.Debug("rejected parameters",
			zap.String("resource", resource),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}

	req := source.Request{
		Schema:    schema,
		Params:    p,
		Predicate: predicate.Compile(schema, p, s.predicate...),
	}
	forced := ForceRefresh(ctx) || refresh

	resp := &Response{
		RequestID: requestID,
		Resource:  resource,
		Forced:    forced,
	}

	if !schema.Cacheable {
		resp.Payload, resp.Action = s.fetchDirect(ctx, req)
		return resp, nil
	}

	resp.Key = s.Key(req)
	s.keys.Store(resp.Key, resource)

	res := s.resolver.Resolve(ctx, resp.Key, forced, source.FetchFn(s.source, req))
	resp.Payload = res.Payload
	resp.Action = res.Action
	resp.StoreErr = res.StoreErr

	s.logger.Info("query",
		zap.String("resource", resource),
		zap.String("request_id", requestID),
		zap.String("key", resp.Key),
		zap.Stringer("action", resp.Action),
		zap.Bool("forced", forced),
	)
	return resp, nil
}

// Key returns the cache key of a request: the resource, the compiled
// predicate and the pass-through parameters such as paging.
func (s *Service) Key(req source.Request) string {
	return s.serializer.SerializeKey(
		req.Schema.Name,
		req.Predicate,
		req.Params.Subset(req.Schema, dictionary.ModeNone),
	)
}

// fetchDirect serves a non-cacheable resource straight from the source.
func (s *Service) fetchDirect(ctx context.Context, req source.Request) (cache.Payload, cache.Action) {
	payload, found, err := s.source.Fetch(ctx, req)
	if err != nil {
		s.logger.Warn("live fetch failed, treating as no result",
			zap.String("resource", req.Schema.Name),
			zap.Error(err),
		)
		return cache.Empty(), cache.ActionServeEmpty
	}
	if !found {
		return cache.Empty(), cache.ActionServeEmpty
	}
	if payload.Data == nil {
		payload.Data = []cache.Record{}
	}
	return payload, cache.ActionServeLive
}

// Invalidate drops the cached entries of resource and returns how many
// were removed. Stores that can delete by prefix also lose entries
// written by other processes; otherwise only keys this service issued
// are removed.
func (s *Service) Invalidate(ctx context.Context, resource string) (int, error) {
	if _, err := s.registry.Schema(resource); err != nil {
		return 0, err
	}

	prefix := cache.KeyPrefix(resource)
	tracked := s.trackedKeys(resource)

	if pd, ok := s.store.(cache.PrefixDeleter); ok {
		n, err := pd.DeleteByPrefix(ctx, prefix)
		if err != nil {
			return n, &cache.StoreError{Key: prefix + "*", Op: "delete", Err: err}
		}
		s.forget(tracked)
		s.logger.Info("invalidated", zap.String("resource", resource), zap.Int("removed", n))
		return n, nil
	}

	d, ok := s.store.(cache.Deleter)
	if !ok {
		return 0, ErrInvalidationUnsupported
	}

	var (
		removed int
		errs    []error
	)
	for _, key := range tracked {
		if err := d.Delete(ctx, key); err != nil {
			errs = append(errs, &cache.StoreError{Key: key, Op: "delete", Err: err})
			continue
		}
		s.keys.Delete(key)
		removed++
	}

	s.logger.Info("invalidated", zap.String("resource", resource), zap.Int("removed", removed))
	return removed, errors.Join(errs...)
}

// TrackedKeys returns the number of keys issued and not yet invalidated.
func (s *Service) TrackedKeys() int {
	return s.keys.Size()
}

func (s *Service) trackedKeys(resource string) []string {
	var keys []string
	s.keys.Range(func(key, owner string) bool {
		if owner == resource {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

func (s *Service) forget(keys []string) {
	for _, key := range keys {
		s.keys.Delete(key)
	}
}
