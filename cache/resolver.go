package cache

import (
	"context"

	"go.uber.org/zap"
)

// Action is the outcome chosen for one request.
type Action int

const (
	// ActionServeEmpty returns the terminal Empty payload.
	ActionServeEmpty Action = iota
	// ActionServeCached returns the entry already in the store.
	ActionServeCached
	// ActionServeLive returns the fresh result and stores it.
	ActionServeLive
)

func (a Action) String() string {
	switch a {
	case ActionServeCached:
		return "cached"
	case ActionServeLive:
		return "live"
	default:
		return "empty"
	}
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decide picks the action for one request. A forced refresh prefers the
// live result over the cache; otherwise the cache wins. Empty is chosen
// only when neither side has data.
func Decide(forceRefresh, cacheHit, liveFound bool) Action {
	if forceRefresh {
		switch {
		case liveFound:
			return ActionServeLive
		case cacheHit:
			return ActionServeCached
		}
		return ActionServeEmpty
	}

	switch {
	case cacheHit:
		return ActionServeCached
	case liveFound:
		return ActionServeLive
	}
	return ActionServeEmpty
}

// Resolution is the result of one Resolve call.
type Resolution struct {
	Payload Payload
	Action  Action
	// StoreErr is set when the write after a live fetch failed. The
	// payload is still valid.
	StoreErr error
}

// Resolver runs the cache-aside procedure against a store.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve serves one request. Inputs are evaluated lazily: a forced
// refresh fetches first and reads the cache only as a fallback, a normal
// request reads the cache first and fetches only on a miss. The store is
// written at most once, and only after a successful live fetch.
func (r *Resolver) Resolve(ctx context.Context, key string, forceRefresh bool, fetch FetchFn) Resolution {
	var (
		live, cached Payload
		found, hit   bool
	)

	if forceRefresh {
		live, found = r.fetch(ctx, key, fetch)
		if !found {
			cached, hit = r.get(ctx, key)
		}
	} else {
		cached, hit = r.get(ctx, key)
		if !hit {
			live, found = r.fetch(ctx, key, fetch)
		}
	}

	action := Decide(forceRefresh, hit, found)
	res := Resolution{Action: action}

	switch action {
	case ActionServeLive:
		res.Payload = live
		res.StoreErr = r.set(ctx, key, live)
	case ActionServeCached:
		res.Payload = cached
	default:
		res.Payload = Empty()
	}

	r.logger.Debug("resolved",
		zap.String("key", key),
		zap.Bool("force_refresh", forceRefresh),
		zap.Stringer("action", action),
	)
	return res
}

func (r *Resolver) get(ctx context.Context, key string) (Payload, bool) {
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return Payload{}, false
	}
	return v, ok
}

func (r *Resolver) set(ctx context.Context, key string, v Payload) error {
	if err := r.store.Set(ctx, key, v); err != nil {
		serr := &StoreError{Key: key, Op: "set", Err: err}
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(serr))
		return serr
	}
	return nil
}

// fetch runs the live fetch. Errors and cancellations collapse to "no
// result" after being logged.
func (r *Resolver) fetch(ctx context.Context, key string, fetch FetchFn) (Payload, bool) {
	if fetch == nil {
		return Payload{}, false
	}

	v, found, err := fetch(ctx)
	if err != nil {
		r.logger.Warn("live fetch failed, treating as no result", zap.String("key", key), zap.Error(err))
		return Payload{}, false
	}
	if !found {
		return Payload{}, false
	}
	if v.Data == nil {
		v.Data = []Record{}
	}
	return v, true
}

// Resolve runs the cache-aside procedure once with a no-op logger and
// returns only the payload.
func Resolve(ctx context.Context, key string, forceRefresh bool, fetch FetchFn, store Store) Payload {
	return NewResolver(store).Resolve(ctx, key, forceRefresh, fetch).Payload
}
