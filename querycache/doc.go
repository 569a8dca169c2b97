// Package querycache answers resource queries through the cache.
//
// # Overview
//
// A Service holds the resource registry, a cache store and a live
// source. Each Query runs the same pipeline:
//
//  1. Look up the resource schema (unknown names fail)
//  2. Validate the raw parameters (violations are returned before any
//     cache or source access)
//  3. Compile the predicate
//  4. Build the cache key from the resource, the predicate and the
//     pass-through parameters such as paging
//  5. Resolve through cache.Resolver, or fetch directly when the
//     resource is not cacheable
//
// # Basic Usage
//
//	reg, _ := catalogue.NewRegistry()
//	store, _ := cache.NewStore(cache.DefaultConfig())
//	src := source.Router{dictionary.SourceLocal: source.NewSQL(db)}
//
//	svc := querycache.New(reg, store, src, querycache.WithLogger(logger))
//	resp, err := svc.Query(ctx, "treatments", map[string]string{"q": "Carabus"})
//
// # Forced Refresh
//
// A request forces a refresh when its schema's refresh parameter
// (refreshCache by default) is true, 1 or yes, or when the context was
// built with WithForceRefresh. The refresh parameter never becomes part
// of the cache key.
//
// # Invalidation
//
// The service tracks every key it issues. Invalidate drops a resource's
// entries by prefix when the store supports it and falls back to the
// tracked keys otherwise.
//
// # Errors
//
// Query returns *dictionary.UnknownResourceError and
// *params.ValidationError as typed errors. AsError converts them into
// go-errors values for callers that render structured responses. Source
// and store failures never fail a query.
package querycache
