// Package cache implements the cache-aside side of a resource query:
// the Store contract, the payload it holds, the key serializer and the
// resolver that decides between live data, cached data and the Empty
// payload.
//
// # Decision Procedure
//
// Decide is a pure function over (forceRefresh, cacheHit, liveFound):
//
//	forceRefresh  liveFound  cacheHit   action
//	true          true       any        ServeLive (store written)
//	true          false      true       ServeCached
//	true          false      false      ServeEmpty
//	false         any        true       ServeCached (fetch never runs)
//	false         true       false      ServeLive (store written)
//	false         false      false      ServeEmpty
//
// Resolver.Resolve evaluates the inputs lazily in that order and writes
// the store at most once, only after a successful live fetch. Fetch
// errors are logged and treated as "no result". A failed write is
// reported through Resolution.StoreErr and never fails the request.
//
// # Keys
//
// The default KeySerializer produces readable keys:
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("images", pred, map[string]string{"page": "1"})
//	// images::type = "all" AND q LIKE "ago%"::{"page"="1"}
//
// Values implementing KeyPart render themselves. Strings are quoted and
// maps are sorted, so equal inputs always give equal keys and distinct
// inputs do not collide.
//
// # Backends
//
// NewStore selects a backend from Config: a sharded in-memory store
// (default), a bounded LRU, or Redis with msgpack-encoded values.
package cache
