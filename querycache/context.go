package querycache

import (
	"context"
	"strings"
)

type forceRefreshContextKey struct{}

type requestIDContextKey struct{}

// WithForceRefresh marks every query run with ctx as a forced refresh,
// regardless of the request's refresh parameter.
func WithForceRefresh(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, forceRefreshContextKey{}, true)
}

// ForceRefresh reports whether ctx carries a forced refresh.
func ForceRefresh(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(forceRefreshContextKey{}).(bool)
	return v
}

// WithRequestID attaches the identifier echoed back on responses and
// errors. Queries without one get a generated identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// splitRefresh removes the refresh parameter from raw so it never reaches
// validation, the predicate or the key. raw is not modified.
func splitRefresh(raw map[string]string, param string) (map[string]string, bool) {
	v, ok := raw[param]
	if !ok {
		return raw, false
	}
	out := make(map[string]string, len(raw)-1)
	for k, val := range raw {
		if k != param {
			out[k] = val
		}
	}
	return out, truthy(v)
}

// truthy parses the refresh parameter.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
