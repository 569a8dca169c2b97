package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/dictionary"
	"github.com/goliatone/go-resource-query/predicate"
)

// UpstreamConfig configures the upstream HTTP source.
type UpstreamConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// DefaultUpstreamConfig returns the upstream defaults.
func DefaultUpstreamConfig() UpstreamConfig {
	return UpstreamConfig{
		BaseURL:    "https://zenodo.org/api",
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}

// Upstream serves remote resources from a search API that answers
// `{"hits": {"total": n, "hits": [...]}}` for collections and a single
// object for `<endpoint>/<id>`.
type Upstream struct {
	cfg    UpstreamConfig
	client *http.Client
	logger *zap.Logger
}

// UpstreamOption customizes an Upstream source.
type UpstreamOption func(*Upstream)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) UpstreamOption {
	return func(u *Upstream) {
		if c != nil {
			u.client = c
		}
	}
}

// WithUpstreamLogger sets the logger for request diagnostics.
func WithUpstreamLogger(logger *zap.Logger) UpstreamOption {
	return func(u *Upstream) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUpstream creates an upstream source.
func NewUpstream(cfg UpstreamConfig, opts ...UpstreamOption) *Upstream {
	u := &Upstream{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type searchResponse struct {
	Hits struct {
		Total json.Number      `json:"total"`
		Hits  []map[string]any `json:"hits"`
	} `json:"hits"`
}

// StatusError reports an unexpected upstream status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %d", e.URL, e.Status)
}

func (u *Upstream) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	target, single, err := u.URL(req)
	if err != nil {
		return cache.Payload{}, false, err
	}

	body, found, err := u.get(ctx, target)
	if err != nil || !found {
		return cache.Payload{}, false, err
	}

	if single {
		var rec cache.Record
		if err := json.Unmarshal(body, &rec); err != nil {
			return cache.Payload{}, false, fmt.Errorf("decode %s: %w", target, err)
		}
		return cache.Payload{Data: []cache.Record{rec}, Meta: map[string]any{"count": 1}}, true, nil
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return cache.Payload{}, false, fmt.Errorf("decode %s: %w", target, err)
	}
	if len(resp.Hits.Hits) == 0 {
		return cache.Payload{}, false, nil
	}

	data := make([]cache.Record, len(resp.Hits.Hits))
	for i, h := range resp.Hits.Hits {
		data[i] = h
	}
	total, _ := resp.Hits.Total.Int64()
	return cache.Payload{Data: data, Meta: map[string]any{"count": total}}, true, nil
}

// URL builds the request URL. single is true for identity lookups.
func (u *Upstream) URL(req Request) (target string, single bool, err error) {
	base, err := url.Parse(strings.TrimRight(u.cfg.BaseURL, "/") + "/" + strings.TrimLeft(req.Schema.Endpoint, "/"))
	if err != nil {
		return "", false, err
	}

	if id, ok := req.ResourceID(); ok {
		base.Path = strings.TrimRight(base.Path, "/") + "/" + url.PathEscape(id)
		return base.String(), true, nil
	}

	q := base.Query()
	for i, c := range req.Predicate.Clauses {
		q.Set(c.Field, upstreamValue(c, req.Predicate.Bindings[i]))
	}
	for name, v := range req.Params.Subset(req.Schema, dictionary.ModeNone) {
		q.Set(name, v)
	}
	base.RawQuery = q.Encode()
	return base.String(), false, nil
}

// upstreamValue renders a binding in the upstream's search syntax, where
// `*` is the wildcard and the rest of the value is literal.
func upstreamValue(c predicate.Clause, v any) string {
	s := fmt.Sprintf("%v", v)
	if c.Op == predicate.OpLike {
		return predicate.UnescapeLike(strings.TrimSuffix(s, "%")) + "*"
	}
	return s
}

// get performs the request with retries on transport errors and 5xx
// responses. A 404 is reported as not found.
func (u *Upstream) get(ctx context.Context, target string) ([]byte, bool, error) {
	type result struct {
		body  []byte
		found bool
	}

	op := func() (result, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return result{}, backoff.Permanent(err)
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := u.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return result{}, backoff.Permanent(ctx.Err())
			}
			return result{}, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return result{}, nil
		case resp.StatusCode >= 500:
			return result{}, &StatusError{URL: target, Status: resp.StatusCode}
		case resp.StatusCode >= 300:
			return result{}, backoff.Permanent(&StatusError{URL: target, Status: resp.StatusCode})
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, err
		}
		return result{body: body, found: true}, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(100*time.Millisecond)), u.cfg.MaxRetries),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		u.logger.Debug("upstream retry", zap.String("url", target), zap.Duration("wait", wait), zap.Error(err))
	}

	res, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		return nil, false, err
	}
	return res.body, res.found, nil
}
