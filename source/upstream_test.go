package source_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-resource-query/catalogue"
	"github.com/goliatone/go-resource-query/source"
)

func newUpstream(t *testing.T, h http.HandlerFunc) (*source.Upstream, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := source.DefaultUpstreamConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.Timeout = time.Second
	return source.NewUpstream(cfg), &calls
}

func TestUpstreamURL(t *testing.T) {
	u := source.NewUpstream(source.UpstreamConfig{BaseURL: "https://example.org/api/"})

	target, single, err := u.URL(newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	require.NoError(t, err)
	assert.False(t, single)
	assert.Equal(t, "https://example.org/api/records?page=1&q=ago%2A&size=30&type=all", target)

	target, _, err = u.URL(newRequest(t, catalogue.Publications, map[string]string{"q": "a_%b"}))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/api/records?page=1&q=a_%25b%2A&size=30&type=all", target)

	target, single, err = u.URL(newRequest(t, catalogue.Images, map[string]string{"id": "1234"}))
	require.NoError(t, err)
	assert.True(t, single)
	assert.Equal(t, "https://example.org/api/records/1234", target)
}

func TestUpstreamFetchSearch(t *testing.T) {
	u, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/records", r.URL.Path)
		assert.Equal(t, "ago*", r.URL.Query().Get("q"))
		assert.Equal(t, "all", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"hits":{"total":42,"hits":[{"id":1,"title":"Agosia"},{"id":2,"title":"Agonum"}]}}`)
	})

	payload, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, payload.Data, 2)
	assert.Equal(t, "Agosia", payload.Data[0]["title"])
	assert.Equal(t, int64(42), payload.Meta["count"])
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestUpstreamFetchSingle(t *testing.T) {
	u, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/records/7", r.URL.Path)
		fmt.Fprint(w, `{"id":7,"title":"Habitus"}`)
	})

	payload, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Images, map[string]string{"id": "7"}))
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "Habitus", payload.Data[0]["title"])
}

func TestUpstreamFetchNotFound(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"404": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"no hits": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"hits":{"total":0,"hits":[]}}`)
		},
	}

	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			u, _ := newUpstream(t, h)
			_, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "zzz"}))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestUpstreamRetriesServerErrors(t *testing.T) {
	var n int32
	u, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"hits":{"total":1,"hits":[{"id":1}]}}`)
	})

	_, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestUpstreamClientErrorIsPermanent(t *testing.T) {
	u, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	var statusErr *source.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.False(t, found)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestUpstreamGivesUpAfterRetries(t *testing.T) {
	u, calls := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	assert.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, int32(1+source.DefaultUpstreamConfig().MaxRetries), atomic.LoadInt32(calls))
}

func TestUpstreamBadJSON(t *testing.T) {
	u, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, found, err := u.Fetch(context.Background(), newRequest(t, catalogue.Publications, map[string]string{"q": "ago"}))
	assert.Error(t, err)
	assert.False(t, found)
}
