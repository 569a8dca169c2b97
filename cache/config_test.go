package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_ValidateUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "memcached"

	err := cfg.Validate()
	cfgErr, ok := err.(*ConfigError)
	if !ok || cfgErr.Field != "Backend" {
		t.Fatalf("Validate() = %v, want Backend ConfigError", err)
	}
	if _, err := NewStore(cfg); err == nil {
		t.Error("NewStore() should reject an unknown backend")
	}
}

func TestNewStore_Backends(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	for _, backend := range []Backend{BackendMemory, BackendLRU, BackendRedis} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend

			store, err := NewStore(cfg, WithRedisClient(client))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}

			ctx := context.Background()
			in := Payload{
				Data: []Record{{"treatmentId": "03A587", "pages": int64(12)}},
				Meta: map[string]any{"count": int64(1)},
			}
			if err := store.Set(ctx, "treatments::x", in); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			out, ok, err := store.Get(ctx, "treatments::x")
			if err != nil || !ok {
				t.Fatalf("Get() = (%v, %v), want hit", ok, err)
			}
			if out.Data[0]["treatmentId"] != "03A587" || out.Data[0]["pages"] != int64(12) {
				t.Errorf("Get() data = %+v", out.Data)
			}
			if out.Meta["count"] != int64(1) {
				t.Errorf("Get() meta = %+v", out.Meta)
			}

			if _, ok := store.(Deleter); !ok {
				t.Error("store should support Delete")
			}
			if _, ok := store.(PrefixDeleter); !ok {
				t.Error("store should support DeleteByPrefix")
			}
		})
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Payload
		want string
	}{
		{name: "empty sentinel", in: Empty(), want: `{"data":[],"error":"nothing found"}`},
		{name: "nil data", in: Payload{}, want: `{"data":[]}`},
		{
			name: "meta is flattened",
			in:   Payload{Data: []Record{{"id": "a"}}, Meta: map[string]any{"count": 1, "data": "ignored"}},
			want: `{"count":1,"data":[{"id":"a"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	inner := &ConfigError{Field: "x", Message: "y"}
	err := &StoreError{Key: "k", Op: "set", Err: inner}
	if err.Unwrap() != inner {
		t.Error("Unwrap() should return the wrapped error")
	}
	if err.Error() != "cache set k: config error in field x: y" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNewStore_MemoryBackendsDoNotShareEntries(t *testing.T) {
	for _, backend := range []Backend{BackendMemory, BackendLRU} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend
			store, err := NewStore(cfg)
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			ctx := context.Background()

			in := Payload{Data: []Record{{"title": "Agosia"}}, Meta: map[string]any{"count": 1}}
			if err := store.Set(ctx, "images::a", in); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			in.Data[0]["title"] = "changed after set"
			in.Meta["count"] = 99

			got, ok, _ := store.Get(ctx, "images::a")
			if !ok {
				t.Fatal("expected a hit")
			}
			got.Data[0]["title"] = "changed after get"
			got.Data = append(got.Data, Record{"title": "extra"})
			got.Meta["count"] = 42

			again, _, _ := store.Get(ctx, "images::a")
			if len(again.Data) != 1 || again.Data[0]["title"] != "Agosia" || again.Meta["count"] != 1 {
				t.Errorf("stored entry changed: %+v", again)
			}
		})
	}
}

func TestPayload_Clone(t *testing.T) {
	if got := (Payload{}).Clone(); got.Data != nil || got.Meta != nil {
		t.Errorf("Clone() of zero payload = %+v, want nil slices and maps", got)
	}
	empty := Empty().Clone()
	if !empty.IsEmpty() || empty.Data == nil {
		t.Errorf("Clone() of Empty() = %+v, want an empty non-nil data slice", empty)
	}
}
