package di

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/catalogue"
	"github.com/goliatone/go-resource-query/config"
	"github.com/goliatone/go-resource-query/pkg/testsupport"
)

func newBenchContainer(b *testing.B) *Container {
	b.Helper()
	container, err := NewContainer(config.Default(), WithLogger(zap.NewNop()), WithDB(testsupport.NewSQLiteDB(b)))
	if err != nil {
		b.Fatalf("NewContainer() failed: %v", err)
	}
	b.Cleanup(func() { container.Close() })
	return container
}

func BenchmarkQuery_Cached(b *testing.B) {
	svc := newBenchContainer(b).Service()
	ctx := context.Background()
	raw := map[string]string{"q": "Carabus"}

	if _, err := svc.Query(ctx, catalogue.Treatments, raw); err != nil {
		b.Fatalf("warm up failed: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := svc.Query(ctx, catalogue.Treatments, raw)
			if err != nil || resp.Action != cache.ActionServeCached {
				b.Errorf("unexpected result %v %v", resp, err)
			}
		}
	})
}

func BenchmarkQuery_Live(b *testing.B) {
	svc := newBenchContainer(b).Service()
	ctx := context.Background()
	raw := map[string]string{"q": "Carabus", "refreshCache": "true"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Query(ctx, catalogue.Treatments, raw); err != nil {
			b.Fatalf("Query() failed: %v", err)
		}
	}
}

func BenchmarkQuery_Rejected(b *testing.B) {
	svc := newBenchContainer(b).Service()
	ctx := context.Background()
	raw := map[string]string{"q": "ag", "type": "video"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Query(ctx, catalogue.Publications, raw); err == nil {
			b.Fatal("expected validation error")
		}
	}
}

func BenchmarkKeySerializer(b *testing.B) {
	ks := cache.NewDefaultKeySerializer()
	paging := map[string]string{"page": "1", "size": "30"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ks.SerializeKey(catalogue.Treatments, fmt.Sprintf("q%d", i%8), paging)
	}
}
