package source_test

import (
	"context"
	"errors"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-resource-query/cache"
	"github.com/goliatone/go-resource-query/catalogue"
	"github.com/goliatone/go-resource-query/pkg/testsupport"
	"github.com/goliatone/go-resource-query/source"
)

type mockLister struct {
	records  []testsupport.Treatment
	total    int
	err      error
	criteria []repository.SelectCriteria
	calls    int
}

func (m *mockLister) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]testsupport.Treatment, int, error) {
	m.calls++
	m.criteria = criteria
	return m.records, m.total, m.err
}

func TestRepositoryFetch(t *testing.T) {
	lister := &mockLister{records: testsupport.Treatments[:2], total: 2}
	src := source.NewRepository[testsupport.Treatment](lister, nil)

	payload, found, err := src.Fetch(context.Background(), newRequest(t, catalogue.Treatments, map[string]string{"q": "Carabus"}))
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, payload.Data, 2)

	assert.Equal(t, "Carabus hortensis", payload.Data[0]["treatmentTitle"])
	assert.Equal(t, float64(2019), payload.Data[0]["journalYear"])
	assert.Equal(t, map[string]any{"count": 2, "page": 1, "size": 30}, payload.Meta)
	assert.Equal(t, 1, lister.calls)
}

func TestRepositoryFetchEmpty(t *testing.T) {
	src := source.NewRepository[testsupport.Treatment](&mockLister{}, nil)

	_, found, err := src.Fetch(context.Background(), newRequest(t, catalogue.Treatments, nil))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepositoryFetchErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("list", func(t *testing.T) {
		src := source.NewRepository[testsupport.Treatment](&mockLister{err: boom}, nil)
		_, found, err := src.Fetch(context.Background(), newRequest(t, catalogue.Treatments, nil))
		assert.ErrorIs(t, err, boom)
		assert.False(t, found)
	})

	t.Run("record conversion", func(t *testing.T) {
		lister := &mockLister{records: testsupport.Treatments, total: 3}
		src := source.NewRepository[testsupport.Treatment](lister, func(testsupport.Treatment) (cache.Record, error) {
			return nil, boom
		})
		_, found, err := src.Fetch(context.Background(), newRequest(t, catalogue.Treatments, nil))
		assert.ErrorIs(t, err, boom)
		assert.False(t, found)
	})
}

func TestCriteria(t *testing.T) {
	db := testsupport.OpenSQLite(t)

	build := func(raw map[string]string) string {
		q := db.NewSelect().Table("treatments")
		for _, c := range source.Criteria(newRequest(t, catalogue.Treatments, raw)) {
			q = c(q)
		}
		return q.String()
	}

	sql := build(map[string]string{"q": "Carabus", "page": "2", "size": "10"})
	assert.Contains(t, sql, `"treatmentTitle" LIKE 'Carabus%'`)
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")

	sql = build(map[string]string{"treatmentId": "03AF87E2FFC1FFB5FF30FA5EFD5DFE1E"})
	assert.Contains(t, sql, `"treatmentId" = '03AF87E2FFC1FFB5FF30FA5EFD5DFE1E'`)
	assert.Contains(t, sql, "LIMIT 1")
	assert.NotContains(t, sql, "OFFSET")
}
