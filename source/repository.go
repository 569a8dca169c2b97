package source

import (
	"context"
	"encoding/json"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-query/cache"
)

// Lister is the read slice of repository.Repository[T] a Repository
// source needs.
type Lister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

// RecordFunc converts a model into a result record.
type RecordFunc[T any] func(T) (cache.Record, error)

// Repository serves a resource from a typed go-repository-bun repository.
type Repository[T any] struct {
	repo     Lister[T]
	toRecord RecordFunc[T]
}

// NewRepository creates a source over repo. A nil toRecord converts
// models through their JSON encoding.
func NewRepository[T any](repo Lister[T], toRecord RecordFunc[T]) *Repository[T] {
	if toRecord == nil {
		toRecord = JSONRecord[T]
	}
	return &Repository[T]{repo: repo, toRecord: toRecord}
}

// Criteria returns the select criteria expressing the request: the
// predicate plus paging, or a single-row limit for identity lookups.
func Criteria(req Request) []repository.SelectCriteria {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return req.Predicate.Apply(q)
		},
	}

	if _, single := req.ResourceID(); single {
		return append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(1)
		})
	}

	page, size := req.Page()
	return append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(size).Offset((page - 1) * size)
	})
}

func (r *Repository[T]) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	records, total, err := r.repo.List(ctx, Criteria(req)...)
	if err != nil {
		return cache.Payload{}, false, err
	}
	if len(records) == 0 {
		return cache.Payload{}, false, nil
	}

	data := make([]cache.Record, 0, len(records))
	for _, rec := range records {
		row, err := r.toRecord(rec)
		if err != nil {
			return cache.Payload{}, false, err
		}
		data = append(data, row)
	}

	page, size := req.Page()
	return cache.Payload{
		Data: data,
		Meta: map[string]any{"count": total, "page": page, "size": size},
	}, true, nil
}

// JSONRecord converts v through its JSON encoding.
func JSONRecord[T any](v T) (cache.Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out cache.Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
