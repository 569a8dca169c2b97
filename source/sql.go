package source

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-resource-query/cache"
)

// SQL serves local resources from a relational table through bun.
type SQL struct {
	db     bun.IDB
	logger *zap.Logger
}

// SQLOption customizes an SQL source.
type SQLOption func(*SQL)

// WithSQLLogger sets the logger for query diagnostics.
func WithSQLLogger(logger *zap.Logger) SQLOption {
	return func(s *SQL) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSQL creates a source over db.
func NewSQL(db bun.IDB, opts ...SQLOption) *SQL {
	s := &SQL{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch selects the rows matching the request predicate. A request that
// carries the resource id is limited to one row; otherwise the result is
// paged and the total count is reported in the metadata.
func (s *SQL) Fetch(ctx context.Context, req Request) (cache.Payload, bool, error) {
	if req.Schema.Table == "" {
		return cache.Payload{}, false, fmt.Errorf("resource %s has no table", req.Schema.Name)
	}

	base := func() *bun.SelectQuery {
		return req.Predicate.Apply(s.db.NewSelect().Table(req.Schema.Table))
	}

	var rows []map[string]interface{}
	meta := map[string]any{}

	if _, single := req.ResourceID(); single {
		if err := base().Limit(1).Scan(ctx, &rows); err != nil {
			return cache.Payload{}, false, err
		}
		meta["count"] = len(rows)
	} else {
		total, err := base().Count(ctx)
		if err != nil {
			return cache.Payload{}, false, err
		}
		if total == 0 {
			return cache.Payload{}, false, nil
		}

		page, size := req.Page()
		q := base().Limit(size).Offset((page - 1) * size)
		if req.Schema.Order != "" {
			q = q.OrderExpr("? ASC", bun.Ident(req.Schema.Order))
		}
		if err := q.Scan(ctx, &rows); err != nil {
			return cache.Payload{}, false, err
		}
		meta["count"] = total
		meta["page"] = page
		meta["size"] = size
	}

	s.logger.Debug("sql fetch",
		zap.String("resource", req.Schema.Name),
		zap.String("where", req.Predicate.SQL()),
		zap.Int("rows", len(rows)),
	)

	if len(rows) == 0 {
		return cache.Payload{}, false, nil
	}

	data := make([]cache.Record, len(rows))
	for i, row := range rows {
		data[i] = normalizeRow(row)
	}
	return cache.Payload{Data: data, Meta: meta}, true, nil
}

// normalizeRow turns driver byte slices into strings so rows encode the
// same way in every cache backend.
func normalizeRow(row map[string]interface{}) cache.Record {
	out := make(cache.Record, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = v
	}
	return out
}
