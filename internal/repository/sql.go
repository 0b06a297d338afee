package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/criteria/internal/metrics"
	"github.com/roach88/criteria/internal/query"
	"github.com/roach88/criteria/internal/spec"
	"github.com/roach88/criteria/internal/store"
)

// SQLRepository is a Repository over one collection of the SQLite store.
type SQLRepository[T any] struct {
	store      *store.Store
	collection string
	codec      Codec[T]
	ids        IDGenerator
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

var _ Repository[struct{}] = (*SQLRepository[struct{}])(nil)

// NewSQL creates a repository for collection.
func NewSQL[T any](s *store.Store, collection string, codec Codec[T], opts ...Option) *SQLRepository[T] {
	o := buildOptions(opts)
	return &SQLRepository[T]{
		store:      s,
		collection: collection,
		codec:      codec,
		ids:        o.ids,
		logger:     o.logger.With("collection", collection),
		metrics:    o.metrics,
	}
}

// Collection returns the collection name.
func (r *SQLRepository[T]) Collection() string { return r.collection }

func (r *SQLRepository[T]) Add(ctx context.Context, v T) (string, error) {
	id := r.ids.Generate()
	if err := r.Put(ctx, id, v); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLRepository[T]) Put(ctx context.Context, id string, v T) error {
	doc, err := r.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	if _, err := r.store.Put(ctx, r.collection, id, doc); err != nil {
		return err
	}
	return nil
}

func (r *SQLRepository[T]) Get(ctx context.Context, id string) (T, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.codec.Decode(doc.Body)
}

// Find pushes q down to SQL when it translates and evaluates it in memory
// over the whole collection otherwise.
func (r *SQLRepository[T]) Find(ctx context.Context, q query.Query[T]) ([]Record[T], error) {
	start := time.Now()

	sel, err := q.Lower(r.collection)
	if errors.Is(err, spec.ErrNotTranslatable) {
		r.logger.Debug("query evaluated in memory", "query", q.String(), "reason", err)
		r.metrics.ObserveFallback(r.collection)

		all, err := r.load(ctx)
		if err != nil {
			return nil, err
		}
		out, err := query.Run(all, Value[T], q)
		if err != nil {
			return nil, err
		}
		r.metrics.ObserveQuery(r.collection, metrics.ModeMemory, len(out), time.Since(start))
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	docs, err := r.store.Select(ctx, sel)
	if err != nil {
		return nil, err
	}
	out, err := r.decode(docs)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("query pushed down", "query", q.String(), "rows", len(out))
	r.metrics.ObserveQuery(r.collection, metrics.ModeSQL, len(out), time.Since(start))
	return out, nil
}

func (r *SQLRepository[T]) Count(ctx context.Context, q query.Query[T]) (int, error) {
	sel, err := q.Lower(r.collection)
	if errors.Is(err, spec.ErrNotTranslatable) {
		found, err := r.Find(ctx, q)
		if err != nil {
			return 0, err
		}
		return len(found), nil
	}
	if err != nil {
		return 0, err
	}
	return r.store.Count(ctx, sel)
}

func (r *SQLRepository[T]) Remove(ctx context.Context, ids ...string) (int, error) {
	n, err := r.store.DeleteIDs(ctx, r.collection, ids...)
	return int(n), err
}

// RemoveWhere deletes every record q selects and returns how many were
// removed.
func (r *SQLRepository[T]) RemoveWhere(ctx context.Context, q query.Query[T]) (int, error) {
	sel, err := q.Lower(r.collection)
	if errors.Is(err, spec.ErrNotTranslatable) {
		found, err := r.Find(ctx, q)
		if err != nil {
			return 0, err
		}
		ids := make([]string, len(found))
		for i, rec := range found {
			ids[i] = rec.ID
		}
		return r.Remove(ctx, ids...)
	}
	if err != nil {
		return 0, err
	}
	n, err := r.store.Delete(ctx, sel)
	return int(n), err
}

// Explain returns the SQL Find would run, or spec.ErrNotTranslatable when
// q would be evaluated in memory.
func (r *SQLRepository[T]) Explain(q query.Query[T]) (string, []any, error) {
	sel, err := q.Lower(r.collection)
	if err != nil {
		return "", nil, err
	}
	return r.store.Explain(sel)
}

func (r *SQLRepository[T]) load(ctx context.Context) ([]Record[T], error) {
	docs, err := r.store.All(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	return r.decode(docs)
}

func (r *SQLRepository[T]) decode(docs []store.Document) ([]Record[T], error) {
	out := make([]Record[T], len(docs))
	for i, doc := range docs {
		v, err := r.codec.Decode(doc.Body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		out[i] = Record[T]{ID: doc.ID, Value: v}
	}
	return out, nil
}
