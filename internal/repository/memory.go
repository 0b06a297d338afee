package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/criteria/internal/metrics"
	"github.com/roach88/criteria/internal/query"
)

// MemoryRepository is a Repository backed by a slice. Records keep
// insertion order; Put on an existing id replaces it in place.
//
// Thread-safety: MemoryRepository is safe for concurrent use.
type MemoryRepository[T any] struct {
	name    string
	ids     IDGenerator
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	records []Record[T]
	index   map[string]int
}

var _ Repository[struct{}] = (*MemoryRepository[struct{}])(nil)

// NewMemory creates an empty repository. name labels logs and metrics.
func NewMemory[T any](name string, opts ...Option) *MemoryRepository[T] {
	o := buildOptions(opts)
	return &MemoryRepository[T]{
		name:    name,
		ids:     o.ids,
		logger:  o.logger.With("collection", name),
		metrics: o.metrics,
		index:   make(map[string]int),
	}
}

func (r *MemoryRepository[T]) Add(ctx context.Context, v T) (string, error) {
	id := r.ids.Generate()
	if err := r.Put(ctx, id, v); err != nil {
		return "", err
	}
	return id, nil
}

func (r *MemoryRepository[T]) Put(_ context.Context, id string, v T) error {
	if id == "" {
		return fmt.Errorf("put: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[id]; ok {
		r.records[i].Value = v
		return nil
	}
	r.index[id] = len(r.records)
	r.records = append(r.records, Record[T]{ID: id, Value: v})
	return nil
}

func (r *MemoryRepository[T]) Get(_ context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s/%s: %w", r.name, id, ErrNotFound)
	}
	return r.records[i].Value, nil
}

func (r *MemoryRepository[T]) Find(_ context.Context, q query.Query[T]) ([]Record[T], error) {
	start := time.Now()

	r.mu.RLock()
	snapshot := slices.Clone(r.records)
	r.mu.RUnlock()

	out, err := query.Run(snapshot, Value[T], q)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("query evaluated in memory", "query", q.String(), "rows", len(out))
	r.metrics.ObserveQuery(r.name, metrics.ModeMemory, len(out), time.Since(start))
	return out, nil
}

func (r *MemoryRepository[T]) Count(ctx context.Context, q query.Query[T]) (int, error) {
	found, err := r.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

func (r *MemoryRepository[T]) Remove(_ context.Context, ids ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.index[id]; ok {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	kept := r.records[:0]
	for _, rec := range r.records {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	clear(r.records[len(kept):])
	r.records = kept

	r.index = make(map[string]int, len(kept))
	for i, rec := range kept {
		r.index[rec.ID] = i
	}
	return len(drop), nil
}

// Len returns the number of records.
func (r *MemoryRepository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
