// Package repository provides generic repositories of entities queried with
// query.Query values.
//
// SQLRepository keeps entities as JSON documents in the SQLite store and
// pushes queries down to SQL. A query whose filter contains opaque leaves
// cannot be translated; it is evaluated in memory over the whole
// collection instead, with the same result order. MemoryRepository keeps
// entities in a slice and always evaluates in memory.
//
// Field names used in specifications must match the JSON keys the codec
// writes, or SQL and in-memory evaluation will disagree.
package repository

import (
	"context"
	"log/slog"

	"github.com/roach88/criteria/internal/metrics"
	"github.com/roach88/criteria/internal/query"
	"github.com/roach88/criteria/internal/store"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = store.ErrNotFound

// Record is an entity with its id.
type Record[T any] struct {
	ID    string
	Value T
}

// Value returns the entity of r. Handy as a projection for query.Run.
func Value[T any](r Record[T]) T { return r.Value }

// Repository stores entities of type T under string ids.
type Repository[T any] interface {
	// Add stores v under a generated id and returns the id.
	Add(ctx context.Context, v T) (string, error)
	// Put stores v under id, replacing any existing entity in place.
	Put(ctx context.Context, id string, v T) error
	// Get returns the entity stored under id.
	Get(ctx context.Context, id string) (T, error)
	// Find returns the records q selects, in query order.
	Find(ctx context.Context, q query.Query[T]) ([]Record[T], error)
	// Count returns how many records q selects.
	Count(ctx context.Context, q query.Query[T]) (int, error)
	// Remove deletes the given ids and returns how many existed.
	Remove(ctx context.Context, ids ...string) (int, error)
}

type options struct {
	ids     IDGenerator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a repository.
type Option func(*options)

// WithIDGenerator sets the generator Add uses. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
