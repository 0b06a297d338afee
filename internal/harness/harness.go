package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/metrics"
	"github.com/roach88/criteria/internal/repository"
	"github.com/roach88/criteria/internal/spec"
	"github.com/roach88/criteria/internal/store"
)

// Harness runs scenarios against both repositories.
type Harness struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the repositories. Defaults to a
// logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithMetrics records the queries of every scenario run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harness) { h.metrics = m }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario.
//
// Each scenario runs in a fresh in-memory database for isolation. Fixed
// ids keep results reproducible.
//
// Execution flow:
// 1. Build the criteria
// 2. Store the records in a MemoryRepository and a SQLRepository
// 3. Find and Count through both
// 4. Compare both orders with the expectation and with each other
//
// An error is returned when the scenario cannot run at all; mismatches
// are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	criteria, err := compiler.Build(scenario.Criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to build criteria: %w", err)
	}

	st, err := store.Open(":memory:", store.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ids := make([]string, len(scenario.Records))
	for i := range ids {
		ids[i] = RecordID(i)
	}

	mem := repository.NewMemory[ir.IRObject](scenario.Collection,
		repository.WithIDGenerator(repository.NewFixedGenerator(ids...)),
		repository.WithLogger(h.logger),
		repository.WithMetrics(h.metrics))
	sql := repository.NewSQL(st, scenario.Collection, repository.DocumentCodec{},
		repository.WithIDGenerator(repository.NewFixedGenerator(ids...)),
		repository.WithLogger(h.logger),
		repository.WithMetrics(h.metrics))

	for i, raw := range scenario.Records {
		doc, err := toDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if _, err := mem.Add(ctx, doc); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if _, err := sql.Add(ctx, doc); err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
	}

	result := NewResult()
	result.Query = criteria.Query.String()
	result.Warnings = criteria.Warnings

	memRecs, err := mem.Find(ctx, criteria.Query)
	if err != nil {
		return nil, fmt.Errorf("memory find: %w", err)
	}
	sqlRecs, err := sql.Find(ctx, criteria.Query)
	if err != nil {
		return nil, fmt.Errorf("sql find: %w", err)
	}
	result.Memory = recordIDs(memRecs)
	result.SQL = recordIDs(sqlRecs)

	if result.Count, err = sql.Count(ctx, criteria.Query); err != nil {
		return nil, fmt.Errorf("sql count: %w", err)
	}

	stmt, params, err := sql.Explain(criteria.Query)
	switch {
	case errors.Is(err, spec.ErrNotTranslatable):
	case err != nil:
		return nil, fmt.Errorf("explain: %w", err)
	default:
		result.Statement, result.Params = stmt, params
	}

	h.check(scenario, result)
	return result, nil
}

func (h *Harness) check(scenario *Scenario, result *Result) {
	want := scenario.Expect.IDs

	if !slices.Equal(result.Memory, want) {
		result.AddError(fmt.Sprintf("memory: expected %v, got %v", want, result.Memory))
	}
	if !slices.Equal(result.SQL, want) {
		result.AddError(fmt.Sprintf("sql: expected %v, got %v", want, result.SQL))
	}
	if !slices.Equal(result.Memory, result.SQL) {
		result.AddError(fmt.Sprintf("memory and sql disagree: %v vs %v", result.Memory, result.SQL))
	}
	if result.Count != len(want) {
		result.AddError(fmt.Sprintf("count: expected %d, got %d", len(want), result.Count))
	}
	if scenario.Expect.Warnings != nil && !slices.Equal(result.Warnings, scenario.Expect.Warnings) {
		result.AddError(fmt.Sprintf("warnings: expected %q, got %q", scenario.Expect.Warnings, result.Warnings))
	}
}

func toDocument(raw map[string]any) (ir.IRObject, error) {
	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	return doc, nil
}

func recordIDs(recs []repository.Record[ir.IRObject]) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
