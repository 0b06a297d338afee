// Package query combines a specification, sort keys and paging into one
// immutable, lazily evaluated query value.
//
// A Query runs two ways. Apply and Run evaluate it in memory with the
// compiled specification and a stable sort. Lower translates it into a
// queryir.Select for the SQL store. Both produce the same rows in the same
// order for any query that lowers.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/order"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/spec"
)

// ErrInvalidPaging is returned for a negative Skip or Take.
var ErrInvalidPaging = errors.New("invalid paging")

// Query is an immutable query over T. The zero Query selects everything in
// source order.
type Query[T any] struct {
	filter spec.Spec[T]
	keys   order.Keys[T]
	offset int
	limit  int
	err    error
}

// New returns an empty query.
func New[T any]() Query[T] {
	return Query[T]{}
}

// Where adds a filter. A second Where is ANDed with the first.
func (q Query[T]) Where(s spec.Spec[T]) Query[T] {
	if q.err != nil {
		return q
	}
	if err := s.Err(); err != nil {
		q.err = fmt.Errorf("where: %w", err)
		return q
	}
	if q.filter.IsZero() {
		q.filter = s
	} else {
		q.filter = q.filter.And(s)
	}
	return q
}

// OrderBy adds sort keys. When the query is already ordered the new keys
// break ties of the existing ones. An empty key list leaves the query
// unchanged.
func (q Query[T]) OrderBy(k order.Keys[T]) Query[T] {
	if q.err != nil {
		return q
	}
	if err := k.Err(); err != nil {
		q.err = fmt.Errorf("order by: %w", err)
		return q
	}
	q.keys = q.keys.Append(k)
	return q
}

// Skip sets how many rows to drop after ordering.
func (q Query[T]) Skip(n int) Query[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = fmt.Errorf("%w: skip %d", ErrInvalidPaging, n)
		return q
	}
	q.offset = n
	return q
}

// Take sets the maximum number of rows. Take(0) removes the limit.
func (q Query[T]) Take(n int) Query[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = fmt.Errorf("%w: take %d", ErrInvalidPaging, n)
		return q
	}
	q.limit = n
	return q
}

// Err returns the first construction error.
func (q Query[T]) Err() error { return q.err }

// Filter returns the filter; the zero Spec when there is none.
func (q Query[T]) Filter() spec.Spec[T] { return q.filter }

// Order returns the sort keys.
func (q Query[T]) Order() order.Keys[T] { return q.keys }

// Offset returns the number of skipped rows.
func (q Query[T]) Offset() int { return q.offset }

// Limit returns the row limit; 0 means unlimited.
func (q Query[T]) Limit() int { return q.limit }

// Lower translates the query into a Select over the named source. Filters
// containing opaque leaves fail with spec.ErrNotTranslatable.
func (q Query[T]) Lower(from string) (queryir.Select, error) {
	if q.err != nil {
		return queryir.Select{}, q.err
	}

	sel := queryir.Select{From: from, Offset: q.offset, Limit: q.limit}
	if !q.filter.IsZero() {
		pred, err := spec.Lower(q.filter)
		if err != nil {
			return queryir.Select{}, err
		}
		sel.Filter = pred
	}

	keys, err := q.keys.Lower()
	if err != nil {
		return queryir.Select{}, err
	}
	sel.Order = keys
	return sel, nil
}

// Translatable reports whether Lower can succeed.
func (q Query[T]) Translatable() bool {
	_, err := q.Lower("_")
	return err == nil
}

// Apply evaluates the query over items in memory. The input is not modified.
func (q Query[T]) Apply(items []T) ([]T, error) {
	return Run(items, func(x T) T { return x }, q)
}

// Run evaluates q over items of any type through a projection onto T:
// filter, then stable sort, then paging.
func Run[E, T any](items []E, project func(E) T, q Query[T]) ([]E, error) {
	if q.err != nil {
		return nil, q.err
	}

	matched := make([]E, 0, len(items))
	if q.filter.IsZero() {
		matched = append(matched, items...)
	} else {
		pred, err := spec.Compile(q.filter)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if pred(project(item)) {
				matched = append(matched, item)
			}
		}
	}

	sorted, err := order.SortBy(matched, project, q.keys)
	if err != nil {
		return nil, err
	}
	return page(sorted, q.offset, q.limit), nil
}

func page[E any](items []E, offset, limit int) []E {
	if offset >= len(items) {
		return []E{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return slices.Clip(items)
}

// Fingerprint returns a content hash of the query structure.
func (q Query[T]) Fingerprint() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	obj := ir.NewIRObject(
		ir.O("offset", ir.IRInt(q.offset)),
		ir.O("limit", ir.IRInt(q.limit)),
	)
	if !q.filter.IsZero() {
		fp, err := spec.Fingerprint(q.filter)
		if err != nil {
			return "", err
		}
		obj["filter"] = ir.IRString(fp)
	}
	if q.keys.Len() > 0 {
		fp, err := q.keys.Fingerprint()
		if err != nil {
			return "", err
		}
		obj["order"] = ir.IRString(fp)
	}
	return ir.Fingerprint(ir.DomainQuery, obj)
}

// String renders the query, e.g. "WHERE age > 3 ORDER BY name asc TAKE 10".
func (q Query[T]) String() string {
	if q.err != nil {
		return "<invalid: " + q.err.Error() + ">"
	}

	var parts []string
	if !q.filter.IsZero() {
		parts = append(parts, "WHERE "+q.filter.String())
	}
	if q.keys.Len() > 0 {
		parts = append(parts, "ORDER BY "+q.keys.String())
	}
	if q.offset > 0 {
		parts = append(parts, fmt.Sprintf("SKIP %d", q.offset))
	}
	if q.limit > 0 {
		parts = append(parts, fmt.Sprintf("TAKE %d", q.limit))
	}
	if len(parts) == 0 {
		return "ALL"
	}
	return strings.Join(parts, " ")
}
