package order

import (
	"iter"
	"slices"
)

// Source is a sequence keys can be applied to.
type Source[T any] interface {
	All() iter.Seq[T]
}

// Slice adapts a slice to Source.
type Slice[T any] []T

// All yields the elements in slice order.
func (s Slice[T]) All() iter.Seq[T] {
	return slices.Values(s)
}

// Ordered is a source with a sort applied. Sorting is deferred until All is
// called, and every call sorts a fresh snapshot of the underlying source.
type Ordered[T any] struct {
	src  Source[T]
	keys Keys[T]
}

// All yields the underlying elements stably sorted by the keys.
func (o *Ordered[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		items := slices.Collect(o.src.All())
		slices.SortStableFunc(items, o.keys.Compare)
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

// Keys returns the full key list, primary first.
func (o *Ordered[T]) Keys() Keys[T] {
	return o.keys
}

// Apply orders src by k.
//
// When src is already ordered the keys are appended as tie-breakers and the
// existing ordering stays primary. Otherwise a fresh ordering starts. An
// empty key list returns src unchanged.
func (k Keys[T]) Apply(src Source[T]) (Source[T], error) {
	if isNil(src) {
		return nil, ErrNilSource
	}
	if k.err != nil {
		return nil, k.err
	}
	if len(k.keys) == 0 {
		return src, nil
	}

	if o, ok := src.(*Ordered[T]); ok {
		return &Ordered[T]{src: o.src, keys: o.keys.Append(k)}, nil
	}
	return &Ordered[T]{src: src, keys: k}, nil
}

func isNil[T any](src Source[T]) bool {
	switch s := src.(type) {
	case nil:
		return true
	case *Ordered[T]:
		return s == nil
	}
	return false
}

// Collect materializes a source into a slice.
func Collect[T any](src Source[T]) []T {
	if isNil(src) {
		return nil
	}
	return slices.Collect(src.All())
}
