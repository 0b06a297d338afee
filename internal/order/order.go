// Package order implements sort specifications: ordered lists of
// (field, direction) keys where the first key is the primary ordering and
// every later key breaks ties left by the keys before it.
//
// Keys apply to in-memory sources (Sort, SortBy, Apply) and lower to the
// query IR for SQL sources (Lower). In-memory sorts are stable, so elements
// that compare equal on every key keep their source order.
//
// The zero Keys is the empty list. Applying it returns the source unchanged.
package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

var (
	// ErrInvalidDirection is returned for a Direction outside Ascending/Descending.
	ErrInvalidDirection = errors.New("invalid sort direction")

	// ErrNilSource is returned when keys are applied to a nil source.
	ErrNilSource = errors.New("nil source")
)

// Direction is the sort direction of one key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Valid reports whether d is Ascending or Descending.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses asc, ascending, desc or descending (any case).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Key is one sort key.
type Key[T any] struct {
	Field     field.Field[T]
	Direction Direction
}

// compare orders a and b by this key alone.
func (k Key[T]) compare(a, b T) int {
	c := ir.CompareForSort(k.Field.Get(a), k.Field.Get(b))
	if k.Direction == Descending {
		return -c
	}
	return c
}

// Keys is an immutable ordered list of sort keys with a sticky
// construction error.
type Keys[T any] struct {
	keys []Key[T]
	err  error
}

// By starts a list with one key.
func By[T any](f field.Field[T], dir Direction) Keys[T] {
	return Keys[T]{}.Then(f, dir)
}

// Asc starts a list with an ascending key.
func Asc[T any](f field.Field[T]) Keys[T] {
	return By(f, Ascending)
}

// Desc starts a list with a descending key.
func Desc[T any](f field.Field[T]) Keys[T] {
	return By(f, Descending)
}

// Then returns a new list with a tie-breaking key appended.
func (k Keys[T]) Then(f field.Field[T], dir Direction) Keys[T] {
	if k.err != nil {
		return k
	}
	if !dir.Valid() {
		return Keys[T]{err: fmt.Errorf("key %q: %w: %d", f.Name(), ErrInvalidDirection, int(dir))}
	}
	if err := f.Validate(); err != nil {
		return Keys[T]{err: fmt.Errorf("sort key: %w", err)}
	}
	return Keys[T]{keys: append(slices.Clip(k.keys), Key[T]{Field: f, Direction: dir})}
}

// Append returns a new list with other's keys after k's.
func (k Keys[T]) Append(other Keys[T]) Keys[T] {
	if k.err != nil {
		return k
	}
	if other.err != nil {
		return other
	}
	return Keys[T]{keys: slices.Concat(k.keys, other.keys)}
}

// Len returns the number of keys.
func (k Keys[T]) Len() int { return len(k.keys) }

// Keys returns a copy of the keys, primary first.
func (k Keys[T]) Keys() []Key[T] { return slices.Clone(k.keys) }

// Err returns the construction error, if any.
func (k Keys[T]) Err() error { return k.err }

// Compare orders a and b by every key in turn.
func (k Keys[T]) Compare(a, b T) int {
	for _, key := range k.keys {
		if c := key.compare(a, b); c != 0 {
			return c
		}
	}
	return 0
}

// Sort returns a stably sorted copy of items. The input is not modified.
func (k Keys[T]) Sort(items []T) ([]T, error) {
	if k.err != nil {
		return nil, k.err
	}
	out := slices.Clone(items)
	if len(k.keys) > 0 {
		slices.SortStableFunc(out, k.Compare)
	}
	return out, nil
}

// SortBy sorts items of any type through a projection onto T.
func SortBy[E, T any](items []E, project func(E) T, k Keys[T]) ([]E, error) {
	if k.err != nil {
		return nil, k.err
	}
	if project == nil {
		return nil, errors.New("sort by: nil projection")
	}
	out := slices.Clone(items)
	if len(k.keys) > 0 {
		slices.SortStableFunc(out, func(a, b E) int {
			return k.Compare(project(a), project(b))
		})
	}
	return out, nil
}

// Lower translates the keys into query IR order keys.
func (k Keys[T]) Lower() ([]queryir.OrderKey, error) {
	if k.err != nil {
		return nil, k.err
	}
	out := make([]queryir.OrderKey, len(k.keys))
	for i, key := range k.keys {
		out[i] = queryir.OrderKey{Field: key.Field.Name(), Desc: key.Direction == Descending}
	}
	return out, nil
}

// Fingerprint returns a content hash of the key list.
func (k Keys[T]) Fingerprint() (string, error) {
	if k.err != nil {
		return "", k.err
	}
	arr := make(ir.IRArray, len(k.keys))
	for i, key := range k.keys {
		arr[i] = ir.NewIRObject(
			ir.O("field", ir.IRString(key.Field.Name())),
			ir.O("dir", ir.IRString(key.Direction.String())),
		)
	}
	return ir.Fingerprint(ir.DomainOrder, arr)
}

// String renders the list, e.g. "name asc, age desc".
func (k Keys[T]) String() string {
	if k.err != nil {
		return "<invalid: " + k.err.Error() + ">"
	}
	parts := make([]string, len(k.keys))
	for i, key := range k.keys {
		parts[i] = key.Field.Name() + " " + key.Direction.String()
	}
	return strings.Join(parts, ", ")
}
