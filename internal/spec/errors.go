package spec

import "errors"

var (
	// ErrNilSpecification is returned when a zero Spec is used as an operand.
	ErrNilSpecification = errors.New("nil specification")

	// ErrNilPredicate is returned by Where for a nil predicate function.
	ErrNilPredicate = errors.New("nil predicate")

	// ErrInvalidValue is returned for literals a comparison cannot use.
	ErrInvalidValue = errors.New("invalid comparison value")

	// ErrNotTranslatable is returned by Lower for trees with opaque leaves.
	ErrNotTranslatable = errors.New("specification is not translatable to a query")
)
