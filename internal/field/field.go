// Package field describes named, typed attributes of an entity.
//
// A Field pairs a name with an accessor. In-memory evaluation calls the
// accessor; SQL translation only ever sees the name. Specifications and sort
// keys are built from fields so the same tree can run either way.
package field

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/criteria/internal/ir"
)

// ErrInvalidField is returned for a zero Field or a malformed name.
var ErrInvalidField = errors.New("invalid field")

// Kind is the value kind a field produces.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "any"
	}
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	case "any", "":
		return KindAny, nil
	default:
		return KindAny, fmt.Errorf("unknown field kind %q", s)
	}
}

// pathPattern accepts dotted identifiers. Names end up inside SQL JSON paths,
// so nothing else is allowed.
var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidName reports whether name is a dotted identifier path.
func ValidName(name string) bool {
	return pathPattern.MatchString(name)
}

// Field is an immutable named accessor over T.
type Field[T any] struct {
	name string
	kind Kind
	get  func(T) ir.IRValue
}

// Name returns the field name used for SQL translation.
func (f Field[T]) Name() string { return f.name }

// Kind returns the declared kind.
func (f Field[T]) Kind() Kind { return f.kind }

// Get reads the field from x.
func (f Field[T]) Get(x T) ir.IRValue {
	v := f.get(x)
	if v == nil {
		return ir.IRNull{}
	}
	return v
}

// Validate returns ErrInvalidField for a zero field or a malformed name.
func (f Field[T]) Validate() error {
	if f.get == nil {
		return fmt.Errorf("%w: field %q has no accessor", ErrInvalidField, f.name)
	}
	if !ValidName(f.name) {
		return fmt.Errorf("%w: %q is not a dotted identifier", ErrInvalidField, f.name)
	}
	return nil
}

func (f Field[T]) String() string { return f.name }

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// String declares a string field.
func String[T any, S ~string](name string, get func(T) S) Field[T] {
	return Field[T]{name: name, kind: KindString, get: func(x T) ir.IRValue {
		return ir.IRString(get(x))
	}}
}

// Int declares an integer field.
func Int[T any, N integer](name string, get func(T) N) Field[T] {
	return Field[T]{name: name, kind: KindInt, get: func(x T) ir.IRValue {
		return ir.IRInt(int64(get(x)))
	}}
}

// Bool declares a boolean field.
func Bool[T any](name string, get func(T) bool) Field[T] {
	return Field[T]{name: name, kind: KindBool, get: func(x T) ir.IRValue {
		return ir.IRBool(get(x))
	}}
}

// Value declares a field whose accessor already returns IR values.
// Useful for optional attributes that may be ir.IRNull.
func Value[T any](name string, kind Kind, get func(T) ir.IRValue) Field[T] {
	return Field[T]{name: name, kind: kind, get: get}
}

// Path declares a field of a schemaless document. The name is resolved
// with ir.IRObject.Lookup, so "address.city" walks nested objects.
func Path(name string, kind Kind) Field[ir.IRObject] {
	return Field[ir.IRObject]{name: name, kind: kind, get: func(doc ir.IRObject) ir.IRValue {
		return doc.Lookup(name)
	}}
}
