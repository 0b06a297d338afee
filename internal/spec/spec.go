package spec

import (
	"fmt"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
)

// Node is one node of a specification tree.
//
// This is a sealed interface - only types in this package implement it.
type Node[T any] interface {
	eval(x T) bool
}

// Leaf is an opaque named predicate.
type Leaf[T any] struct {
	Name string
	Pred func(T) bool
}

func (n Leaf[T]) eval(x T) bool { return n.Pred(x) }

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpIsNull
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Comparison tests a field against a literal.
// Value is set for the binary operators, Values for OpIn, neither for OpIsNull.
type Comparison[T any] struct {
	Field  field.Field[T]
	Op     Op
	Value  ir.IRValue
	Values []ir.IRValue
}

func (n Comparison[T]) eval(x T) bool {
	v := n.Field.Get(x)
	if n.Op == OpIsNull {
		return ir.IsNull(v)
	}
	if ir.IsNull(v) {
		return false
	}

	switch n.Op {
	case OpIn:
		for _, want := range n.Values {
			if ir.Equal(v, want) {
				return true
			}
		}
		return false
	case OpEq:
		return ir.Compare(v, n.Value) == 0
	case OpNe:
		return ir.Compare(v, n.Value) != 0
	case OpLt:
		return ir.Compare(v, n.Value) < 0
	case OpLe:
		return ir.Compare(v, n.Value) <= 0
	case OpGt:
		return ir.Compare(v, n.Value) > 0
	case OpGe:
		return ir.Compare(v, n.Value) >= 0
	}
	return false
}

// Conjunction is satisfied when both children are.
type Conjunction[T any] struct {
	Left, Right Node[T]
}

func (n Conjunction[T]) eval(x T) bool { return n.Left.eval(x) && n.Right.eval(x) }

// Disjunction is satisfied when either child is.
type Disjunction[T any] struct {
	Left, Right Node[T]
}

func (n Disjunction[T]) eval(x T) bool { return n.Left.eval(x) || n.Right.eval(x) }

// Negation is satisfied when its child is not.
type Negation[T any] struct {
	Inner Node[T]
}

func (n Negation[T]) eval(x T) bool { return !n.Inner.eval(x) }

// Spec is an immutable specification over T. The zero Spec is not usable as
// an operand; build specs with Where or one of the comparison constructors.
type Spec[T any] struct {
	node Node[T]
	err  error
}

func fail[T any](err error) Spec[T] {
	return Spec[T]{err: err}
}

func (s Spec[T]) check() error {
	if s.err != nil {
		return s.err
	}
	if s.node == nil {
		return ErrNilSpecification
	}
	return nil
}

// Err returns the construction error, if any.
func (s Spec[T]) Err() error {
	return s.check()
}

// IsZero reports whether s is the zero Spec.
func (s Spec[T]) IsZero() bool {
	return s.node == nil && s.err == nil
}

// Node returns the root node, or nil for a zero or failed spec.
func (s Spec[T]) Node() Node[T] {
	if s.err != nil {
		return nil
	}
	return s.node
}

// And returns a spec satisfied when both s and other are.
func (s Spec[T]) And(other Spec[T]) Spec[T] {
	if err := s.check(); err != nil {
		return fail[T](fmt.Errorf("and: left operand: %w", err))
	}
	if err := other.check(); err != nil {
		return fail[T](fmt.Errorf("and: right operand: %w", err))
	}
	return Spec[T]{node: Conjunction[T]{Left: s.node, Right: other.node}}
}

// Or returns a spec satisfied when either s or other is.
func (s Spec[T]) Or(other Spec[T]) Spec[T] {
	if err := s.check(); err != nil {
		return fail[T](fmt.Errorf("or: left operand: %w", err))
	}
	if err := other.check(); err != nil {
		return fail[T](fmt.Errorf("or: right operand: %w", err))
	}
	return Spec[T]{node: Disjunction[T]{Left: s.node, Right: other.node}}
}

// Not returns the negation of s.
func (s Spec[T]) Not() Spec[T] {
	if err := s.check(); err != nil {
		return fail[T](fmt.Errorf("not: %w", err))
	}
	return Spec[T]{node: Negation[T]{Inner: s.node}}
}

// IsSatisfiedBy evaluates s against x. A spec with an error is satisfied by
// nothing.
func (s Spec[T]) IsSatisfiedBy(x T) bool {
	if s.check() != nil {
		return false
	}
	return s.node.eval(x)
}

// And folds specs left to right: And(a, b, c) is a.And(b).And(c).
func And[T any](specs ...Spec[T]) Spec[T] {
	return fold(specs, "and", Spec[T].And)
}

// Or folds specs left to right: Or(a, b, c) is a.Or(b).Or(c).
func Or[T any](specs ...Spec[T]) Spec[T] {
	return fold(specs, "or", Spec[T].Or)
}

// Not is the function form of s.Not().
func Not[T any](s Spec[T]) Spec[T] {
	return s.Not()
}

func fold[T any](specs []Spec[T], name string, combine func(Spec[T], Spec[T]) Spec[T]) Spec[T] {
	if len(specs) == 0 {
		return fail[T](fmt.Errorf("%s: no operands: %w", name, ErrNilSpecification))
	}
	acc := specs[0]
	if err := acc.check(); err != nil {
		return fail[T](fmt.Errorf("%s: operand 0: %w", name, err))
	}
	for _, next := range specs[1:] {
		acc = combine(acc, next)
	}
	return acc
}

// Where declares a leaf spec from an opaque predicate. The name identifies
// the leaf in rendering and fingerprints. Leaves cannot be translated to SQL.
func Where[T any](name string, pred func(T) bool) Spec[T] {
	if pred == nil {
		return fail[T](fmt.Errorf("where %q: %w", name, ErrNilPredicate))
	}
	return Spec[T]{node: Leaf[T]{Name: name, Pred: pred}}
}

// Eq matches when f equals value. Eq against nil is IsNull.
func Eq[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpEq, value)
}

// Ne matches when f is non-null and differs from value.
// Ne against nil is Not(IsNull).
func Ne[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpNe, value)
}

// Lt matches when f < value.
func Lt[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpLt, value)
}

// Le matches when f <= value.
func Le[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpLe, value)
}

// Gt matches when f > value.
func Gt[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpGt, value)
}

// Ge matches when f >= value.
func Ge[T any](f field.Field[T], value any) Spec[T] {
	return compare(f, OpGe, value)
}

// IsNull matches when f is null or missing.
func IsNull[T any](f field.Field[T]) Spec[T] {
	if err := f.Validate(); err != nil {
		return fail[T](err)
	}
	return Spec[T]{node: Comparison[T]{Field: f, Op: OpIsNull}}
}

// In matches when f equals one of values. An empty list matches nothing.
func In[T any](f field.Field[T], values ...any) Spec[T] {
	if err := f.Validate(); err != nil {
		return fail[T](err)
	}
	irValues := make([]ir.IRValue, 0, len(values))
	for i, raw := range values {
		v, err := literal(f, raw)
		if err != nil {
			return fail[T](fmt.Errorf("%s IN [%d]: %w", f.Name(), i, err))
		}
		if ir.IsNull(v) {
			return fail[T](fmt.Errorf("%s IN [%d]: null in list, use IsNull: %w", f.Name(), i, ErrInvalidValue))
		}
		irValues = append(irValues, v)
	}
	return Spec[T]{node: Comparison[T]{Field: f, Op: OpIn, Values: irValues}}
}

func compare[T any](f field.Field[T], op Op, raw any) Spec[T] {
	if err := f.Validate(); err != nil {
		return fail[T](err)
	}
	v, err := literal(f, raw)
	if err != nil {
		return fail[T](fmt.Errorf("%s %s: %w", f.Name(), op, err))
	}

	if ir.IsNull(v) {
		switch op {
		case OpEq:
			return Spec[T]{node: Comparison[T]{Field: f, Op: OpIsNull}}
		case OpNe:
			return Spec[T]{node: Negation[T]{Inner: Comparison[T]{Field: f, Op: OpIsNull}}}
		default:
			return fail[T](fmt.Errorf("%s %s null: ordering against null: %w", f.Name(), op, ErrInvalidValue))
		}
	}
	return Spec[T]{node: Comparison[T]{Field: f, Op: op, Value: v}}
}

// literal converts raw to a scalar IR value that matches the field kind.
func literal[T any](f field.Field[T], raw any) (ir.IRValue, error) {
	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	switch v.(type) {
	case ir.IRNull:
		return v, nil
	case ir.IRArray, ir.IRObject:
		return nil, fmt.Errorf("%w: %T is not a scalar", ErrInvalidValue, v)
	}

	ok := true
	switch f.Kind() {
	case field.KindString:
		_, ok = v.(ir.IRString)
	case field.KindInt:
		_, ok = v.(ir.IRInt)
	case field.KindBool:
		_, ok = v.(ir.IRBool)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s field %q", ErrInvalidValue, v, f.Kind(), f.Name())
	}
	return v, nil
}
