package spec

import (
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// Visitor converts a specification tree into a result of type R.
//
// Accept calls the Visit methods post-order: children are visited first and
// their results are handed to the parent. Returning an error aborts the fold.
type Visitor[T, R any] interface {
	VisitLeaf(n Leaf[T]) (R, error)
	VisitComparison(n Comparison[T]) (R, error)
	VisitAnd(left, right R) (R, error)
	VisitOr(left, right R) (R, error)
	VisitNot(inner R) (R, error)
}

// Accept folds s with v. A spec with a construction error returns that error
// without visiting anything.
func Accept[T, R any](s Spec[T], v Visitor[T, R]) (R, error) {
	if err := s.check(); err != nil {
		var zero R
		return zero, err
	}
	return accept(s.node, v)
}

func accept[T, R any](n Node[T], v Visitor[T, R]) (R, error) {
	var zero R

	switch node := n.(type) {
	case Leaf[T]:
		return v.VisitLeaf(node)
	case Comparison[T]:
		return v.VisitComparison(node)
	case Conjunction[T]:
		left, right, err := acceptPair(node.Left, node.Right, v)
		if err != nil {
			return zero, err
		}
		return v.VisitAnd(left, right)
	case Disjunction[T]:
		left, right, err := acceptPair(node.Left, node.Right, v)
		if err != nil {
			return zero, err
		}
		return v.VisitOr(left, right)
	case Negation[T]:
		inner, err := accept(node.Inner, v)
		if err != nil {
			return zero, err
		}
		return v.VisitNot(inner)
	default:
		return zero, fmt.Errorf("unknown specification node %T", n)
	}
}

func acceptPair[T, R any](l, r Node[T], v Visitor[T, R]) (R, R, error) {
	var zero R
	left, err := accept(l, v)
	if err != nil {
		return zero, zero, err
	}
	right, err := accept(r, v)
	if err != nil {
		return zero, zero, err
	}
	return left, right, nil
}

// Compile folds s into a single closure for in-memory filtering.
func Compile[T any](s Spec[T]) (func(T) bool, error) {
	return Accept[T, func(T) bool](s, compileVisitor[T]{})
}

type compileVisitor[T any] struct{}

func (compileVisitor[T]) VisitLeaf(n Leaf[T]) (func(T) bool, error) {
	return n.Pred, nil
}

func (compileVisitor[T]) VisitComparison(n Comparison[T]) (func(T) bool, error) {
	return n.eval, nil
}

func (compileVisitor[T]) VisitAnd(left, right func(T) bool) (func(T) bool, error) {
	return func(x T) bool { return left(x) && right(x) }, nil
}

func (compileVisitor[T]) VisitOr(left, right func(T) bool) (func(T) bool, error) {
	return func(x T) bool { return left(x) || right(x) }, nil
}

func (compileVisitor[T]) VisitNot(inner func(T) bool) (func(T) bool, error) {
	return func(x T) bool { return !inner(x) }, nil
}

// Lower translates s into a query IR predicate. Nested conjunctions and
// disjunctions are flattened into n-ary And/Or nodes. Trees containing a
// Leaf fail with ErrNotTranslatable.
func Lower[T any](s Spec[T]) (queryir.Predicate, error) {
	return Accept[T, queryir.Predicate](s, lowerVisitor[T]{})
}

type lowerVisitor[T any] struct{}

func (lowerVisitor[T]) VisitLeaf(n Leaf[T]) (queryir.Predicate, error) {
	return nil, fmt.Errorf("leaf %q: %w", n.Name, ErrNotTranslatable)
}

func (lowerVisitor[T]) VisitComparison(n Comparison[T]) (queryir.Predicate, error) {
	name := n.Field.Name()
	switch n.Op {
	case OpIsNull:
		return queryir.IsNull{Field: name}, nil
	case OpIn:
		return queryir.In{Field: name, Values: n.Values}, nil
	}

	op, ok := irOps[n.Op]
	if !ok {
		return nil, fmt.Errorf("operator %s: %w", n.Op, ErrNotTranslatable)
	}
	return queryir.Compare{Field: name, Op: op, Value: n.Value}, nil
}

var irOps = map[Op]queryir.Op{
	OpEq: queryir.OpEq,
	OpNe: queryir.OpNe,
	OpLt: queryir.OpLt,
	OpLe: queryir.OpLe,
	OpGt: queryir.OpGt,
	OpGe: queryir.OpGe,
}

func (lowerVisitor[T]) VisitAnd(left, right queryir.Predicate) (queryir.Predicate, error) {
	var preds []queryir.Predicate
	preds = appendFlat[queryir.And](preds, left, func(a queryir.And) []queryir.Predicate { return a.Predicates })
	preds = appendFlat[queryir.And](preds, right, func(a queryir.And) []queryir.Predicate { return a.Predicates })
	return queryir.And{Predicates: preds}, nil
}

func (lowerVisitor[T]) VisitOr(left, right queryir.Predicate) (queryir.Predicate, error) {
	var preds []queryir.Predicate
	preds = appendFlat[queryir.Or](preds, left, func(o queryir.Or) []queryir.Predicate { return o.Predicates })
	preds = appendFlat[queryir.Or](preds, right, func(o queryir.Or) []queryir.Predicate { return o.Predicates })
	return queryir.Or{Predicates: preds}, nil
}

func (lowerVisitor[T]) VisitNot(inner queryir.Predicate) (queryir.Predicate, error) {
	return queryir.Not{Predicate: inner}, nil
}

// appendFlat splices p's operands into dst when p is the same junction kind.
func appendFlat[J queryir.Predicate](dst []queryir.Predicate, p queryir.Predicate, operands func(J) []queryir.Predicate) []queryir.Predicate {
	if j, ok := p.(J); ok {
		return append(dst, operands(j)...)
	}
	return append(dst, p)
}

// Fingerprint returns a content hash of the canonical tree. Leaves
// contribute only their names, so two leaves with the same name are treated
// as the same predicate.
func Fingerprint[T any](s Spec[T]) (string, error) {
	tree, err := Accept[T, ir.IRValue](s, canonicalVisitor[T]{})
	if err != nil {
		return "", err
	}
	return ir.Fingerprint(ir.DomainSpec, tree)
}

// Equal reports whether a and b have the same structure. Specs with errors
// are never equal.
func Equal[T any](a, b Spec[T]) bool {
	fa, err := Fingerprint(a)
	if err != nil {
		return false
	}
	fb, err := Fingerprint(b)
	if err != nil {
		return false
	}
	return fa == fb
}

type canonicalVisitor[T any] struct{}

func (canonicalVisitor[T]) VisitLeaf(n Leaf[T]) (ir.IRValue, error) {
	return ir.NewIRObject(ir.O("leaf", ir.IRString(n.Name))), nil
}

func (canonicalVisitor[T]) VisitComparison(n Comparison[T]) (ir.IRValue, error) {
	obj := ir.NewIRObject(
		ir.O("field", ir.IRString(n.Field.Name())),
		ir.O("op", ir.IRString(n.Op.String())),
	)
	switch n.Op {
	case OpIsNull:
	case OpIn:
		obj["values"] = ir.NewIRArray(n.Values...)
	default:
		obj["value"] = n.Value
	}
	return obj, nil
}

func (canonicalVisitor[T]) VisitAnd(left, right ir.IRValue) (ir.IRValue, error) {
	return ir.NewIRObject(ir.O("and", ir.NewIRArray(left, right))), nil
}

func (canonicalVisitor[T]) VisitOr(left, right ir.IRValue) (ir.IRValue, error) {
	return ir.NewIRObject(ir.O("or", ir.NewIRArray(left, right))), nil
}

func (canonicalVisitor[T]) VisitNot(inner ir.IRValue) (ir.IRValue, error) {
	return ir.NewIRObject(ir.O("not", inner)), nil
}

// String renders s, e.g. "(name = \"ada\" AND NOT age > 30)".
func (s Spec[T]) String() string {
	out, err := Accept[T, string](s, renderVisitor[T]{})
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return out
}

type renderVisitor[T any] struct{}

func (renderVisitor[T]) VisitLeaf(n Leaf[T]) (string, error) {
	if n.Name == "" {
		return "<predicate>", nil
	}
	return n.Name, nil
}

func (renderVisitor[T]) VisitComparison(n Comparison[T]) (string, error) {
	name := n.Field.Name()
	switch n.Op {
	case OpIsNull:
		return name + " IS NULL", nil
	case OpIn:
		vals := make([]string, len(n.Values))
		for i, v := range n.Values {
			vals[i] = renderValue(v)
		}
		return name + " IN (" + strings.Join(vals, ", ") + ")", nil
	}
	return name + " " + n.Op.String() + " " + renderValue(n.Value), nil
}

func (renderVisitor[T]) VisitAnd(left, right string) (string, error) {
	return "(" + left + " AND " + right + ")", nil
}

func (renderVisitor[T]) VisitOr(left, right string) (string, error) {
	return "(" + left + " OR " + right + ")", nil
}

func (renderVisitor[T]) VisitNot(inner string) (string, error) {
	return "NOT " + inner, nil
}

func renderValue(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
