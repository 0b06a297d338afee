package compiler

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.einride.tech/aip/filtering"
	"go.einride.tech/aip/ordering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/order"
	"github.com/roach88/criteria/internal/spec"
)

type document = ir.IRObject

// declarations declares every typed field for the filter checker. Fields of
// kind any cannot appear in filters.
func declarations(kinds map[string]field.Kind) (*filtering.Declarations, error) {
	decls := []filtering.DeclarationOption{
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("true", filtering.TypeBool),
		filtering.DeclareIdent("false", filtering.TypeBool),
	}

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		switch kinds[name] {
		case field.KindString:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeString))
		case field.KindInt:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeInt))
		case field.KindBool:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeBool))
		}
	}
	return filtering.NewDeclarations(decls...)
}

// parseFilter parses an AIP-160 filter and translates it into a
// specification over documents.
func parseFilter(filterStr string, kinds map[string]field.Kind) (spec.Spec[document], error) {
	decls, err := declarations(kinds)
	if err != nil {
		return spec.Spec[document]{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return spec.Spec[document]{}, fmt.Errorf("parse filter: %w", err)
	}
	if filter.CheckedExpr == nil || filter.CheckedExpr.GetExpr() == nil {
		return spec.Spec[document]{}, fmt.Errorf("parse filter: empty expression")
	}

	t := translator{kinds: kinds}
	s, err := t.expr(filter.CheckedExpr.GetExpr())
	if err != nil {
		return spec.Spec[document]{}, err
	}
	if err := s.Err(); err != nil {
		return spec.Spec[document]{}, err
	}
	return s, nil
}

type translator struct {
	kinds map[string]field.Kind
}

func (t translator) expr(e *expr.Expr) (spec.Spec[document], error) {
	if e == nil {
		return spec.Spec[document]{}, fmt.Errorf("nil expression")
	}

	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_CallExpr:
		return t.call(kind.CallExpr)
	case *expr.Expr_IdentExpr, *expr.Expr_SelectExpr:
		// A bare bool field is shorthand for field = true.
		name, err := fieldName(e)
		if err != nil {
			return spec.Spec[document]{}, err
		}
		if t.kinds[name] != field.KindBool {
			return spec.Spec[document]{}, fmt.Errorf("%s is not a bool field", name)
		}
		return spec.Eq(field.Path(name, field.KindBool), true), nil
	default:
		return spec.Spec[document]{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (t translator) call(call *expr.Expr_Call) (spec.Spec[document], error) {
	switch call.GetFunction() {
	case "AND", "FUZZY":
		return t.junction(call.GetArgs(), spec.And[document])
	case "OR":
		return t.junction(call.GetArgs(), spec.Or[document])
	case "NOT":
		if len(call.GetArgs()) != 1 {
			return spec.Spec[document]{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := t.expr(call.GetArgs()[0])
		if err != nil {
			return spec.Spec[document]{}, err
		}
		return inner.Not(), nil
	case "=":
		return t.comparison(call.GetArgs(), spec.Eq[document])
	case "!=":
		return t.comparison(call.GetArgs(), spec.Ne[document])
	case "<":
		return t.comparison(call.GetArgs(), spec.Lt[document])
	case "<=":
		return t.comparison(call.GetArgs(), spec.Le[document])
	case ">":
		return t.comparison(call.GetArgs(), spec.Gt[document])
	case ">=":
		return t.comparison(call.GetArgs(), spec.Ge[document])
	default:
		return spec.Spec[document]{}, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
}

func (t translator) junction(args []*expr.Expr, combine func(...spec.Spec[document]) spec.Spec[document]) (spec.Spec[document], error) {
	if len(args) < 2 {
		return spec.Spec[document]{}, fmt.Errorf("junction requires at least 2 arguments")
	}
	specs := make([]spec.Spec[document], 0, len(args))
	for _, arg := range args {
		s, err := t.expr(arg)
		if err != nil {
			return spec.Spec[document]{}, err
		}
		specs = append(specs, s)
	}
	return combine(specs...), nil
}

func (t translator) comparison(args []*expr.Expr, build func(field.Field[document], any) spec.Spec[document]) (spec.Spec[document], error) {
	if len(args) != 2 {
		return spec.Spec[document]{}, fmt.Errorf("comparison requires 2 arguments")
	}

	name, err := fieldName(args[0])
	if err != nil {
		return spec.Spec[document]{}, fmt.Errorf("left operand: %w", err)
	}
	kind, ok := t.kinds[name]
	if !ok {
		return spec.Spec[document]{}, fmt.Errorf("unknown field: %s", name)
	}

	value, err := constValue(args[1])
	if err != nil {
		return spec.Spec[document]{}, fmt.Errorf("%s: %w", name, err)
	}
	return build(field.Path(name, kind), value), nil
}

// fieldName flattens an identifier or a member chain such as
// address.city.
func fieldName(e *expr.Expr) (string, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.GetName(), nil
	case *expr.Expr_SelectExpr:
		operand, err := fieldName(kind.SelectExpr.GetOperand())
		if err != nil {
			return "", err
		}
		return operand + "." + kind.SelectExpr.GetField(), nil
	default:
		return "", fmt.Errorf("expected field, got %T", kind)
	}
}

func constValue(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		switch c := kind.ConstExpr.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return c.StringValue, nil
		case *expr.Constant_Int64Value:
			return c.Int64Value, nil
		case *expr.Constant_Uint64Value:
			if c.Uint64Value > math.MaxInt64 {
				return nil, fmt.Errorf("%d is out of range", c.Uint64Value)
			}
			return int64(c.Uint64Value), nil
		case *expr.Constant_BoolValue:
			return c.BoolValue, nil
		case *expr.Constant_DoubleValue:
			return nil, fmt.Errorf("fractional numbers are not supported: %v", c.DoubleValue)
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", c)
		}
	case *expr.Expr_IdentExpr:
		switch kind.IdentExpr.GetName() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("right operand must be a literal, got field %s", kind.IdentExpr.GetName())
	default:
		return nil, fmt.Errorf("right operand must be a literal, got %T", kind)
	}
}

// orderByTerms parses an AIP-132 order_by string such as
// "name, age desc".
func orderByTerms(s string) ([]OrderTerm, error) {
	var orderBy ordering.OrderBy
	if err := orderBy.UnmarshalString(s); err != nil {
		return nil, fmt.Errorf("parse order_by: %w", err)
	}

	terms := make([]OrderTerm, 0, len(orderBy.Fields))
	for _, f := range orderBy.Fields {
		dir := "asc"
		if f.Desc {
			dir = "desc"
		}
		terms = append(terms, OrderTerm{Field: f.Path, Direction: dir})
	}
	return terms, nil
}

func parseOrderBy(s string, kinds map[string]field.Kind) (order.Keys[document], error) {
	terms, err := orderByTerms(s)
	if err != nil {
		return order.Keys[document]{}, err
	}
	return buildKeys(terms, kinds)
}

// buildKeys turns order terms into sort keys.
func buildKeys(terms []OrderTerm, kinds map[string]field.Kind) (order.Keys[document], error) {
	var keys order.Keys[document]
	for i, term := range terms {
		dir := order.Ascending
		if strings.TrimSpace(term.Direction) != "" {
			var err error
			if dir, err = order.ParseDirection(term.Direction); err != nil {
				return order.Keys[document]{}, fmt.Errorf("order[%d]: %w", i, err)
			}
		}
		f := field.Path(term.Field, kinds[term.Field])
		if i == 0 {
			keys = order.By(f, dir)
		} else {
			keys = keys.Then(f, dir)
		}
		if err := keys.Err(); err != nil {
			return order.Keys[document]{}, fmt.Errorf("order[%d]: %w", i, err)
		}
	}
	return keys, nil
}
