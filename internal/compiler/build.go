package compiler

import (
	"fmt"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/order"
	"github.com/roach88/criteria/internal/query"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/spec"
)

// Criteria is a built definition ready to run against a repository of
// documents.
type Criteria struct {
	Name  string
	From  string
	Query query.Query[ir.IRObject]

	// Warnings lists portability findings for the lowered query.
	Warnings []string
}

// Build validates def and builds its query. The first validation error is
// returned as a *CompileError.
func Build(def Definition) (*Criteria, error) {
	if errs := Validate(def); len(errs) > 0 {
		return nil, def.errorf(errs[0].Field, "[%s] %s", errs[0].Code, errs[0].Message)
	}

	kinds := resolveKinds(def.Fields)

	q := query.New[ir.IRObject]()

	switch {
	case def.Where != nil:
		filter, err := buildNode(*def.Where, kinds)
		if err != nil {
			return nil, def.errorf("where", "%v", err)
		}
		q = q.Where(filter)
	case def.Filter != "":
		filter, err := parseFilter(def.Filter, kinds)
		if err != nil {
			return nil, def.errorf("filter", "%v", err)
		}
		q = q.Where(filter)
	}

	var keys order.Keys[document]
	var err error
	switch {
	case len(def.Order) > 0:
		keys, err = buildKeys(def.Order, kinds)
	case def.OrderBy != "":
		keys, err = parseOrderBy(def.OrderBy, kinds)
	}
	if err != nil {
		return nil, def.errorf("order", "%v", err)
	}

	q = q.OrderBy(keys).Skip(def.Offset).Take(def.Limit)
	if err := q.Err(); err != nil {
		return nil, def.errorf("query", "%v", err)
	}

	c := &Criteria{Name: def.Name, From: def.From, Query: q}
	if sel, err := q.Lower(def.From); err == nil {
		c.Warnings = queryir.Validate(sel).Warnings
	}
	return c, nil
}

// BuildAll builds every definition, checking that names are unique.
func BuildAll(defs []Definition) ([]*Criteria, error) {
	if errs := ValidateAll(defs); len(errs) > 0 {
		return nil, &CompileError{Field: errs[0].Field, Message: fmt.Sprintf("[%s] %s", errs[0].Code, errs[0].Message)}
	}

	out := make([]*Criteria, 0, len(defs))
	for _, def := range defs {
		c, err := Build(def)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (def Definition) errorf(fieldPath, format string, args ...any) *CompileError {
	return &CompileError{
		Name:    def.Name,
		Field:   fieldPath,
		Message: fmt.Sprintf(format, args...),
		Pos:     def.Pos,
		Line:    def.Line,
	}
}

// resolveKinds parses declared kinds. Validate has already rejected bad
// ones.
func resolveKinds(fields map[string]string) map[string]field.Kind {
	kinds := make(map[string]field.Kind, len(fields))
	for name, kind := range fields {
		k, err := field.ParseKind(kind)
		if err != nil {
			continue
		}
		kinds[name] = k
	}
	return kinds
}

// buildNode builds a where tree.
func buildNode(n Node, kinds map[string]field.Kind) (spec.Spec[document], error) {
	switch {
	case n.All != nil:
		children, err := buildNodes(n.All, kinds)
		if err != nil {
			return spec.Spec[document]{}, err
		}
		return spec.And(children...), nil
	case n.Any != nil:
		children, err := buildNodes(n.Any, kinds)
		if err != nil {
			return spec.Spec[document]{}, err
		}
		return spec.Or(children...), nil
	case n.Not != nil:
		inner, err := buildNode(*n.Not, kinds)
		if err != nil {
			return spec.Spec[document]{}, err
		}
		return inner.Not(), nil
	}

	f := field.Path(n.Field, kinds[n.Field])
	switch n.Op {
	case OpEq, "":
		return spec.Eq(f, n.Value), nil
	case OpNe:
		return spec.Ne(f, n.Value), nil
	case OpLt:
		return spec.Lt(f, n.Value), nil
	case OpLe:
		return spec.Le(f, n.Value), nil
	case OpGt:
		return spec.Gt(f, n.Value), nil
	case OpGe:
		return spec.Ge(f, n.Value), nil
	case OpIn:
		return spec.In(f, n.Values...), nil
	case OpIsNull:
		return spec.IsNull(f), nil
	default:
		return spec.Spec[document]{}, fmt.Errorf("unknown operator %q", n.Op)
	}
}

func buildNodes(nodes []Node, kinds map[string]field.Kind) ([]spec.Spec[document], error) {
	out := make([]spec.Spec[document], len(nodes))
	for i, n := range nodes {
		s, err := buildNode(n, kinds)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
