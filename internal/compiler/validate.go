package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/field"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/order"
)

// Validation error codes (E100-E199)
const (
	ErrMissingName        = "E101" // name is required
	ErrMissingFrom        = "E102" // from is required
	ErrInvalidFieldName   = "E103" // field is not a dotted identifier
	ErrInvalidFieldKind   = "E104" // unknown kind string
	ErrDuplicateName      = "E105" // duplicate definition name
	ErrFloatForbidden     = "E106" // float kinds and fractional literals
	ErrInvalidOperator    = "E107" // unknown where operator
	ErrConflictingClauses = "E108" // where+filter or order+order_by
	ErrInvalidPaging      = "E109" // negative limit or offset
	ErrInvalidWhere       = "E110" // malformed where node
	ErrInvalidDirection   = "E111" // unknown sort direction
	ErrUndeclaredField    = "E112" // field used but not declared
	ErrInvalidFilter      = "E113" // filter does not parse or type-check
	ErrInvalidOrderBy     = "E114" // order_by does not parse
	ErrInvalidValue       = "E115" // literal does not fit the field
)

// ValidationError represents a definition validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a definition and returns all errors found (does not
// fail fast).
func Validate(def Definition) []ValidationError {
	v := &validator{def: def}
	v.validate()
	return v.errs
}

// ValidateAll validates every definition and reports duplicate names.
func ValidateAll(defs []Definition) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, def := range defs {
		if def.Name != "" && seen[def.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("criteria[%d].name", i),
				Message: fmt.Sprintf("duplicate definition name: %q", def.Name),
				Code:    ErrDuplicateName,
				Line:    def.Line,
			})
		}
		seen[def.Name] = true

		for _, e := range Validate(def) {
			e.Field = fmt.Sprintf("criteria[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

type validator struct {
	def   Definition
	kinds map[string]field.Kind
	errs  []ValidationError
}

func (v *validator) add(fieldPath, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   fieldPath,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Line:    v.def.Line,
	})
}

func (v *validator) validate() {
	def := v.def

	if strings.TrimSpace(def.Name) == "" {
		v.add("name", ErrMissingName, "name is required and must be non-empty")
	}
	if strings.TrimSpace(def.From) == "" {
		v.add("from", ErrMissingFrom, "from is required and must be non-empty")
	}

	v.validateFields()

	if def.Where != nil && def.Filter != "" {
		v.add("where", ErrConflictingClauses, "where and filter are mutually exclusive")
	}
	if len(def.Order) > 0 && def.OrderBy != "" {
		v.add("order", ErrConflictingClauses, "order and order_by are mutually exclusive")
	}

	if def.Where != nil {
		v.validateNode(*def.Where, "where")
	}
	if def.Filter != "" {
		if _, err := parseFilter(def.Filter, v.kinds); err != nil {
			v.add("filter", ErrInvalidFilter, "%v", err)
		}
	}

	for i, term := range def.Order {
		path := fmt.Sprintf("order[%d]", i)
		v.validateFieldRef(term.Field, path+".field")
		if strings.TrimSpace(term.Direction) != "" {
			if _, err := order.ParseDirection(term.Direction); err != nil {
				v.add(path+".direction", ErrInvalidDirection, "invalid direction %q, must be \"asc\" or \"desc\"", term.Direction)
			}
		}
	}
	if def.OrderBy != "" {
		terms, err := orderByTerms(def.OrderBy)
		if err != nil {
			v.add("order_by", ErrInvalidOrderBy, "%v", err)
		}
		for i, term := range terms {
			v.validateFieldRef(term.Field, fmt.Sprintf("order_by[%d]", i))
		}
	}

	if def.Limit < 0 {
		v.add("limit", ErrInvalidPaging, "limit must be >= 0, got %d", def.Limit)
	}
	if def.Offset < 0 {
		v.add("offset", ErrInvalidPaging, "offset must be >= 0, got %d", def.Offset)
	}
}

func (v *validator) validateFields() {
	v.kinds = make(map[string]field.Kind, len(v.def.Fields))

	names := make([]string, 0, len(v.def.Fields))
	for name := range v.def.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		kind := v.def.Fields[name]
		path := "fields." + name
		if !field.ValidName(name) {
			v.add(path, ErrInvalidFieldName, "%q is not a dotted identifier", name)
			continue
		}
		if isFloatKind(kind) {
			v.add(path, ErrFloatForbidden, "float kind forbidden for field %q, use int instead", name)
			continue
		}
		k, err := field.ParseKind(kind)
		if err != nil {
			v.add(path, ErrInvalidFieldKind, "invalid kind %q for field %q, must be string, int, bool or any", kind, name)
			continue
		}
		v.kinds[name] = k
	}
}

// validateFieldRef checks a field used by where or order. Once fields are
// declared, every use must be declared.
func (v *validator) validateFieldRef(name, path string) {
	if !field.ValidName(name) {
		v.add(path, ErrInvalidFieldName, "%q is not a dotted identifier", name)
		return
	}
	if len(v.def.Fields) > 0 {
		if _, ok := v.def.Fields[name]; !ok {
			v.add(path, ErrUndeclaredField, "field %q is not declared in fields", name)
		}
	}
}

func (v *validator) validateNode(n Node, path string) {
	set := 0
	for _, present := range []bool{n.All != nil, n.Any != nil, n.Not != nil, n.Field != "" || n.Op != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		v.add(path, ErrInvalidWhere, "node must have exactly one of all, any, not or field")
		return
	}

	switch {
	case n.All != nil:
		v.validateChildren(n.All, path+".all")
		return
	case n.Any != nil:
		v.validateChildren(n.Any, path+".any")
		return
	case n.Not != nil:
		v.validateNode(*n.Not, path+".not")
		return
	}

	v.validateFieldRef(n.Field, path+".field")

	op := n.Op
	if op == "" {
		op = OpEq
	}
	if !validOp(op) {
		v.add(path+".op", ErrInvalidOperator, "invalid operator %q", n.Op)
		return
	}

	switch op {
	case OpIn:
		if n.Value != nil {
			v.add(path+".value", ErrInvalidWhere, "in takes values, not value")
		}
		for i, x := range n.Values {
			if x == nil {
				v.add(fmt.Sprintf("%s.values[%d]", path, i), ErrInvalidValue, "null in an in list, use is_null")
				continue
			}
			v.validateLiteral(n.Field, x, fmt.Sprintf("%s.values[%d]", path, i))
		}
	case OpIsNull:
		if n.Value != nil || n.Values != nil {
			v.add(path, ErrInvalidWhere, "is_null takes no value")
		}
	default:
		if n.Values != nil {
			v.add(path+".values", ErrInvalidWhere, "%s takes value, not values", op)
		}
		switch {
		case n.Value == nil && op != OpEq && op != OpNe:
			v.add(path+".value", ErrInvalidValue, "%s needs a non-null value", op)
		case n.Value != nil:
			v.validateLiteral(n.Field, n.Value, path+".value")
		}
	}
}

func (v *validator) validateChildren(nodes []Node, path string) {
	if len(nodes) == 0 {
		v.add(path, ErrInvalidWhere, "needs at least one operand")
		return
	}
	for i, child := range nodes {
		v.validateNode(child, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) validateLiteral(name string, raw any, path string) {
	val, err := ir.FromGo(raw)
	if err != nil {
		code := ErrInvalidValue
		if strings.Contains(err.Error(), "float") {
			code = ErrFloatForbidden
		}
		v.add(path, code, "%v", err)
		return
	}

	var ok bool
	switch v.kinds[name] {
	case field.KindString:
		_, ok = val.(ir.IRString)
	case field.KindInt:
		_, ok = val.(ir.IRInt)
	case field.KindBool:
		_, ok = val.(ir.IRBool)
	default:
		switch val.(type) {
		case ir.IRArray, ir.IRObject:
		default:
			ok = true
		}
	}
	if !ok {
		v.add(path, ErrInvalidValue, "%v does not fit field %q of kind %s", raw, name, v.kinds[name])
	}
}

// isFloatKind checks if a kind string names a float type.
func isFloatKind(k string) bool {
	switch k {
	case "float", "float32", "float64", "number", "double":
		return true
	}
	return false
}
