package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadCUE compiles CUE source and returns the definitions under the
// top-level criteria struct, in declaration order.
func LoadCUE(src []byte, filename string) ([]Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("criteria"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "criteria",
			Message: "top-level criteria struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []Definition
	for iter.Next() {
		def, err := CompileDefinition(iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// CompileDefinition parses a CUE value into a Definition. The name comes
// from the last path selector unless the struct sets one.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`criteria: adults: { from: "people", ... }`)
//	def, err := CompileDefinition(v.LookupPath(cue.ParsePath("criteria.adults")))
func CompileDefinition(v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{Pos: v.Pos()}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	var err error
	if name, ok, err := optionalString(v, "name"); err != nil {
		return nil, err
	} else if ok {
		def.Name = name
	}

	fromVal := v.LookupPath(cue.ParsePath("from"))
	if !fromVal.Exists() {
		return nil, &CompileError{
			Name:    def.Name,
			Field:   "from",
			Message: "from is required",
			Pos:     v.Pos(),
		}
	}
	if def.From, err = fromVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	if def.Fields, err = parseFields(v); err != nil {
		return nil, err
	}

	if whereVal := v.LookupPath(cue.ParsePath("where")); whereVal.Exists() {
		node, err := parseNode(whereVal, "where")
		if err != nil {
			return nil, err
		}
		def.Where = &node
	}
	if def.Filter, _, err = optionalString(v, "filter"); err != nil {
		return nil, err
	}

	if def.Order, err = parseOrder(v); err != nil {
		return nil, err
	}
	if def.OrderBy, _, err = optionalString(v, "order_by"); err != nil {
		return nil, err
	}

	if def.Limit, err = optionalInt(v, "limit"); err != nil {
		return nil, err
	}
	if def.Offset, err = optionalInt(v, "offset"); err != nil {
		return nil, err
	}

	return def, nil
}

func optionalString(v cue.Value, path string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optionalInt(v cue.Value, path string) (int, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return 0, nil
	}
	if val.Kind() == cue.FloatKind {
		return 0, &CompileError{
			Field:   path,
			Message: "fractional numbers are not supported - use int instead",
			Pos:     val.Pos(),
		}
	}
	n, err := val.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("%d is out of range", n),
			Pos:     val.Pos(),
		}
	}
	return int(n), nil
}

// parseFields reads the fields struct. Kinds may be written as strings
// ("int") or as CUE types (int).
func parseFields(v cue.Value) (map[string]string, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, nil
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	fields := make(map[string]string)
	for iter.Next() {
		kind, err := extractKindName(iter.Value())
		if err != nil {
			return nil, err
		}
		fields[iter.Selector().Unquoted()] = kind
	}
	return fields, nil
}

// extractKindName converts a field declaration to a kind name.
// Floats are rejected.
func extractKindName(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return "string", nil
	case cue.IntKind:
		return "int", nil
	case cue.BoolKind:
		return "bool", nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "fields",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	case cue.TopKind:
		return "any", nil
	default:
		return "", &CompileError{
			Field:   "fields",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// parseNode parses a where tree node.
func parseNode(v cue.Value, path string) (Node, error) {
	var node Node

	for _, junction := range []struct {
		label string
		dst   *[]Node
	}{{"all", &node.All}, {"any", &node.Any}} {
		val := v.LookupPath(cue.ParsePath(junction.label))
		if !val.Exists() {
			continue
		}
		iter, err := val.List()
		if err != nil {
			return node, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			child, err := parseNode(iter.Value(), fmt.Sprintf("%s.%s[%d]", path, junction.label, i))
			if err != nil {
				return node, err
			}
			*junction.dst = append(*junction.dst, child)
		}
		if *junction.dst == nil {
			*junction.dst = []Node{}
		}
	}

	if notVal := v.LookupPath(cue.ParsePath("not")); notVal.Exists() {
		inner, err := parseNode(notVal, path+".not")
		if err != nil {
			return node, err
		}
		node.Not = &inner
	}

	var err error
	if node.Field, _, err = optionalString(v, "field"); err != nil {
		return node, err
	}
	if node.Op, _, err = optionalString(v, "op"); err != nil {
		return node, err
	}

	if val := v.LookupPath(cue.ParsePath("value")); val.Exists() {
		if node.Value, err = scalar(val, path+".value"); err != nil {
			return node, err
		}
	}
	if val := v.LookupPath(cue.ParsePath("values")); val.Exists() {
		iter, err := val.List()
		if err != nil {
			return node, formatCUEError(err)
		}
		node.Values = []any{}
		for i := 0; iter.Next(); i++ {
			x, err := scalar(iter.Value(), fmt.Sprintf("%s.values[%d]", path, i))
			if err != nil {
				return node, err
			}
			node.Values = append(node.Values, x)
		}
	}

	return node, nil
}

// scalar decodes a concrete CUE literal.
func scalar(v cue.Value, path string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.StringKind:
		return v.String()
	case cue.FloatKind:
		return nil, &CompileError{
			Field:   path,
			Message: "fractional numbers are not supported - use int instead",
			Pos:     v.Pos(),
		}
	case cue.BottomKind:
		return nil, &CompileError{
			Field:   path,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("only scalar literals are supported, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func parseOrder(v cue.Value) ([]OrderTerm, error) {
	orderVal := v.LookupPath(cue.ParsePath("order"))
	if !orderVal.Exists() {
		return nil, nil
	}

	iter, err := orderVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var terms []OrderTerm
	for iter.Next() {
		item := iter.Value()

		// Shorthand: a bare string is an ascending key.
		if s, err := item.String(); err == nil {
			terms = append(terms, OrderTerm{Field: s})
			continue
		}

		var term OrderTerm
		if term.Field, _, err = optionalString(item, "field"); err != nil {
			return nil, err
		}
		if term.Direction, _, err = optionalString(item, "direction"); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}
