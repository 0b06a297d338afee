package queryir

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// ValidationResult contains the portability analysis of a query.
type ValidationResult struct {
	// IsPortable indicates the query uses no suspicious constructs.
	IsPortable bool

	// Warnings lists what was found. Empty when IsPortable is true.
	Warnings []string
}

// Validate inspects a query and reports constructs that compile but are
// likely mistakes:
//  1. Empty source name
//  2. Negative limit or offset
//  3. Empty field names or unknown operators
//  4. Compare against NULL (always false - use IsNull)
//  5. Empty IN lists (always false)
//  6. And/Or with fewer than two operands
//  7. Comparing arrays or objects (no SQL equivalent)
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addWarning("Empty source name - select requires a collection")
	}
	if sel.Limit < 0 {
		v.addWarning("Negative limit %d", sel.Limit)
	}
	if sel.Offset < 0 {
		v.addWarning("Negative offset %d", sel.Offset)
	}
	for i, key := range sel.Order {
		if key.Field == "" {
			v.addWarning("Order key %d has an empty field name", i)
		}
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		v.addWarning("nil predicate operand")
		return
	}

	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case In:
		v.validateIn(pred)
	case *In:
		v.validateIn(*pred)
	case IsNull:
		v.validateField(pred.Field)
	case *IsNull:
		v.validateField(pred.Field)
	case And:
		v.validateJunction("And", pred.Predicates)
	case *And:
		v.validateJunction("And", pred.Predicates)
	case Or:
		v.validateJunction("Or", pred.Predicates)
	case *Or:
		v.validateJunction("Or", pred.Predicates)
	case Not:
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(pred.Predicate)
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) validateField(field string) {
	if field == "" {
		v.addWarning("Empty field name in predicate")
	}
}

func (v *validator) validateCompare(c Compare) {
	v.validateField(c.Field)
	if !c.Op.Valid() {
		v.addWarning("Unknown operator %q on field '%s'", c.Op, c.Field)
	}
	if ir.IsNull(c.Value) {
		v.addWarning("Field '%s' compared to NULL - comparison is always false, use IsNull", c.Field)
	}
	v.validateScalar(c.Field, c.Value)
}

func (v *validator) validateIn(in In) {
	v.validateField(in.Field)
	if len(in.Values) == 0 {
		v.addWarning("Field '%s' IN empty list - predicate is always false", in.Field)
	}
	for _, val := range in.Values {
		if ir.IsNull(val) {
			v.addWarning("Field '%s' IN list contains NULL - use IsNull", in.Field)
		}
		v.validateScalar(in.Field, val)
	}
}

func (v *validator) validateScalar(field string, val ir.IRValue) {
	switch val.(type) {
	case ir.IRArray, ir.IRObject:
		v.addWarning("Field '%s' compared to %T - only scalar literals are portable", field, val)
	}
}

func (v *validator) validateJunction(kind string, preds []Predicate) {
	if len(preds) < 2 {
		v.addWarning("%s with %d operand(s) - use the operand directly", kind, len(preds))
	}
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}
