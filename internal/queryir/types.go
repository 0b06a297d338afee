package queryir

import "github.com/roach88/criteria/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Compare: field <op> literal
//   - In: field is one of a literal list
//   - IsNull: field is null or missing
//   - And, Or: n-ary conjunction / disjunction
//   - Not: negation
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether op is one of the defined operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Select represents access to one source with filtering, ordering and paging.
//
// Semantics:
//
//	SELECT * FROM <from> WHERE <filter> ORDER BY <order>, <tie-breaker>
//	LIMIT <limit> OFFSET <offset>
//
// Example:
//
//	Select{
//	  From:   "people",
//	  Filter: And{Predicates: []Predicate{
//	    Compare{Field: "name", Op: OpEq, Value: ir.IRString("a")},
//	    Not{Predicate: Compare{Field: "age", Op: OpGt, Value: ir.IRInt(3)}},
//	  }},
//	  Order: []OrderKey{{Field: "age", Desc: true}},
//	  Limit: 10,
//	}
type Select struct {
	From   string     // Source/collection name
	Filter Predicate  // WHERE conditions (nil = no filter)
	Order  []OrderKey // Primary key first, later keys break ties
	Limit  int        // 0 = unlimited
	Offset int        // Rows to skip
}

func (Select) queryNode() {}

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Field string
	Desc  bool
}

// Compare represents a field-op-literal predicate.
//
// Comparing a null or missing field is false for every operator. Use IsNull
// to match missing values.
type Compare struct {
	Field string
	Op    Op
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// In matches when the field equals any of Values. An empty list matches
// nothing.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// IsNull matches when the field is null or missing.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// An empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate. Evaluation is two-valued: a comparison on a
// null field is false, so its negation is true.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}
