// Package compiler loads criteria definitions from CUE, YAML or JSON and
// builds them into queries over schemaless documents.
//
// A definition names a collection, declares the kinds of the fields it
// uses, and selects documents with either a where tree or an AIP-160
// filter string. Ordering comes from an order list or an AIP-132 order_by
// string. Paging uses limit and offset.
//
//	criteria: adults: {
//		from: "people"
//		fields: {age: "int", name: "string"}
//		filter: "age >= 18"
//		order_by: "name, age desc"
//		limit: 10
//	}
package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Definition is a criteria definition as written in a source file.
type Definition struct {
	Name string `yaml:"name" json:"name"`
	From string `yaml:"from" json:"from"`

	// Fields maps field paths to kinds: string, int, bool or any.
	Fields map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Where and Filter are mutually exclusive.
	Where  *Node  `yaml:"where,omitempty" json:"where,omitempty"`
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Order and OrderBy are mutually exclusive.
	Order   []OrderTerm `yaml:"order,omitempty" json:"order,omitempty"`
	OrderBy string      `yaml:"order_by,omitempty" json:"order_by,omitempty"`

	Limit  int `yaml:"limit,omitempty" json:"limit,omitempty"`
	Offset int `yaml:"offset,omitempty" json:"offset,omitempty"`

	// Pos is set by the CUE loader, Line by the YAML loader.
	Pos  token.Pos `yaml:"-" json:"-"`
	Line int       `yaml:"-" json:"-"`
}

// Node is one node of a where tree. Exactly one of All, Any, Not or Field
// is set.
type Node struct {
	All []Node `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Node `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Node  `yaml:"not,omitempty" json:"not,omitempty"`

	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Op     string `yaml:"op,omitempty" json:"op,omitempty"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty"`
}

// Leaf operators of a where tree.
const (
	OpEq     = "="
	OpNe     = "!="
	OpLt     = "<"
	OpLe     = "<="
	OpGt     = ">"
	OpGe     = ">="
	OpIn     = "in"
	OpIsNull = "is_null"
)

func validOp(op string) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn, OpIsNull:
		return true
	}
	return false
}

// OrderTerm is one sort key. Direction is asc (default) or desc.
type OrderTerm struct {
	Field     string `yaml:"field" json:"field"`
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"`
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Name    string
	Field   string
	Message string
	Pos     token.Pos
	Line    int
}

func (e *CompileError) Error() string {
	prefix := ""
	switch {
	case e.Pos.IsValid():
		prefix = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	case e.Line > 0:
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	if e.Name != "" {
		prefix += e.Name + ": "
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
