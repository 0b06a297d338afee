// Package spec implements composable specifications: immutable predicates
// over an entity type T that combine with And, Or and Not.
//
// A Spec wraps a node of a sealed tree:
//
//	Leaf        named opaque predicate (func(T) bool)
//	Comparison  field <op> literal, built with Eq, Ne, Lt, Le, Gt, Ge, In, IsNull
//	Conjunction left AND right
//	Disjunction left OR right
//	Negation    NOT inner
//
// Specs are values. Combining two specs builds a new node and never touches
// the operands, so a Spec can be shared freely between goroutines.
//
// Construction errors are sticky. Passing a zero Spec, a nil predicate, an
// invalid field or an unsupported literal records an error that Err returns
// immediately and that every visitor, compile and apply operation returns
// again. A spec with an error is satisfied by nothing.
//
// Trees are consumed through visitors. Accept folds a tree post-order, and
// the package ships the visitors the rest of the module needs:
//
//	Compile     → func(T) bool for in-memory evaluation
//	Lower       → queryir.Predicate for SQL translation
//	Fingerprint → content hash of the canonical tree
//	String      → human readable rendering
//
// Only Comparison nodes lower to the query IR. A tree containing a Leaf
// fails Lower with ErrNotTranslatable and has to be evaluated in memory.
//
// Evaluation is two-valued. A comparison against a null or missing field is
// false for every operator except IsNull; Not of that comparison is true.
package spec
