// Package queryir provides the untyped query intermediate representation
// that typed specifications are lowered into before they reach a backend.
//
// QueryIR is the abstraction boundary between the typed builder API
// (spec.Spec[T], order.Keys[T]) and backend query engines:
//
//	[spec / order] → [Query IR] → [SQL backend]
//	                            → [in-memory evaluation] (via the typed tree)
//
// Nothing in this package knows about Go entity types. Fields are dotted
// names, literals are ir.IRValue, and the tree is plain data that can be
// printed, validated and compiled.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which keeps type switches
// in backends exhaustive:
//
//	switch p := pred.(type) {
//	case Compare:
//	case In:
//	case IsNull:
//	case And, Or, Not:
//	default:
//	    // Impossible - compiler knows all Predicate types
//	}
//
// PORTABLE FRAGMENT:
//
//   - Select(from, filter, order, limit, offset)
//   - Predicates: Compare (= != < <= > >=), In, IsNull, And, Or, Not
//   - Explicit order keys; backends append their own deterministic
//     tie-breaker
//
// Validate reports constructs that compile but are probably mistakes
// (comparing against NULL, empty IN lists, degenerate And/Or). It never
// rejects a query.
//
// Literal values are ir.IRValue types only (no floats), which keeps SQL and
// in-memory comparison identical.
package queryir
