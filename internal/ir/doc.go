// Package ir provides the value types shared by every layer of criteria.
//
// Specifications compare field values, sort keys order them, the query IR
// carries them as literals and the store persists them as document bodies.
// All of those use the sealed IRValue union defined here.
//
// ir imports nothing internal. Every other internal package may import it.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers, so in-memory
//     comparison and SQLite comparison agree bit for bit
//   - Compare is a total order over all IRValues
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for fingerprints
//   - All JSON tags use snake_case
package ir
