package ir

import "strings"

// rank orders value kinds the way SQLite orders storage classes once
// json_extract has unwrapped a document field: NULL first, then numbers
// (booleans are the integers 0 and 1), then text. Arrays and objects sort
// last; querysql ranks them with json_type.
func rank(v IRValue) int {
	switch v.(type) {
	case nil, IRNull:
		return 0
	case IRBool, IRInt:
		return 1
	case IRString:
		return 2
	case IRArray:
		return 3
	case IRObject:
		return 4
	default:
		return 5
	}
}

// numeric returns the integer view of a number-ranked value.
func numeric(v IRValue) int64 {
	switch val := v.(type) {
	case IRInt:
		return int64(val)
	case IRBool:
		if val {
			return 1
		}
		return 0
	}
	return 0
}

// Compare returns -1, 0 or +1. It is a total order over IRValues:
// null < numbers < strings < arrays < objects. Strings compare by bytes,
// like SQLite's BINARY collation. Arrays compare element-wise, objects by
// their sorted keys and then values.
func Compare(a, b IRValue) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case IRBool, IRInt:
		x, y := numeric(av), numeric(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case IRString:
		return strings.Compare(string(av), string(b.(IRString)))
	case IRArray:
		return compareArrays(av, b.(IRArray))
	case IRObject:
		return compareObjects(av, b.(IRObject))
	}
	return 0
}

func compareArrays(a, b IRArray) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareObjects(a, b IRObject) int {
	ak, bk := a.SortedKeys(), b.SortedKeys()
	n := min(len(ak), len(bk))
	for i := 0; i < n; i++ {
		if c := compareKeysRFC8785(ak[i], bk[i]); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	switch {
	case len(ak) < len(bk):
		return -1
	case len(ak) > len(bk):
		return 1
	}
	return 0
}

// CompareForSort is Compare with arrays tying with arrays and objects tying
// with objects. SQL can rank a field's kind but has no element-wise order
// for composite JSON, so sort keys use this order on both paths.
func CompareForSort(a, b IRValue) int {
	ra, rb := rank(a), rank(b)
	if ra == rb && (ra == 3 || ra == 4) {
		return 0
	}
	return Compare(a, b)
}

// Equal reports whether a and b are the same value.
func Equal(a, b IRValue) bool {
	return Compare(a, b) == 0
}

// IsNull reports whether v is null or a nil interface.
func IsNull(v IRValue) bool {
	return rank(v) == 0
}
