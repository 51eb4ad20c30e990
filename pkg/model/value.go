package model

import (
	"encoding/json"
	"math"
	"time"
	"unicode"
	"unicode/utf8"
)

// Value classes for cross-type ordering: nil < bool < number < string.
// Timestamps live in the number class at their epoch-millisecond value.
const (
	classNull = iota
	classBool
	classNumber
	classString
)

// NormalizeValue canonicalizes an attribute value into the engine's value
// domain: integers become int64, float32 widens to float64, json.Number
// parses to int64 or float64. Strings, bools, time.Time and nil pass
// through unchanged, as does anything outside the domain (callers reject
// those separately).
func NormalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return v
	}
}

// IsComparable reports whether a normalized value belongs to the engine's
// attribute value domain.
func IsComparable(v interface{}) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string, time.Time:
		return true
	}
	return false
}

// KindOf returns the schema kind a normalized value belongs to. Nil has
// no kind; the second return is false for nil and out-of-domain values.
func KindOf(v interface{}) (Kind, bool) {
	switch v.(type) {
	case bool:
		return KindBool, true
	case int64:
		return KindInt, true
	case float64:
		return KindFloat, true
	case string:
		return KindString, true
	case time.Time:
		return KindTime, true
	}
	return "", false
}

func valueClass(v interface{}) int {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case int64, float64, time.Time:
		return classNumber
	case string:
		return classString
	}
	return classNull
}

// CompareValues imposes a total order over normalized attribute values.
// Values of different classes order by class; within a class: false < true,
// numbers by numeric value with timestamps at epoch milliseconds, strings
// case-insensitive in codepoint order. Returns -1, 0 or +1.
func CompareValues(a, b interface{}) int {
	ca, cb := valueClass(a), valueClass(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}

	switch ca {
	case classNull:
		return 0
	case classBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case classNumber:
		return compareNumbers(a, b)
	case classString:
		return CompareStrings(a.(string), b.(string))
	}
	return 0
}

func compareNumbers(a, b interface{}) int {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}

	af, bf := asFloat64(a), asFloat64(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case time.Time:
		return x.UnixMilli(), true
	}
	return 0, false
}

func asFloat64(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case time.Time:
		return float64(x.UnixMilli())
	}
	return 0
}

// CompareStrings compares a and b case-insensitively in codepoint order.
func CompareStrings(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

// CompareIDs compares record identifiers in natural order: maximal digit
// runs compare by numeric value, everything else by case-insensitive
// codepoints, so "2" < "10" < "100". Decimal-string identifiers therefore
// order the way sequence generators produce them. The order is strict
// over distinct identifiers: zero-padding and letter case break ties.
func CompareIDs(a, b string) int {
	if cmp := compareNaturalFold(a, b); cmp != 0 {
		return cmp
	}
	// Case-insensitively equal; exact bytes keep distinct ids ordered.
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	}
	return 1
}

func compareNaturalFold(a, b string) int {
	for a != "" && b != "" {
		da, ra := leadingDigits(a)
		db, rb := leadingDigits(b)

		if da != "" && db != "" {
			if cmp := compareDigitRuns(da, db); cmp != 0 {
				return cmp
			}
			a, b = ra, rb
			continue
		}

		ca, na := utf8.DecodeRuneInString(a)
		cb, nb := utf8.DecodeRuneInString(b)
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

// leadingDigits splits off the maximal run of ASCII digits at the front.
func leadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func compareDigitRuns(a, b string) int {
	ta := trimLeadingZeros(a)
	tb := trimLeadingZeros(b)
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	// Numerically equal; zero-padding decides so the order stays strict.
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return 0
}

func trimLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
