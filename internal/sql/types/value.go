// Package types defines tuplebase's data model: the tagged Value union, Row,
// Column, and Table, plus the total ordering and compact binary payload
// encoding spec §3/§4.2 require of them.
package types

import (
	"fmt"
	"math"
)

// DataType is one of the four scalar SQL types tuplebase supports.
type DataType int

const (
	Boolean DataType = iota
	Integer
	Float
	String
)

func (d DataType) String() string {
	switch d {
	case Boolean:
		return "BOOLEAN"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// ValueKind tags which alternative of the Value union is populated.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
)

// Value is the tagged sum Null | Boolean | Integer(i64) | Float(f64) | String,
// per spec §3. Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind `cbor:"k"`
	Bool bool      `cbor:"b,omitempty"`
	Int  int64     `cbor:"i,omitempty"`
	Flt  float64   `cbor:"f,omitempty"`
	Str  string    `cbor:"s,omitempty"`
}

// NullValue is the Null member of Value.
var NullValue = Value{Kind: KindNull}

// NewBoolean, NewInteger, NewFloat, and NewString build the corresponding
// Value variant.
func NewBoolean(v bool) Value  { return Value{Kind: KindBoolean, Bool: v} }
func NewInteger(v int64) Value { return Value{Kind: KindInteger, Int: v} }
func NewFloat(v float64) Value { return Value{Kind: KindFloat, Flt: v} }
func NewString(v string) Value { return Value{Kind: KindString, Str: v} }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// DataType returns the Value's runtime type, or false for Null (which has no
// declared type of its own).
func (v Value) DataType() (DataType, bool) {
	switch v.Kind {
	case KindBoolean:
		return Boolean, true
	case KindInteger:
		return Integer, true
	case KindFloat:
		return Float, true
	case KindString:
		return String, true
	default:
		return 0, false
	}
}

// String renders v the way tuplebase prints it in result tables: NULL, TRUE,
// FALSE, or the natural Go formatting of the scalar.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%v", v.Flt)
	case KindString:
		return v.Str
	default:
		return "?"
	}
}

// Equal reports whether Compare orders v and other as equal: Integer and
// Float compare numerically (1 equals 1.0), Null equals Null, and two NaNs
// are equal. Incomparable pairs are not equal.
func (v Value) Equal(other Value) bool {
	c, ok := v.Compare(other)
	return ok && c == 0
}

// Compare implements the total ordering from spec §3: Null sorts below every
// non-null value; Integer/Float compare numerically with Integer promoted to
// Float; String compares lexicographically; Boolean compares false < true;
// any other cross-type pairing is "incomparable" (ok=false).
func (v Value) Compare(other Value) (cmp int, ok bool) {
	if v.Kind == KindNull && other.Kind == KindNull {
		return 0, true
	}
	if v.Kind == KindNull {
		return -1, true
	}
	if other.Kind == KindNull {
		return 1, true
	}

	switch {
	case v.Kind == KindBoolean && other.Kind == KindBoolean:
		return compareBool(v.Bool, other.Bool), true
	case v.Kind == KindString && other.Kind == KindString:
		return compareString(v.Str, other.Str), true
	case isNumeric(v.Kind) && isNumeric(other.Kind):
		return compareFloat(v.numeric(), other.numeric()), true
	default:
		return 0, false
	}
}

// LessThan reports whether v sorts strictly before other; incomparable pairs
// report false, matching spec executor's "incomparable pairs preserve input
// order" rule for sorts that fall back on it.
func (v Value) LessThan(other Value) bool {
	c, ok := v.Compare(other)
	return ok && c < 0
}

func isNumeric(k ValueKind) bool { return k == KindInteger || k == KindFloat }

func (v Value) numeric() float64 {
	if v.Kind == KindInteger {
		return float64(v.Int)
	}
	return v.Flt
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return 1
	case math.IsNaN(b):
		return -1
	default:
		return 0
	}
}

// HashKey returns a value usable as a Go map key for group-by partitioning.
// Floats are returned as native float64, except NaN: a NaN float64 key can be
// stored in a Go map but never looked up again, so a NaN is returned as a
// freshly allocated pointer instead. That key matches nothing else, including
// another NaN, yet can be found again, so each NaN forms its own singleton
// group and identical NaNs are never merged.
func (v Value) HashKey() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.Bool
	case KindInteger:
		return v.Int
	case KindFloat:
		if math.IsNaN(v.Flt) {
			return new(float64)
		}
		return v.Flt
	case KindString:
		return v.Str
	default:
		return nil
	}
}
