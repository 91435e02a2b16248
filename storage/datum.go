package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Datum is a single typed value. Exactly one of the value fields is
// meaningful, selected by TP.
type Datum struct {
	TP FieldTP
	I  int64
	F  float64
	S  string
	B  bool
}

func NewIntDatum(v int64) Datum { return Datum{TP: Int, I: v} }

func NewFloatDatum(v float64) Datum { return Datum{TP: Float, F: v} }

func NewStringDatum(v string) Datum { return Datum{TP: String, S: v} }

func NewBoolDatum(v bool) Datum { return Datum{TP: Bool, B: v} }

func (d Datum) String() string {
	switch d.TP {
	case Int:
		return fmt.Sprintf("%d", d.I)
	case Float:
		return fmt.Sprintf("%g", d.F)
	case String:
		return d.S
	case Bool:
		return fmt.Sprintf("%t", d.B)
	default:
		return "unknown"
	}
}

// AsFloat widens a numeric datum to float64.
func (d Datum) AsFloat() float64 {
	if d.TP == Int {
		return float64(d.I)
	}
	return d.F
}

// Compare orders two datums. Int and Float compare against each other by
// widening; any other cross-type comparison is an error.
func (d Datum) Compare(other Datum) (int, error) {
	if d.TP.IsNumeric() && other.TP.IsNumeric() {
		if d.TP == Int && other.TP == Int {
			return compareInt(d.I, other.I), nil
		}
		return compareFloat(d.AsFloat(), other.AsFloat()), nil
	}
	if d.TP != other.TP {
		return 0, errors.Errorf("cannot compare %s with %s", d.TP, other.TP)
	}
	switch d.TP {
	case String:
		if d.S < other.S {
			return -1, nil
		}
		if d.S > other.S {
			return 1, nil
		}
		return 0, nil
	case Bool:
		return compareInt(boolToInt(d.B), boolToInt(other.B)), nil
	default:
		return 0, errors.Errorf("cannot compare %s values", d.TP)
	}
}

func compareInt(a, b int64) int {
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
	default:
		return 0
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Key encoding tags. Int and Float share one tag so that values Compare
// treats as equal encode alike across the two types.
const (
	keyTagNumeric byte = iota
	keyTagString
	keyTagBool
)

// EncodeKey appends a byte form of d used to hash group and join keys.
// Datums that Compare as equal always encode alike: numeric values are
// widened to float64 under a shared tag, so 1 and 1.0 hash alike. Hash
// buckets still compare the stored datums, the encoding only has to be
// deterministic and consistent with Compare.
func (d Datum) EncodeKey(buf []byte) []byte {
	switch d.TP {
	case Int:
		buf = append(buf, keyTagNumeric)
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(float64(d.I)))
	case Float:
		buf = append(buf, keyTagNumeric)
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(d.F))
	case String:
		buf = append(buf, keyTagString)
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(d.S)))
		buf = append(buf, d.S...)
	case Bool:
		buf = append(buf, keyTagBool)
		if d.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// Row is one tuple of datums, positionally aligned with a schema.
type Row []Datum

// Clone returns a copy that does not share backing storage with r.
func (r Row) Clone() Row {
	ret := make(Row, len(r))
	copy(ret, r)
	return ret
}
