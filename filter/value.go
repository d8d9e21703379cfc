package filter

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/geofilter/feature"
	"github.com/hugr-lab/geofilter/geometry"
)

// Value is the result of evaluating an expression.
type Value struct {
	Kind   feature.Kind
	IsNull bool
	Data   any
}

// NullValue is the value of an absent attribute or a null operand.
var NullValue = Value{Kind: feature.KindUndeclared, IsNull: true}

// IntegerValue wraps an integer.
func IntegerValue(v int64) Value {
	return Value{Kind: feature.KindInteger, Data: v}
}

// DoubleValue wraps a double.
func DoubleValue(v float64) Value {
	return Value{Kind: feature.KindDouble, Data: v}
}

// StringValue wraps a string.
func StringValue(v string) Value {
	return Value{Kind: feature.KindString, Data: v}
}

// GeometryValue wraps a geometry. A nil geometry is null.
func GeometryValue(g orb.Geometry) Value {
	if g == nil {
		return NullValue
	}
	return Value{Kind: feature.KindGeometry, Data: g}
}

func unsignedValue(u uint64) Value {
	if u > math.MaxInt64 {
		return DoubleValue(float64(u))
	}
	return IntegerValue(int64(u))
}

// NewValue normalises a Go value produced by a record accessor or passed to
// a factory. Signed and unsigned integers become int64, floats become
// float64. Unsigned integers above math.MaxInt64 widen to float64. Unsupported Go types fail with ErrTypeMismatch.
func NewValue(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullValue, nil
	case Value:
		return t, nil
	case int:
		return IntegerValue(int64(t)), nil
	case int8:
		return IntegerValue(int64(t)), nil
	case int16:
		return IntegerValue(int64(t)), nil
	case int32:
		return IntegerValue(int64(t)), nil
	case int64:
		return IntegerValue(t), nil
	case uint:
		return unsignedValue(uint64(t)), nil
	case uint8:
		return IntegerValue(int64(t)), nil
	case uint16:
		return IntegerValue(int64(t)), nil
	case uint32:
		return IntegerValue(int64(t)), nil
	case uint64:
		return unsignedValue(t), nil
	case float32:
		return DoubleValue(float64(t)), nil
	case float64:
		return DoubleValue(t), nil
	case string:
		return StringValue(t), nil
	case bool:
		return Value{Kind: feature.KindBoolean, Data: t}, nil
	case orb.Geometry:
		return GeometryValue(t), nil
	default:
		return Value{}, mismatch("unsupported value type %T", v)
	}
}

// IsNumeric returns true for integer and double values.
func (v Value) IsNumeric() bool {
	return !v.IsNull && v.Kind.IsNumeric()
}

// Float returns the value widened to float64.
func (v Value) Float() (float64, bool) {
	if v.IsNull {
		return 0, false
	}
	switch d := v.Data.(type) {
	case int64:
		return float64(d), true
	case float64:
		return d, true
	default:
		return 0, false
	}
}

// Int returns the value of an integer.
func (v Value) Int() (int64, bool) {
	if v.IsNull || v.Kind != feature.KindInteger {
		return 0, false
	}
	i, ok := v.Data.(int64)
	return i, ok
}

// Geometry returns the value of a geometry.
func (v Value) Geometry() (orb.Geometry, bool) {
	if v.IsNull || v.Kind != feature.KindGeometry {
		return nil, false
	}
	g, ok := v.Data.(orb.Geometry)
	return g, ok
}

// String returns the canonical text form used for lexical comparison and
// LIKE matching.
func (v Value) String() string {
	if v.IsNull {
		return "NULL"
	}
	switch d := v.Data.(type) {
	case string:
		return d
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	case orb.Geometry:
		return geometry.FormatWKT(d)
	default:
		return fmt.Sprint(d)
	}
}
