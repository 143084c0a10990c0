package eji

import (
	"math"
	"strconv"
	"strings"
)

// Value is a percentile rank in [0, 1] or missing.
type Value struct {
	Float64 float64
	Valid   bool
}

// Missing is the absent value.
var Missing = Value{}

// Of wraps v, treating non-finite or out-of-range numbers as missing.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return Missing
	}
	return Value{Float64: v, Valid: true}
}

// Score converts a raw table cell into a Value. Numbers, numeric strings and
// nil are understood; everything else is missing.
func Score(cell any) Value {
	switch v := cell.(type) {
	case nil:
		return Missing
	case Value:
		return v
	case float64:
		return Of(v)
	case float32:
		return Of(float64(v))
	case int:
		return Of(float64(v))
	case int32:
		return Of(float64(v))
	case int64:
		return Of(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Missing
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Missing
		}
		return Of(f)
	case []byte:
		return Score(string(v))
	default:
		return Missing
	}
}

// Height is the bar height for v: its value, or zero when missing.
func (v Value) Height() float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}

// Text formats v to three decimals, or "No Data".
func (v Value) Text() string {
	if !v.Valid {
		return NoDataText
	}
	return strconv.FormatFloat(v.Float64, 'f', 3, 64)
}

// MarshalJSON encodes a missing value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Float64, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = Missing
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
