package metrics

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a metric that may be undefined, e.g. a ratio whose denominator is
// zero. Undefined values are absent: they are never read as zero and never
// enter an average.
type Value struct {
	v  float64
	ok bool
}

// Undefined is the absent value.
var Undefined = Value{}

// Of wraps a defined value. NaN and infinities become Undefined.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Value{v: v, ok: true}
}

// Ratio divides num by den, returning Undefined when den is zero.
func Ratio(num, den float64) Value {
	if den == 0 {
		return Undefined
	}
	return Of(num / den)
}

func (v Value) Get() (float64, bool) { return v.v, v.ok }
func (v Value) Defined() bool        { return v.ok }

// Or returns the value, or def when undefined.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

// String renders defined values in shortest form and undefined as "".
func (v Value) String() string {
	if !v.ok {
		return ""
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// Format renders with a fixed number of decimals; undefined stays "".
func (v Value) Format(prec int) string {
	if !v.ok {
		return ""
	}
	return strconv.FormatFloat(v.v, 'f', prec, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
