package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when a counter value is not a JSON number.
var ErrNotANumber = errors.New("value is not a number")

// Number is a counter value: either an integer or a floating point number.
// The zero value is the integer 0.
type Number struct {
	isFloat bool
	i       int64
	f       float64
}

func Int(v int64) Number     { return Number{i: v} }
func Float(v float64) Number { return Number{isFloat: true, f: v} }

// IsFloat reports whether the number was built or decoded as a float.
func (n Number) IsFloat() bool { return n.isFloat }

// Int64 returns the integer value; ok is false for float numbers.
func (n Number) Int64() (v int64, ok bool) {
	if n.isFloat {
		return 0, false
	}
	return n.i, true
}

// Float64 returns the value as a float64 regardless of kind.
func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// Equal compares kind and value.
func (n Number) Equal(o Number) bool {
	if n.isFloat != o.isFloat {
		return false
	}
	if n.isFloat {
		return math.Float64bits(n.f) == math.Float64bits(o.f) || n.f == o.f
	}
	return n.i == o.i
}

func (n Number) String() string {
	if !n.isFloat {
		return strconv.FormatInt(n.i, 10)
	}
	s := strconv.FormatFloat(n.f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// MarshalJSON writes integers without a fraction and floats with one, so the
// kind survives a round trip.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.isFloat && (math.IsNaN(n.f) || math.IsInf(n.f, 0)) {
		return nil, fmt.Errorf("unsupported counter value %v", n.f)
	}
	return []byte(n.String()), nil
}

// UnmarshalJSON accepts any JSON number. Literals with a fraction or exponent
// decode as floats; integers outside the int64 range also fall back to float.
func (n *Number) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	lit, ok := raw.(json.Number)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotANumber, bytes.TrimSpace(data))
	}
	s := lit.String()
	if !strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			*n = Int(v)
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotANumber, s)
	}
	*n = Float(v)
	return nil
}
