package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestNumberMarshalKeepsKind(t *testing.T) {
	cases := []struct {
		n    Number
		want string
	}{
		{Int(1500), "1500"},
		{Int(-3), "-3"},
		{Number{}, "0"},
		{Float(1500), "1500.0"},
		{Float(0.25), "0.25"},
		{Float(1e21), "1e+21"},
		{Float(math.Copysign(0, -1)), "-0.0"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(tc.n)
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.n, err)
		}
		if string(b) != tc.want {
			t.Fatalf("marshal: expected %s, got %s", tc.want, b)
		}
		var back Number
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if !back.Equal(tc.n) {
			t.Fatalf("round trip of %s changed value or kind: %#v vs %#v", b, back, tc.n)
		}
	}
}

func TestNumberUnmarshal(t *testing.T) {
	var n Number
	if err := json.Unmarshal([]byte("873"), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := n.Int64(); !ok || v != 873 {
		t.Fatalf("expected integer 873, got %#v", n)
	}

	if err := json.Unmarshal([]byte("873.5"), &n); err != nil || !n.IsFloat() || n.Float64() != 873.5 {
		t.Fatalf("expected float 873.5, got %#v err=%v", n, err)
	}

	// beyond int64: kept as a float rather than rejected
	if err := json.Unmarshal([]byte("18446744073709551616"), &n); err != nil || !n.IsFloat() {
		t.Fatalf("expected float fallback, got %#v err=%v", n, err)
	}

	for _, bad := range []string{`"12"`, `true`, `[1]`, `{}`} {
		if err := n.UnmarshalJSON([]byte(bad)); !errors.Is(err, ErrNotANumber) {
			t.Fatalf("%s: expected ErrNotANumber, got %v", bad, err)
		}
	}
}

func TestNumberMarshalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := json.Marshal(Float(f)); err == nil {
			t.Fatalf("expected error marshalling %v", f)
		}
	}
}

func TestPerformanceEventEqual(t *testing.T) {
	a := NewPerformanceEvent(PerformanceTrace, "c", "s", nil, []NumericAttribute{{Name: "n", Value: Int(1)}})
	b := NewPerformanceEvent(PerformanceTrace, "c", "s", []StringAttribute{}, []NumericAttribute{{Name: "n", Value: Float(1)}})
	if a.Equal(b) {
		t.Fatalf("int and float counters must not compare equal")
	}
	c := NewPerformanceEvent(PerformanceTrace, "c", "s", nil, []NumericAttribute{{Name: "n", Value: Int(1)}})
	if !a.Equal(c) {
		t.Fatalf("expected equal events")
	}
	if a.Attributes() == nil {
		t.Fatalf("attributes must never be nil")
	}
}
