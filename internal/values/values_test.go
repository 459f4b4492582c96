package values

import "testing"

func TestMapToValue(t *testing.T) {
	unit := Range{Lower: 0.0, Upper: 1.0}

	cases := []struct {
		name  string
		r     Range
		x     float64
		want  OutputValue
	}{
		{"zero", unit, 0.0, Low},
		{"one", unit, 1.0, High},
		{"half rounds to 32768", unit, 0.5, 32768},
		{"below range clamps low", unit, -1.0, Low},
		{"above range clamps high", unit, 2.0, High},
		{"non-unit range midpoint", Range{Lower: 10, Upper: 20}, 15, 32768},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := MapToValue(c.r, c.x); got != c.want {
				t.Errorf("MapToValue(%v, %v) = %v, want %v", c.r, c.x, got, c.want)
			}
		})
	}
}

func TestNewSetRequest(t *testing.T) {
	sr := NewSetRequest(Address(10), High)
	if sr.Target.Address != 10 || sr.Value != High {
		t.Errorf("NewSetRequest(10, High) = %+v", sr)
	}
}

func TestInputValueAsFloat(t *testing.T) {
	if NewBinary(true).AsFloat() != 1 {
		t.Error("binary true should report 1")
	}
	if NewBinary(false).AsFloat() != 0 {
		t.Error("binary false should report 0")
	}
	if NewTemperature(21.5).AsFloat() != 21.5 {
		t.Error("temperature should report its own value")
	}
}
