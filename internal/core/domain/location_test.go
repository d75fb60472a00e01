package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestNewPoint_KeepsLonLatOrder(t *testing.T) {
	p, err := NewPoint([]float64{2.35, 48.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lon != 2.35 || p.Lat != 48.85 {
		t.Fatalf("unexpected point: %+v", p)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[2.35,48.85]" {
		t.Fatalf("expected [2.35,48.85], got %s", b)
	}
}

func TestNewPoint_Rejects(t *testing.T) {
	cases := map[string][]float64{
		"empty":          nil,
		"one member":     {1},
		"three members":  {1, 2, 3},
		"nan":            {math.NaN(), 1},
		"inf":            {1, math.Inf(1)},
		"lon over range": {181, 0},
		"lat over range": {0, -91},
	}
	for name, coords := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPoint(coords); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPoint_UnmarshalJSON(t *testing.T) {
	var p Point
	if err := json.Unmarshal([]byte(`[-99.13,19.43]`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lon != -99.13 || p.Lat != 19.43 {
		t.Fatalf("unexpected point: %+v", p)
	}

	if err := json.Unmarshal([]byte(`["a","b"]`), &p); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for non-numeric pair, got %v", err)
	}
}

func TestParseActivityType(t *testing.T) {
	if ParseActivityType("driving") != ActivityDriving {
		t.Fatal("driving not recognised")
	}
	if ParseActivityType("flying") != ActivityUnknown {
		t.Fatal("unknown activity should map to unknown")
	}
	if ParseActivityType("") != ActivityUnknown {
		t.Fatal("empty activity should map to unknown")
	}
}
