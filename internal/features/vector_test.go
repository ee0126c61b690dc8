package features

import (
	"math"
	"testing"
)

func TestFromMap_DefaultsAndUnknownKeys(t *testing.T) {
	v := FromMap(map[string]float64{
		PlanetRadius: 1.2,
		Distance:     340,
		"magnitude":  11.5,
	})

	for i, name := range Names {
		switch name {
		case PlanetRadius:
			if v[i] != 1.2 {
				t.Errorf("expected planet_radius 1.2, got %f", v[i])
			}
		case Distance:
			if v[i] != 340 {
				t.Errorf("expected distance 340, got %f", v[i])
			}
		default:
			if v[i] != 0 {
				t.Errorf("expected %s to default to 0, got %f", name, v[i])
			}
		}
	}
}

func TestFromMap_Alias(t *testing.T) {
	v := FromMap(map[string]float64{"stellar_sur_gravity": 4.4})
	if v[7] != 4.4 {
		t.Errorf("expected alias to fill stellar_surface_gravity, got %f", v[7])
	}
}

func TestIndex(t *testing.T) {
	for i, name := range Names {
		if got := Index(name); got != i {
			t.Errorf("Index(%s) = %d, want %d", name, got, i)
		}
	}
	if Index("unknown") != -1 {
		t.Error("expected -1 for unknown feature")
	}
}

func TestVector_MapRoundTrip(t *testing.T) {
	v := Vector{1, 2, 3, 4, 5, 6, 7, 8}
	if got := FromMap(v.Map()); got != v {
		t.Errorf("expected %v, got %v", v, got)
	}
	s := v.Slice()
	s[0] = 100
	if v[0] != 1 {
		t.Error("Slice must return a copy")
	}
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
	}

	s := NewStandardScaler()
	if s.Fitted() {
		t.Fatal("new scaler should not be fitted")
	}
	if err := s.Fit(X); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	scaled := s.TransformAll(X)
	for j := 0; j < 2; j++ {
		var sum, sq float64
		for i := range scaled {
			sum += scaled[i][j]
			sq += scaled[i][j] * scaled[i][j]
		}
		mean := sum / 3
		if math.Abs(mean) > 1e-12 {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		if math.Abs(sq/3-1) > 1e-12 {
			t.Errorf("column %d variance = %g, want 1", j, sq/3)
		}
	}

	// Constant column is centered, not divided by zero.
	for i := range scaled {
		if scaled[i][2] != 0 {
			t.Errorf("constant column should scale to 0, got %f", scaled[i][2])
		}
	}
}

func TestStandardScaler_Empty(t *testing.T) {
	if err := NewStandardScaler().Fit(nil); err == nil {
		t.Error("expected error for empty input")
	}
}
