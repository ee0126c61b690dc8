// Package features defines the fixed eight-field observation vector shared by
// training and prediction, plus the feature scaling used by distance-based and
// linear classifiers.
package features

import "fmt"

// Canonical feature names in vector order. The order must match at train and predict time.
const (
	Longitude             = "longitude"
	Latitude              = "latitude"
	StellarTemperature    = "stellar_temperature"
	StellarRadius         = "stellar_radius"
	PlanetRadius          = "planet_radius"
	EqTemperature         = "eq_temperature"
	Distance              = "distance"
	StellarSurfaceGravity = "stellar_surface_gravity"
)

// Count is the dimensionality of a Vector.
const Count = 8

// Names lists the canonical feature names in vector order.
var Names = [Count]string{
	Longitude,
	Latitude,
	StellarTemperature,
	StellarRadius,
	PlanetRadius,
	EqTemperature,
	Distance,
	StellarSurfaceGravity,
}

// aliases maps alternative column spellings found in source catalogs.
var aliases = map[string]string{
	"stellar_sur_gravity": StellarSurfaceGravity,
}

// Vector is one observation in canonical order.
type Vector [Count]float64

// Index returns the vector position of a feature name (aliases accepted), or -1.
func Index(name string) int {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// FromMap assembles a Vector from a possibly partial mapping. Absent fields
// default to 0.0 and unknown keys are ignored. Only use this at predict time;
// training rows with missing values are dropped by the loader instead.
func FromMap(m map[string]float64) Vector {
	var v Vector
	for k, val := range m {
		if i := Index(k); i >= 0 {
			v[i] = val
		}
	}
	return v
}

// Map returns the vector as a name -> value mapping.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for i, n := range Names {
		m[n] = v[i]
	}
	return m
}

// Slice returns a copy of the vector as a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

func (v Vector) String() string {
	return fmt.Sprintf("%v", [Count]float64(v))
}
