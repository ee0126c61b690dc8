// Package dataset loads per-mission observation tables, normalizes their labels
// and derives the balanced and train/test variants used for model fitting.
package dataset

import (
	"exoseeker/internal/features"
	"exoseeker/internal/label"

	"github.com/montanaflynn/stats"
)

// Row is one labelled observation.
type Row struct {
	Features features.Vector
	Label    label.Label
}

// Dataset is an immutable ordered sequence of rows for one mission.
type Dataset struct {
	Mission string
	rows    []Row
}

// New builds a Dataset from a copy of rows.
func New(mission string, rows []Row) *Dataset {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Dataset{Mission: mission, rows: cp}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the i-th row.
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Rows returns a copy of all rows.
func (d *Dataset) Rows() []Row {
	cp := make([]Row, len(d.rows))
	copy(cp, d.rows)
	return cp
}

// Counts returns the number of rows per canonical label, zero entries included.
func (d *Dataset) Counts() map[label.Label]int {
	counts := make(map[label.Label]int, len(label.All))
	for _, l := range label.All {
		counts[l] = 0
	}
	for _, r := range d.rows {
		counts[r.Label]++
	}
	return counts
}

// Matrix returns the feature matrix and label column.
func (d *Dataset) Matrix() ([][]float64, []label.Label) {
	X := make([][]float64, len(d.rows))
	y := make([]label.Label, len(d.rows))
	for i, r := range d.rows {
		X[i] = r.Features.Slice()
		y[i] = r.Label
	}
	return X, y
}

// FeatureStats summarizes one feature column.
type FeatureStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summary is the introspection view of a loaded dataset.
type Summary struct {
	Rows     int                     `json:"rows"`
	ByClass  map[label.Label]int     `json:"by_class"`
	Features map[string]FeatureStats `json:"features,omitempty"`
}

// Summary returns row counts by label and per-feature descriptive statistics.
func (d *Dataset) Summary() Summary {
	s := Summary{
		Rows:    d.Len(),
		ByClass: d.Counts(),
	}
	if d.Len() == 0 {
		return s
	}

	s.Features = make(map[string]FeatureStats, features.Count)
	col := make(stats.Float64Data, d.Len())
	for j, name := range features.Names {
		for i, r := range d.rows {
			col[i] = r.Features[j]
		}
		mean, _ := stats.Mean(col)
		std, _ := stats.StandardDeviation(col)
		min, _ := stats.Min(col)
		max, _ := stats.Max(col)
		median, _ := stats.Median(col)
		s.Features[name] = FeatureStats{Mean: mean, StdDev: std, Min: min, Max: max, Median: median}
	}
	return s
}
