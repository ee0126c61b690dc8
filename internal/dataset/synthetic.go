package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"exoseeker/internal/common"
	"exoseeker/internal/features"
	"exoseeker/internal/label"
)

// classProfile holds per-feature mean and spread for one synthetic class.
type classProfile struct {
	mean   features.Vector
	spread features.Vector
	raw    []string
}

var profiles = map[label.Label]classProfile{
	label.Planet: {
		mean:   features.Vector{180, 10, 5600, 1.0, 1.8, 320, 400, 4.4},
		spread: features.Vector{90, 25, 400, 0.2, 0.6, 80, 150, 0.15},
		raw:    []string{"CONFIRMED", "planet"},
	},
	label.NonPlanet: {
		mean:   features.Vector{180, 10, 6400, 1.8, 14.0, 1500, 900, 4.0},
		spread: features.Vector{90, 25, 600, 0.5, 4.0, 300, 300, 0.25},
		raw:    []string{"FALSE POSITIVE", "REFUTED", "not planet"},
	},
	label.Candidate: {
		mean:   features.Vector{180, 10, 5900, 1.3, 6.0, 800, 650, 4.25},
		spread: features.Vector{90, 25, 500, 0.35, 2.5, 250, 250, 0.2},
		raw:    []string{"CANDIDATE", "cand", "PC"},
	},
}

// Synthetic generates a reproducible labelled dataset with the given number of
// rows per class. The classes overlap but are mostly separable on planet radius
// and equilibrium temperature.
func Synthetic(mission string, perClass map[label.Label]int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	var rows []Row
	for _, l := range label.All {
		p := profiles[l]
		for i := 0; i < perClass[l]; i++ {
			var v features.Vector
			for j := range v {
				v[j] = p.mean[j] + rng.NormFloat64()*p.spread[j]
			}
			rows = append(rows, Row{Features: v, Label: l})
		}
	}
	rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return &Dataset{Mission: mission, rows: rows}
}

// WriteCSV writes ds in the mission table format read by ReadCSV. Labels are
// written using source-catalog vocabulary so the file exercises normalization.
func WriteCSV(w io.Writer, ds *Dataset) error {
	writer := csv.NewWriter(w)

	header := append([]string{common.LabelColumn}, features.Names[:]...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range ds.rows {
		raw := profiles[r.Label].raw
		record := make([]string, 0, features.Count+1)
		record = append(record, raw[i%len(raw)])
		for _, v := range r.Features {
			record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
