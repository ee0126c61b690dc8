package ml

import (
	"fmt"
	"math"

	"exoseeker/internal/common"
	"exoseeker/internal/features"
	"exoseeker/internal/label"

	"gonum.org/v1/gonum/floats"
)

// Classifier is a trainable multi-class model over dense feature rows.
type Classifier interface {
	// Fit trains the model. Calling Fit again replaces all learned state.
	Fit(X [][]float64, y []label.Label) error

	// PredictProba returns a probability for every class seen during Fit.
	PredictProba(x []float64) map[label.Label]float64

	// Classes returns the classes seen during Fit in canonical order.
	Classes() []label.Label
}

// Pipeline is a classifier with optional standard scaling in front of it.
type Pipeline struct {
	Name   string
	scaler *features.StandardScaler
	clf    Classifier
}

// NewPipeline wraps clf, scaling inputs first when scaled is true.
func NewPipeline(name string, clf Classifier, scaled bool) *Pipeline {
	p := &Pipeline{Name: name, clf: clf}
	if scaled {
		p.scaler = features.NewStandardScaler()
	}
	return p
}

// Scaled reports whether the pipeline standardizes its inputs.
func (p *Pipeline) Scaled() bool {
	return p.scaler != nil
}

// Fit trains the scaler (if any) and the classifier on X, y.
func (p *Pipeline) Fit(X [][]float64, y []label.Label) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("%s: need equal non-empty X and y, got %d and %d", p.Name, len(X), len(y))
	}
	if p.scaler != nil {
		if err := p.scaler.Fit(X); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		X = p.scaler.TransformAll(X)
	}
	if err := p.clf.Fit(X, y); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	return nil
}

// PredictProba returns class probabilities for one row.
func (p *Pipeline) PredictProba(x []float64) map[label.Label]float64 {
	if p.scaler != nil {
		x = p.scaler.Transform(x)
	}
	return p.clf.PredictProba(x)
}

// Predict returns the most probable class. Ties go to the class that comes
// first in canonical order, so the reported label always holds the maximum
// probability.
func (p *Pipeline) Predict(x []float64) label.Label {
	return argmax(p.PredictProba(x), p.clf.Classes())
}

// Classes returns the classes the pipeline can emit.
func (p *Pipeline) Classes() []label.Label {
	return p.clf.Classes()
}

func argmax(proba map[label.Label]float64, classes []label.Label) label.Label {
	best := label.Label("")
	bestP := -1.0
	for _, c := range classes {
		if v := proba[c]; v > bestP {
			best, bestP = c, v
		}
	}
	return best
}

// classesOf returns the distinct labels in y in canonical order.
func classesOf(y []label.Label) []label.Label {
	seen := make(map[label.Label]bool, len(label.All))
	for _, l := range y {
		seen[l] = true
	}
	var out []label.Label
	for _, l := range label.All {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

// encode maps labels to indices into classes.
func encode(y []label.Label, classes []label.Label) []int {
	idx := make(map[label.Label]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	out := make([]int, len(y))
	for i, l := range y {
		out[i] = idx[l]
	}
	return out
}

// softmaxLog turns log scores into probabilities. When the normalizer is not
// finite the largest score takes all the mass, first index on ties; ok is
// false when no score is usable.
func softmaxLog(scores []float64) (p []float64, ok bool) {
	p = make([]float64, len(scores))
	norm := floats.LogSumExp(scores)
	if !math.IsInf(norm, 0) && !math.IsNaN(norm) {
		for i, v := range scores {
			p[i] = math.Exp(v - norm)
		}
		return p, true
	}

	best := argmaxIndex(scores)
	if best < 0 || math.IsInf(scores[best], -1) {
		return nil, false
	}
	p[best] = 1
	return p, true
}

// argmaxIndex returns the index of the largest non-NaN value, first on ties,
// or -1 when there is none.
func argmaxIndex(v []float64) int {
	best := -1
	for i, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if best < 0 || x > v[best] {
			best = i
		}
	}
	return best
}

func oneHot(n, i int) []float64 {
	p := make([]float64, n)
	if i >= 0 && i < n {
		p[i] = 1
	}
	return p
}

func probaMap(classes []label.Label, p []float64) map[label.Label]float64 {
	out := make(map[label.Label]float64, len(classes))
	for i, c := range classes {
		out[c] = p[i]
	}
	return out
}

// NewFamilies returns fresh, unfitted pipelines for every classifier family in
// reporting order. Distance-based and linear families are scaled.
func NewFamilies(seed int64) []*Pipeline {
	return []*Pipeline{
		NewPipeline(common.FamilyGaussianNB, NewGaussianNB(), false),
		NewPipeline(common.FamilyKNN, NewKNN(common.KNNNeighbors), true),
		NewPipeline(common.FamilyDecisionTree, NewDecisionTree(common.TreeMaxDepth, seed), false),
		NewPipeline(common.FamilyRandomForest, NewRandomForest(common.ForestTrees, seed), false),
		NewPipeline(common.FamilyLogReg, NewLogisticRegression(common.LogRegMaxIter), true),
	}
}
