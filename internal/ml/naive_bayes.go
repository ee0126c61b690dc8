package ml

import (
	"fmt"
	"math"

	"exoseeker/internal/label"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// varSmoothing is the share of the largest feature variance added to every
// per-class variance for numerical stability.
const varSmoothing = 1e-9

// GaussianNB models each feature as an independent normal per class.
type GaussianNB struct {
	classes  []label.Label
	logPrior []float64
	dists    [][]distuv.Normal // [class][feature]
}

// NewGaussianNB returns an unfitted Gaussian naive Bayes classifier.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{}
}

func (nb *GaussianNB) Fit(X [][]float64, y []label.Label) error {
	if len(X) == 0 {
		return fmt.Errorf("gaussian_nb: empty training set")
	}
	nb.classes = classesOf(y)
	yi := encode(y, nb.classes)
	nFeat := len(X[0])

	col := make([]float64, len(X))
	maxVar := 0.0
	for j := 0; j < nFeat; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		maxVar = math.Max(maxVar, std*std)
	}
	epsilon := varSmoothing * maxVar
	if epsilon == 0 {
		epsilon = varSmoothing
	}

	nb.logPrior = make([]float64, len(nb.classes))
	nb.dists = make([][]distuv.Normal, len(nb.classes))
	for c := range nb.classes {
		var members [][]float64
		for i, ci := range yi {
			if ci == c {
				members = append(members, X[i])
			}
		}
		nb.logPrior[c] = math.Log(float64(len(members)) / float64(len(X)))

		nb.dists[c] = make([]distuv.Normal, nFeat)
		vals := make([]float64, len(members))
		for j := 0; j < nFeat; j++ {
			for i, row := range members {
				vals[i] = row[j]
			}
			mean, std := stat.PopMeanStdDev(vals, nil)
			nb.dists[c][j] = distuv.Normal{Mu: mean, Sigma: math.Sqrt(std*std + epsilon)}
		}
	}
	return nil
}

func (nb *GaussianNB) PredictProba(x []float64) map[label.Label]float64 {
	jll := make([]float64, len(nb.classes))
	for c := range nb.classes {
		jll[c] = nb.logPrior[c]
		for j, d := range nb.dists[c] {
			jll[c] += d.LogProb(x[j])
		}
	}

	if p, ok := softmaxLog(jll); ok {
		return probaMap(nb.classes, p)
	}
	return probaMap(nb.classes, oneHot(len(nb.classes), nb.nearest(x)))
}

// nearest picks the class with the smallest standardized squared distance to
// x. Distances are rescaled by the largest standardized deviation so extreme
// inputs do not overflow.
func (nb *GaussianNB) nearest(x []float64) int {
	z := make([][]float64, len(nb.classes))
	scale := 0.0
	for c := range nb.classes {
		z[c] = make([]float64, len(nb.dists[c]))
		for j, d := range nb.dists[c] {
			z[c][j] = math.Abs(x[j]-d.Mu) / d.Sigma
			scale = math.Max(scale, z[c][j])
		}
	}
	if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return argmaxIndex(nb.logPrior)
	}

	best, bestDist := 0, math.Inf(1)
	for c := range z {
		dist := 0.0
		for _, v := range z[c] {
			dist += (v / scale) * (v / scale)
		}
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func (nb *GaussianNB) Classes() []label.Label {
	return nb.classes
}
