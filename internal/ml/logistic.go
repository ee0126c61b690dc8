package ml

import (
	"fmt"
	"math"

	"exoseeker/internal/label"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a multinomial softmax classifier with L2 penalty
// (C=1, intercept unpenalized) and balanced class weights.
type LogisticRegression struct {
	maxIter int
	classes []label.Label
	nFeat   int
	coef    []float64 // [class*(nFeat+1) + feature], intercept last
}

// NewLogisticRegression returns an unfitted classifier capped at maxIter
// optimizer iterations.
func NewLogisticRegression(maxIter int) *LogisticRegression {
	return &LogisticRegression{maxIter: maxIter}
}

func (m *LogisticRegression) Fit(X [][]float64, y []label.Label) error {
	if len(X) == 0 {
		return fmt.Errorf("log_reg: empty training set")
	}
	m.classes = classesOf(y)
	m.nFeat = len(X[0])
	k := len(m.classes)
	stride := m.nFeat + 1
	m.coef = make([]float64, k*stride)
	if k == 1 {
		return nil
	}

	yi := encode(y, m.classes)
	counts := make([]float64, k)
	for _, c := range yi {
		counts[c]++
	}
	weights := make([]float64, k)
	for c, n := range counts {
		weights[c] = float64(len(X)) / (float64(k) * n)
	}

	scores := make([]float64, k)
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			loss := 0.0
			for i, x := range X {
				m.scores(w, x, scores)
				loss += weights[yi[i]] * (floats.LogSumExp(scores) - scores[yi[i]])
			}
			return loss + 0.5*penalty(w, m.nFeat)
		},
		Grad: func(grad, w []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i, x := range X {
				m.scores(w, x, scores)
				norm := floats.LogSumExp(scores)
				sw := weights[yi[i]]
				for c := 0; c < k; c++ {
					d := math.Exp(scores[c] - norm)
					if c == yi[i] {
						d--
					}
					d *= sw
					base := c * stride
					for j, v := range x {
						grad[base+j] += d * v
					}
					grad[base+m.nFeat] += d
				}
			}
			for c := 0; c < k; c++ {
				base := c * stride
				for j := 0; j < m.nFeat; j++ {
					grad[base+j] += w[base+j]
				}
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.maxIter,
		GradientThreshold: 1e-4,
	}
	result, err := optimize.Minimize(problem, m.coef, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("log_reg: optimize: %w", err)
	}
	// Hitting the iteration cap still leaves a usable solution.
	copy(m.coef, result.X)
	return nil
}

func (m *LogisticRegression) scores(w, x, out []float64) {
	stride := m.nFeat + 1
	for c := range out {
		base := c * stride
		s := w[base+m.nFeat]
		for j, v := range x {
			s += w[base+j] * v
		}
		out[c] = s
	}
}

func penalty(w []float64, nFeat int) float64 {
	stride := nFeat + 1
	sum := 0.0
	for i, v := range w {
		if i%stride != nFeat {
			sum += v * v
		}
	}
	return sum
}

func (m *LogisticRegression) PredictProba(x []float64) map[label.Label]float64 {
	k := len(m.classes)
	if k == 1 {
		return probaMap(m.classes, []float64{1})
	}
	s := make([]float64, k)
	m.scores(m.coef, x, s)
	if p, ok := softmaxLog(s); ok {
		return probaMap(m.classes, p)
	}
	return probaMap(m.classes, oneHot(k, 0))
}

func (m *LogisticRegression) Classes() []label.Label {
	return m.classes
}
