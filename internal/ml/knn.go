package ml

import (
	"fmt"
	"sort"

	"exoseeker/internal/label"

	"gonum.org/v1/gonum/floats"
)

// KNN is a uniform-weight k-nearest-neighbor classifier with Euclidean distance.
// Inputs are expected to be scaled by the surrounding pipeline.
type KNN struct {
	k       int
	classes []label.Label
	X       [][]float64
	y       []int
}

// NewKNN returns an unfitted classifier using k neighbors.
func NewKNN(k int) *KNN {
	return &KNN{k: k}
}

func (m *KNN) Fit(X [][]float64, y []label.Label) error {
	if m.k <= 0 {
		return fmt.Errorf("knn: k must be positive, got %d", m.k)
	}
	if len(X) == 0 {
		return fmt.Errorf("knn: empty training set")
	}
	m.classes = classesOf(y)
	m.y = encode(y, m.classes)
	m.X = make([][]float64, len(X))
	for i, row := range X {
		m.X[i] = append([]float64(nil), row...)
	}
	return nil
}

type neighbor struct {
	idx  int
	dist float64
}

func (m *KNN) PredictProba(x []float64) map[label.Label]float64 {
	ns := make([]neighbor, len(m.X))
	for i, row := range m.X {
		ns[i] = neighbor{idx: i, dist: floats.Distance(row, x, 2)}
	}
	// Stable so equidistant neighbors keep training order.
	sort.SliceStable(ns, func(a, b int) bool { return ns[a].dist < ns[b].dist })

	k := min(m.k, len(ns))
	p := make([]float64, len(m.classes))
	for _, n := range ns[:k] {
		p[m.y[n.idx]] += 1.0 / float64(k)
	}
	return probaMap(m.classes, p)
}

func (m *KNN) Classes() []label.Label {
	return m.classes
}
