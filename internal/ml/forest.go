package ml

import (
	"fmt"
	"math"
	"math/rand"

	"exoseeker/internal/label"
)

// RandomForest averages the class probabilities of bootstrap-trained CART trees,
// each considering sqrt(n_features) candidate features per split.
type RandomForest struct {
	nTrees  int
	seed    int64
	classes []label.Label
	trees   []*cart
}

// NewRandomForest returns an unfitted forest of nTrees trees.
func NewRandomForest(nTrees int, seed int64) *RandomForest {
	return &RandomForest{nTrees: nTrees, seed: seed}
}

func (f *RandomForest) Fit(X [][]float64, y []label.Label) error {
	if f.nTrees <= 0 {
		return fmt.Errorf("random_forest: need at least one tree, got %d", f.nTrees)
	}
	if len(X) == 0 {
		return fmt.Errorf("random_forest: empty training set")
	}
	f.classes = classesOf(y)
	yi := encode(y, f.classes)
	maxFeatures := max(1, int(math.Sqrt(float64(len(X[0])))))

	rng := rand.New(rand.NewSource(f.seed))
	f.trees = make([]*cart, f.nTrees)
	for t := range f.trees {
		treeRng := rand.New(rand.NewSource(rng.Int63()))
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = treeRng.Intn(len(X))
		}
		tree := &cart{
			maxFeatures: maxFeatures,
			nClasses:    len(f.classes),
			rng:         treeRng,
		}
		tree.fit(X, yi, sample)
		f.trees[t] = tree
	}
	return nil
}

func (f *RandomForest) PredictProba(x []float64) map[label.Label]float64 {
	p := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for c, v := range t.proba(x) {
			p[c] += v
		}
	}
	for c := range p {
		p[c] /= float64(len(f.trees))
	}
	return probaMap(f.classes, p)
}

func (f *RandomForest) Classes() []label.Label {
	return f.classes
}
