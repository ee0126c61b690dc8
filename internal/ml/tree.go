package ml

import (
	"fmt"
	"math/rand"
	"sort"

	"exoseeker/internal/label"
)

// treeNode is either a split (left != nil) or a leaf carrying class probabilities.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	proba     []float64
}

// cart grows a Gini-impurity classification tree. It is shared by the decision
// tree and random forest families.
type cart struct {
	maxDepth    int // 0 means unbounded
	maxFeatures int // 0 means all features
	nClasses    int
	rng         *rand.Rand
	root        *treeNode
}

func (t *cart) fit(X [][]float64, y []int, idx []int) {
	t.root = t.grow(X, y, idx, 0)
}

func (t *cart) grow(X [][]float64, y []int, idx []int, depth int) *treeNode {
	counts := make([]float64, t.nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}

	if len(idx) < 2 || (t.maxDepth > 0 && depth >= t.maxDepth) || isPure(counts) {
		return t.leaf(counts, len(idx))
	}

	feature, threshold, ok := t.bestSplit(X, y, idx, counts)
	if !ok {
		return t.leaf(counts, len(idx))
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, y, left, depth+1),
		right:     t.grow(X, y, right, depth+1),
	}
}

func (t *cart) leaf(counts []float64, n int) *treeNode {
	p := make([]float64, len(counts))
	for c, v := range counts {
		p[c] = v / float64(n)
	}
	return &treeNode{proba: p}
}

// bestSplit scans candidate features in random order. With maxFeatures set it
// stops after that many features once a valid split has been found.
func (t *cart) bestSplit(X [][]float64, y []int, idx []int, parent []float64) (int, float64, bool) {
	nFeat := len(X[idx[0]])
	order := t.rng.Perm(nFeat)
	limit := nFeat
	if t.maxFeatures > 0 && t.maxFeatures < nFeat {
		limit = t.maxFeatures
	}

	n := float64(len(idx))
	bestScore := gini(parent, n)
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(idx))
	left := make([]float64, t.nClasses)
	right := make([]float64, t.nClasses)

	for visited, f := range order {
		if visited >= limit && bestFeature >= 0 {
			break
		}

		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		for c := range left {
			left[c] = 0
		}
		copy(right, parent)

		for k := 0; k < len(sorted)-1; k++ {
			ci := y[sorted[k]]
			left[ci]++
			right[ci]--

			cur, next := X[sorted[k]][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			score := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *cart) proba(x []float64) []float64 {
	node := t.root
	for node.left != nil {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.proba
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// DecisionTree is a depth-bounded CART classifier.
type DecisionTree struct {
	maxDepth int
	seed     int64
	classes  []label.Label
	tree     *cart
}

// NewDecisionTree returns an unfitted tree limited to maxDepth levels.
func NewDecisionTree(maxDepth int, seed int64) *DecisionTree {
	return &DecisionTree{maxDepth: maxDepth, seed: seed}
}

func (d *DecisionTree) Fit(X [][]float64, y []label.Label) error {
	if len(X) == 0 {
		return fmt.Errorf("decision_tree: empty training set")
	}
	d.classes = classesOf(y)
	d.tree = &cart{
		maxDepth: d.maxDepth,
		nClasses: len(d.classes),
		rng:      rand.New(rand.NewSource(d.seed)),
	}
	d.tree.fit(X, encode(y, d.classes), seq(len(X)))
	return nil
}

func (d *DecisionTree) PredictProba(x []float64) map[label.Label]float64 {
	return probaMap(d.classes, d.tree.proba(x))
}

func (d *DecisionTree) Classes() []label.Label {
	return d.classes
}

// Depth returns the depth of the fitted tree.
func (d *DecisionTree) Depth() int {
	return depthOf(d.tree.root)
}

func depthOf(n *treeNode) int {
	if n == nil || n.left == nil {
		return 0
	}
	return 1 + max(depthOf(n.left), depthOf(n.right))
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
