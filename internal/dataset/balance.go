package dataset

import (
	"math/rand"

	"exoseeker/internal/label"
)

// Balance undersamples every class to the size of the smallest one, sampling
// without replacement per class and shuffling the result. The same seed always
// yields the same dataset.
func Balance(ds *Dataset, seed int64) (*Dataset, error) {
	groups := groupByLabel(ds)

	n := -1
	for _, l := range label.All {
		c := len(groups[l])
		if c == 0 {
			return nil, &InsufficientDataError{Mission: ds.Mission, Label: l}
		}
		if n < 0 || c < n {
			n = c
		}
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]Row, 0, n*len(label.All))
	for _, l := range label.All {
		group := groups[l]
		for _, idx := range rng.Perm(len(group))[:n] {
			out = append(out, group[idx])
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return &Dataset{Mission: ds.Mission, rows: out}, nil
}

func groupByLabel(ds *Dataset) map[label.Label][]Row {
	groups := make(map[label.Label][]Row, len(label.All))
	for _, r := range ds.rows {
		groups[r.Label] = append(groups[r.Label], r)
	}
	return groups
}
