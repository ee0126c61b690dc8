package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"exoseeker/internal/label"
)

// Split partitions ds into train and test sets, stratified by label so both
// sides keep the class proportions. Each class contributes round(n*testFraction)
// rows to the test side, clamped so that classes with at least two rows appear
// on both sides; a singleton class goes to train.
func Split(ds *Dataset, testFraction float64, seed int64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %f", testFraction)
	}
	if ds.Len() < 2 {
		return nil, nil, fmt.Errorf("dataset %s has %d rows; need at least 2 to split", ds.Mission, ds.Len())
	}

	rng := rand.New(rand.NewSource(seed))
	groups := groupByLabel(ds)

	var trainRows, testRows []Row
	for _, l := range label.All {
		group := groups[l]
		n := len(group)
		if n == 0 {
			continue
		}
		nTest := int(math.Round(float64(n) * testFraction))
		if n >= 2 {
			nTest = max(1, min(nTest, n-1))
		} else {
			nTest = 0
		}

		perm := rng.Perm(n)
		for k, idx := range perm {
			if k < nTest {
				testRows = append(testRows, group[idx])
			} else {
				trainRows = append(trainRows, group[idx])
			}
		}
	}

	rng.Shuffle(len(trainRows), func(i, j int) { trainRows[i], trainRows[j] = trainRows[j], trainRows[i] })
	rng.Shuffle(len(testRows), func(i, j int) { testRows[i], testRows[j] = testRows[j], testRows[i] })

	return &Dataset{Mission: ds.Mission, rows: trainRows}, &Dataset{Mission: ds.Mission, rows: testRows}, nil
}
