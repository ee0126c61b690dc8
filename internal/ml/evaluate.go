package ml

import (
	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/label"
)

// ClassReport holds per-class or averaged scores.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report is a classification report over the labels present in a test set or
// its predictions.
type Report struct {
	PerClass    map[string]ClassReport `json:"per_class"`
	Accuracy    float64                `json:"accuracy"`
	MacroAvg    ClassReport            `json:"macro_avg"`
	WeightedAvg ClassReport            `json:"weighted_avg"`
}

// Evaluate scores p against test. It does not mutate either argument.
func Evaluate(p *Pipeline, test *dataset.Dataset) (map[string]float64, Report) {
	X, y := test.Matrix()
	pred := make([]label.Label, len(X))
	for i, x := range X {
		pred[i] = p.Predict(x)
	}
	return Score(y, pred)
}

// Score computes metrics and a report from true and predicted labels. Labels
// considered are the union of both; a zero denominator yields 0.
func Score(truth, pred []label.Label) (map[string]float64, Report) {
	present := make(map[label.Label]bool)
	for _, l := range truth {
		present[l] = true
	}
	for _, l := range pred {
		present[l] = true
	}

	type tally struct{ tp, fp, fn int }
	counts := make(map[label.Label]*tally)
	for l := range present {
		counts[l] = &tally{}
	}
	correct := 0
	for i, t := range truth {
		p := pred[i]
		if t == p {
			correct++
			counts[t].tp++
			continue
		}
		counts[p].fp++
		counts[t].fn++
	}

	report := Report{PerClass: make(map[string]ClassReport, len(present))}
	n := len(truth)
	if n > 0 {
		report.Accuracy = float64(correct) / float64(n)
	}

	var labels []label.Label
	for _, l := range label.All {
		if present[l] {
			labels = append(labels, l)
		}
	}

	for _, l := range labels {
		c := counts[l]
		cr := ClassReport{
			Precision: ratio(c.tp, c.tp+c.fp),
			Recall:    ratio(c.tp, c.tp+c.fn),
			Support:   c.tp + c.fn,
		}
		cr.F1 = harmonic(cr.Precision, cr.Recall)
		report.PerClass[string(l)] = cr

		report.MacroAvg.Precision += cr.Precision
		report.MacroAvg.Recall += cr.Recall
		report.MacroAvg.F1 += cr.F1
		report.MacroAvg.Support += cr.Support

		w := float64(cr.Support)
		report.WeightedAvg.Precision += w * cr.Precision
		report.WeightedAvg.Recall += w * cr.Recall
		report.WeightedAvg.F1 += w * cr.F1
		report.WeightedAvg.Support += cr.Support
	}

	if k := float64(len(labels)); k > 0 {
		report.MacroAvg.Precision /= k
		report.MacroAvg.Recall /= k
		report.MacroAvg.F1 /= k
	}
	if n > 0 {
		report.WeightedAvg.Precision /= float64(n)
		report.WeightedAvg.Recall /= float64(n)
		report.WeightedAvg.F1 /= float64(n)
	} else {
		report.WeightedAvg = ClassReport{}
	}

	metrics := map[string]float64{
		common.MetricAccuracy:          report.Accuracy,
		common.MetricF1Weighted:        report.WeightedAvg.F1,
		common.MetricF1Macro:           report.MacroAvg.F1,
		common.MetricPrecisionWeighted: report.WeightedAvg.Precision,
		common.MetricRecallWeighted:    report.WeightedAvg.Recall,
	}
	return metrics, report
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func harmonic(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
