package ml

import (
	"maps"
	"slices"

	"exoseeker/internal/common"
)

// Filter selects result records. Nil fields match everything.
type Filter struct {
	Mission  *string
	Model    *string
	Balanced *bool
}

func (f Filter) match(r ModelResult) bool {
	if f.Mission != nil && *f.Mission != r.Mission {
		return false
	}
	if f.Model != nil && *f.Model != r.Model {
		return false
	}
	if f.Balanced != nil && *f.Balanced != r.Balanced {
		return false
	}
	return true
}

// MetricNames lists the metrics every result carries.
func MetricNames() []string {
	return slices.Clone(common.MetricNames)
}

func checkMetric(metric string) error {
	if !slices.Contains(common.MetricNames, metric) {
		return &UnknownMetricError{Metric: metric}
	}
	return nil
}

// Results returns the records matching f ordered by mission, regime
// (unbalanced first) and family.
func (r *Registry) Results(f Filter) ([]ModelResult, error) {
	results, _, ok := r.snapshot()
	if !ok {
		return nil, ErrUnfitted
	}
	out := []ModelResult{}
	for _, res := range results {
		if f.match(res) {
			out = append(out, res.clone())
		}
	}
	return out, nil
}

// clone copies the maps of r so callers cannot reach the registry's records.
func (r ModelResult) clone() ModelResult {
	r.Metrics = maps.Clone(r.Metrics)
	r.Report.PerClass = maps.Clone(r.Report.PerClass)
	return r
}

// BestByMetric returns, per mission with results in the given regime, the
// record with the highest metric. On ties the earliest family wins.
func (r *Registry) BestByMetric(metric string, balanced bool) ([]ModelResult, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}
	results, err := r.Results(Filter{Balanced: &balanced})
	if err != nil {
		return nil, err
	}

	out := []ModelResult{}
	for _, mission := range common.Missions {
		var best *ModelResult
		for i := range results {
			res := &results[i]
			if res.Mission != mission {
				continue
			}
			if best == nil || res.Metrics[metric] > best.Metrics[metric] {
				best = res
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	return out, nil
}

// Compare returns metric values keyed by mission then family for one regime.
func (r *Registry) Compare(metric string, balanced bool) (map[string]map[string]float64, error) {
	if err := checkMetric(metric); err != nil {
		return nil, err
	}
	results, err := r.Results(Filter{Balanced: &balanced})
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64)
	for _, res := range results {
		if out[res.Mission] == nil {
			out[res.Mission] = make(map[string]float64)
		}
		out[res.Mission][res.Model] = res.Metrics[metric]
	}
	return out, nil
}
