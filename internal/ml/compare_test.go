package ml

import (
	"testing"

	"exoseeker/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(mission, model string, balanced bool, f1 float64) ModelResult {
	return ModelResult{
		Mission:  mission,
		Model:    model,
		Balanced: balanced,
		Metrics: map[string]float64{
			common.MetricAccuracy:   f1,
			common.MetricF1Weighted: f1,
		},
	}
}

// stubRegistry returns a registry holding hand-made results and no models.
func stubRegistry(results ...ModelResult) *Registry {
	reg := NewRegistry(&staticSource{}, testConfig(), nil)
	reg.results = results
	reg.models = map[Key]*Pipeline{}
	return reg
}

func TestBestByMetric_TieKeepsEarliestFamily(t *testing.T) {
	reg := stubRegistry(
		result(common.MissionKepler, common.FamilyGaussianNB, true, 0.7),
		result(common.MissionKepler, common.FamilyKNN, true, 0.9),
		result(common.MissionKepler, common.FamilyDecisionTree, true, 0.9),
		result(common.MissionKepler, common.FamilyRandomForest, false, 0.99),
		result(common.MissionTESS, common.FamilyLogReg, true, 0.5),
	)

	best, err := reg.BestByMetric(common.MetricF1Weighted, true)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, common.FamilyKNN, best[0].Model)
	assert.Equal(t, common.MissionKepler, best[0].Mission)
	assert.Equal(t, common.MissionTESS, best[1].Mission)

	unbalanced, err := reg.BestByMetric(common.MetricF1Weighted, false)
	require.NoError(t, err)
	require.Len(t, unbalanced, 1)
	assert.Equal(t, common.FamilyRandomForest, unbalanced[0].Model)
}

func TestBestByMetric_Fitted(t *testing.T) {
	reg := fittedRegistry(t)
	for _, metric := range MetricNames() {
		for _, balanced := range []bool{false, true} {
			best, err := reg.BestByMetric(metric, balanced)
			require.NoError(t, err)
			require.Len(t, best, len(common.Missions))

			all, err := reg.Results(Filter{Balanced: &balanced})
			require.NoError(t, err)
			for _, b := range best {
				for _, r := range all {
					if r.Mission == b.Mission {
						assert.GreaterOrEqual(t, b.Metrics[metric], r.Metrics[metric])
					}
				}
			}
		}
	}
}

func TestBestByMetric_UnknownMetric(t *testing.T) {
	reg := stubRegistry()
	_, err := reg.BestByMetric("roc_auc", true)
	var target *UnknownMetricError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "roc_auc", target.Metric)

	_, err = reg.Compare("roc_auc", true)
	assert.ErrorAs(t, err, &target)
}

func TestResults_Filter(t *testing.T) {
	reg := fittedRegistry(t)
	mission, model, balanced := common.MissionK2, common.FamilyLogReg, false

	got, err := reg.Results(Filter{Mission: &mission})
	require.NoError(t, err)
	assert.Len(t, got, 10)

	got, err = reg.Results(Filter{Model: &model})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	got, err = reg.Results(Filter{Mission: &mission, Model: &model, Balanced: &balanced})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Key{Mission: mission, Family: model, Balanced: false}, got[0].Key())

	unknown := "xgboost"
	got, err = reg.Results(Filter{Model: &unknown})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResults_CopiesRecords(t *testing.T) {
	reg := fittedRegistry(t)
	mission, model, balanced := common.MissionKepler, common.FamilyKNN, true
	f := Filter{Mission: &mission, Model: &model, Balanced: &balanced}

	got, err := reg.Results(f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	accuracy := got[0].Metrics[common.MetricAccuracy]

	got[0].Metrics[common.MetricAccuracy] = -1
	for class := range got[0].Report.PerClass {
		delete(got[0].Report.PerClass, class)
	}

	again, err := reg.Results(f)
	require.NoError(t, err)
	assert.Equal(t, accuracy, again[0].Metrics[common.MetricAccuracy])
	assert.NotEmpty(t, again[0].Report.PerClass)
}

func TestResults_Unfitted(t *testing.T) {
	reg := NewRegistry(&staticSource{}, testConfig(), nil)
	_, err := reg.Results(Filter{})
	assert.ErrorIs(t, err, ErrUnfitted)
	_, err = reg.BestByMetric(common.MetricAccuracy, true)
	assert.ErrorIs(t, err, ErrUnfitted)
}

func TestCompare(t *testing.T) {
	reg := stubRegistry(
		result(common.MissionKepler, common.FamilyGaussianNB, true, 0.7),
		result(common.MissionKepler, common.FamilyKNN, true, 0.8),
		result(common.MissionK2, common.FamilyKNN, true, 0.6),
		result(common.MissionK2, common.FamilyKNN, false, 0.1),
	)
	table, err := reg.Compare(common.MetricAccuracy, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		common.MissionKepler: {common.FamilyGaussianNB: 0.7, common.FamilyKNN: 0.8},
		common.MissionK2:     {common.FamilyKNN: 0.6},
	}, table)
}

func TestMetricNames(t *testing.T) {
	names := MetricNames()
	assert.Equal(t, common.MetricNames, names)
	names[0] = "changed"
	assert.Equal(t, common.MetricAccuracy, MetricNames()[0])
}
