package mlclient

import (
	"context"
	"math"

	"exoseeker/internal/common"
	"exoseeker/internal/features"
	"exoseeker/internal/label"
	"exoseeker/internal/ml"
)

// MockClient fabricates stable bundles from planet_radius for local runs
// without a model server.
type MockClient struct {
	metrics MetricsInterface
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client. metrics may be nil.
func NewMockClient(metrics MetricsInterface) *MockClient {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &MockClient{metrics: metrics}
}

// mockFamilies gives each family a score offset and the score above which it
// votes planet.
var mockFamilies = []struct {
	name      string
	offset    float64
	threshold float64
}{
	{common.FamilyGaussianNB, 0, 0.7},
	{common.FamilyKNN, 0.1, 0.6},
	{common.FamilyDecisionTree, 0.05, 0.65},
	{common.FamilyRandomForest, 0.15, 0.55},
	{common.FamilyLogReg, 0.2, 0.5},
}

// Predict scores small planets (radius below 1.5) as likely planets.
func (c *MockClient) Predict(_ context.Context, mission, _ string, raw map[string]float64) (*ml.PredictionBundle, error) {
	if !common.IsMission(mission) {
		c.metrics.ClientRequestInc(common.MLModeMock, "error")
		return nil, &ml.UnknownMissionError{Mission: mission}
	}

	score := 0.1
	if r, ok := raw[features.PlanetRadius]; ok && r < 1.5 {
		score = 0.85
	}

	perModel := make(map[string]ml.ModelPrediction, len(mockFamilies))
	for _, f := range mockFamilies {
		p := round3(math.Min(1, score+f.offset))
		verdict := label.NonPlanet
		if score > f.threshold {
			verdict = label.Planet
		}
		perModel[f.name] = ml.ModelPrediction{
			Label: string(verdict),
			Proba: map[string]float64{
				string(label.Planet):    p,
				string(label.NonPlanet): round3(1 - p),
				string(label.Candidate): 0,
			},
		}
	}

	c.metrics.ClientRequestInc(common.MLModeMock, "ok")
	bundle := ml.PredictionBundle{PerModel: perModel, Ensemble: ml.Ensemble(perModel)}
	return &bundle, nil
}

// Health always reports ok.
func (c *MockClient) Health(context.Context) (map[string]any, error) {
	return map[string]any{"status": "ok", "mode": common.MLModeMock}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
