// Package ml trains and evaluates the exoplanet classifier families, keeps the
// fitted models in a registry, and serves ensemble predictions over HTTP.
package ml

// MetricsInterface defines the metrics hooks used by the registry and predictor.
type MetricsInterface interface {
	FitsInc()
	FitFailuresInc()
	FitDurationObserve(float64)
	ModelsSet(float64)
	ModelMetricSet(mission, model string, balanced bool, metric string, v float64)

	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	EnsembleLabelInc(label string)
	ConfidenceObserve(float64)
}

// PredictorInterface is the prediction surface consumed by the HTTP server and CLI.
type PredictorInterface interface {
	// Predict classifies one feature record with every balanced model of a mission.
	Predict(mission string, raw map[string]float64) (*PredictionBundle, error)
}

type noopMetrics struct{}

func (noopMetrics) FitsInc() {}
func (noopMetrics) FitFailuresInc() {}
func (noopMetrics) FitDurationObserve(float64) {}
func (noopMetrics) ModelsSet(float64) {}
func (noopMetrics) ModelMetricSet(string, string, bool, string, float64) {}
func (noopMetrics) PredictionsInc() {}
func (noopMetrics) PredictionFailuresInc() {}
func (noopMetrics) PredictionLatencyObserve(float64) {}
func (noopMetrics) EnsembleLabelInc(string) {}
func (noopMetrics) ConfidenceObserve(float64) {}
