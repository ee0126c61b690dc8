// Package metrics provides Prometheus metrics collection for the exoseeker
// classification service. It covers fit-all runs, the evaluation scores of
// every fitted model and the live prediction path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Training metrics
	FitsTotal    prometheus.Counter   // Completed fit-all runs
	FitFailures  prometheus.Counter   // Failed or cancelled fit-all runs
	FitDuration  prometheus.Histogram // Wall time of fit-all runs
	ModelsLoaded prometheus.Gauge     // Fitted models currently served
	ModelScores  *prometheus.GaugeVec // Held-out evaluation metrics per model

	// Prediction metrics
	Predictions        prometheus.Counter   // Successful predictions
	PredictionFailures prometheus.Counter   // Rejected or failed predictions
	PredictionLatency  prometheus.Histogram // Predict latency in seconds
	EnsembleLabels     *prometheus.CounterVec
	Confidence         prometheus.Histogram // Ensemble confidence distribution

	// Client metrics
	ClientRequests *prometheus.CounterVec // Model client calls by mode and outcome
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		FitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fits_total",
			Help: "Total number of completed fit-all runs",
		}),
		FitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fit_failures_total",
			Help: "Total number of failed fit-all runs",
		}),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fit_duration_seconds",
			Help:    "Duration of fit-all runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ModelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "models_loaded",
			Help: "Number of fitted models held by the registry",
		}),
		ModelScores: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "model_score",
			Help: "Held-out evaluation metric of a fitted model",
		}, []string{"mission", "model", "balanced", "metric"}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of ensemble predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds across all families",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		EnsembleLabels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ensemble_labels_total",
			Help: "Ensemble verdicts by label",
		}, []string{"label"}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_confidence",
			Help:    "Distribution of ensemble confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ClientRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_client_requests_total",
			Help: "Model client calls by mode and outcome",
		}, []string{"mode", "outcome"}),
	}
}
