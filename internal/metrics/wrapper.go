package metrics

import "strconv"

// MetricsWrapper adapts Metrics to the hook interfaces of the ml and mlclient
// packages so neither has to import Prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) FitsInc() {
	w.m.FitsTotal.Inc()
}

func (w *MetricsWrapper) FitFailuresInc() {
	w.m.FitFailures.Inc()
}

func (w *MetricsWrapper) FitDurationObserve(v float64) {
	w.m.FitDuration.Observe(v)
}

func (w *MetricsWrapper) ModelsSet(v float64) {
	w.m.ModelsLoaded.Set(v)
}

func (w *MetricsWrapper) ModelMetricSet(mission, model string, balanced bool, metric string, v float64) {
	w.m.ModelScores.WithLabelValues(mission, model, strconv.FormatBool(balanced), metric).Set(v)
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *MetricsWrapper) EnsembleLabelInc(label string) {
	w.m.EnsembleLabels.WithLabelValues(label).Inc()
}

func (w *MetricsWrapper) ConfidenceObserve(v float64) {
	w.m.Confidence.Observe(v)
}

func (w *MetricsWrapper) ClientRequestInc(mode, outcome string) {
	w.m.ClientRequests.WithLabelValues(mode, outcome).Inc()
}
