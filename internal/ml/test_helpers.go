package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu             sync.Mutex
	fits           int
	fitFailures    int
	fitDurations   []float64
	models         float64
	modelMetrics   map[string]float64
	predictions    int
	failures       int
	latencySum     float64
	ensembleLabels map[string]int
	confidences    []float64
}

func (m *MockMetrics) FitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits++
}

func (m *MockMetrics) FitFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitFailures++
}

func (m *MockMetrics) FitDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitDurations = append(m.fitDurations, v)
}

func (m *MockMetrics) ModelsSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = v
}

func (m *MockMetrics) ModelMetricSet(mission, model string, balanced bool, metric string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modelMetrics == nil {
		m.modelMetrics = make(map[string]float64)
	}
	m.modelMetrics[Key{Mission: mission, Family: model, Balanced: balanced}.String()+"/"+metric] = v
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) EnsembleLabelInc(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensembleLabels == nil {
		m.ensembleLabels = make(map[string]int)
	}
	m.ensembleLabels[label]++
}

func (m *MockMetrics) ConfidenceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}
