package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/dataset"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DatasetSource supplies every mission dataset for a fit-all run.
type DatasetSource interface {
	LoadAll(ctx context.Context) (map[string]*dataset.Dataset, error)
}

// Key identifies one fitted model.
type Key struct {
	Mission  string
	Family   string
	Balanced bool
}

func (k Key) String() string {
	regime := "unbalanced"
	if k.Balanced {
		regime = "balanced"
	}
	return fmt.Sprintf("%s/%s/%s", k.Mission, k.Family, regime)
}

// ModelResult is the evaluation record of one fitted model.
type ModelResult struct {
	Mission   string             `json:"mission"`
	Model     string             `json:"model"`
	Balanced  bool               `json:"balanced"`
	Metrics   map[string]float64 `json:"metrics"`
	Report    Report             `json:"report"`
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
}

// Key returns the registry key of the result.
func (r ModelResult) Key() Key {
	return Key{Mission: r.Mission, Family: r.Model, Balanced: r.Balanced}
}

// RegistryConfig controls how fit-all prepares data.
type RegistryConfig struct {
	Seed         int64
	TestFraction float64
	// SkipInsufficient skips the balanced regime of a mission that lacks a
	// class instead of failing the whole run.
	SkipInsufficient bool
}

// Registry holds every fitted model and its evaluation record. Fit-all is the
// only writer; readers see either the previous complete state or the new one.
type Registry struct {
	source  DatasetSource
	cfg     RegistryConfig
	metrics MetricsInterface

	fitting atomic.Bool

	mu       sync.RWMutex
	models   map[Key]*Pipeline
	results  []ModelResult
	datasets map[string]*dataset.Dataset
	runID    string
	fittedAt time.Time
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(source DatasetSource, cfg RegistryConfig, metrics MetricsInterface) *Registry {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Registry{
		source:  source,
		cfg:     cfg,
		metrics: metrics,
	}
}

type missionFit struct {
	models  map[Key]*Pipeline
	results []ModelResult
}

// FitAll loads every mission, fits all families in both regimes and swaps the
// outcome in as a whole. A concurrent call gets ErrFitInProgress; a failed or
// cancelled run leaves the previous state untouched.
func (r *Registry) FitAll(ctx context.Context) error {
	if !r.fitting.CompareAndSwap(false, true) {
		return ErrFitInProgress
	}
	defer r.fitting.Store(false)

	start := time.Now()
	err := r.fitAll(ctx)
	r.metrics.FitDurationObserve(time.Since(start).Seconds())
	if err != nil {
		r.metrics.FitFailuresInc()
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Fit-all failed")
		return err
	}
	r.metrics.FitsInc()
	return nil
}

func (r *Registry) fitAll(ctx context.Context) error {
	data, err := r.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	for _, mission := range common.Missions {
		if _, ok := data[mission]; !ok {
			return &dataset.DataLoadError{Mission: mission, Err: errors.New("dataset not loaded")}
		}
	}

	fits := make([]missionFit, 0, len(common.Missions))
	for _, mission := range common.Missions {
		fit, err := r.fitMission(ctx, data[mission])
		if err != nil {
			return err
		}
		fits = append(fits, fit)
	}

	models := make(map[Key]*Pipeline)
	var results []ModelResult
	for _, fit := range fits {
		for k, p := range fit.models {
			models[k] = p
		}
		results = append(results, fit.results...)
	}

	r.mu.Lock()
	r.models = models
	r.results = results
	r.datasets = data
	r.runID = uuid.NewString()
	r.fittedAt = time.Now()
	runID := r.runID
	r.mu.Unlock()

	r.metrics.ModelsSet(float64(len(models)))
	for _, res := range results {
		for name, v := range res.Metrics {
			r.metrics.ModelMetricSet(res.Mission, res.Model, res.Balanced, name, v)
		}
	}

	log.Info().
		Str("run_id", runID).
		Int("models", len(models)).
		Msg("Fit-all completed")
	return nil
}

func (r *Registry) fitMission(ctx context.Context, ds *dataset.Dataset) (missionFit, error) {
	fit := missionFit{models: make(map[Key]*Pipeline)}

	for _, balanced := range []bool{false, true} {
		input := ds
		if balanced {
			b, err := dataset.Balance(ds, r.cfg.Seed)
			var insufficient *dataset.InsufficientDataError
			if errors.As(err, &insufficient) && r.cfg.SkipInsufficient {
				log.Warn().
					Str("mission", ds.Mission).
					Str("label", insufficient.Label.String()).
					Msg("Skipping balanced regime: class has no rows")
				continue
			}
			if err != nil {
				return missionFit{}, err
			}
			input = b
		}

		train, test, err := dataset.Split(input, r.cfg.TestFraction, r.cfg.Seed)
		if err != nil {
			return missionFit{}, fmt.Errorf("split %s: %w", ds.Mission, err)
		}
		X, y := train.Matrix()

		for _, p := range NewFamilies(r.cfg.Seed) {
			if err := ctx.Err(); err != nil {
				return missionFit{}, err
			}

			key := Key{Mission: ds.Mission, Family: p.Name, Balanced: balanced}
			start := time.Now()
			if err := p.Fit(X, y); err != nil {
				return missionFit{}, fmt.Errorf("fit %s: %w", key, err)
			}
			metrics, report := Evaluate(p, test)

			fit.models[key] = p
			fit.results = append(fit.results, ModelResult{
				Mission:   ds.Mission,
				Model:     p.Name,
				Balanced:  balanced,
				Metrics:   metrics,
				Report:    report,
				TrainRows: train.Len(),
				TestRows:  test.Len(),
			})

			log.Debug().
				Str("model", key.String()).
				Float64("accuracy", metrics[common.MetricAccuracy]).
				Dur("elapsed", time.Since(start)).
				Msg("Model fitted")
		}
	}
	return fit, nil
}

// Fitted reports whether a fit-all has completed successfully.
func (r *Registry) Fitted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models != nil
}

// Model returns the fitted pipeline for key.
func (r *Registry) Model(key Key) (*Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.models[key]
	return p, ok
}

// ModelCount returns the number of fitted models.
func (r *Registry) ModelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// RunID identifies the current fitted state. It is empty before the first fit.
func (r *Registry) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// FittedAt returns when the current state was swapped in.
func (r *Registry) FittedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fittedAt
}

// ListDatasets summarizes the datasets used by the current fit.
func (r *Registry) ListDatasets() (map[string]dataset.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.models == nil {
		return nil, ErrUnfitted
	}
	out := make(map[string]dataset.Summary, len(r.datasets))
	for mission, ds := range r.datasets {
		out[mission] = ds.Summary()
	}
	return out, nil
}

// snapshot returns the result records and a read-only view of the models.
func (r *Registry) snapshot() ([]ModelResult, map[Key]*Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.results, r.models, r.models != nil
}
