package ml

import (
	"fmt"
	"math"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/features"
	"exoseeker/internal/label"

	"github.com/rs/zerolog/log"
)

// ModelPrediction is one family's verdict for a record.
type ModelPrediction struct {
	Label string             `json:"label"`
	Proba map[string]float64 `json:"proba"`
}

// EnsembleVerdict is the combined verdict over all families.
type EnsembleVerdict struct {
	Rule       string  `json:"rule"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// PredictionBundle is the full answer for one record.
type PredictionBundle struct {
	PerModel map[string]ModelPrediction `json:"per_model"`
	Ensemble EnsembleVerdict            `json:"ensemble"`
}

// Predictor classifies feature records with the balanced models of a mission.
type Predictor struct {
	registry *Registry
	metrics  MetricsInterface
}

var _ PredictorInterface = (*Predictor)(nil)

// NewPredictor creates a predictor reading from registry. metrics may be nil.
func NewPredictor(registry *Registry, metrics MetricsInterface) *Predictor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Predictor{registry: registry, metrics: metrics}
}

// Predict runs every balanced family of mission on raw. Missing features
// default to 0 and unknown keys are ignored.
func (p *Predictor) Predict(mission string, raw map[string]float64) (*PredictionBundle, error) {
	start := time.Now()

	bundle, err := p.predict(mission, raw)
	if err != nil {
		p.metrics.PredictionFailuresInc()
		log.Warn().Err(err).Str("mission", mission).Msg("Prediction failed")
		return nil, err
	}

	p.metrics.PredictionsInc()
	p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
	p.metrics.EnsembleLabelInc(bundle.Ensemble.Label)
	p.metrics.ConfidenceObserve(bundle.Ensemble.Confidence)
	return bundle, nil
}

func (p *Predictor) predict(mission string, raw map[string]float64) (*PredictionBundle, error) {
	if !common.IsMission(mission) {
		return nil, &UnknownMissionError{Mission: mission}
	}
	_, models, ok := p.registry.snapshot()
	if !ok {
		return nil, ErrUnfitted
	}

	x := features.FromMap(raw).Slice()
	perModel := make(map[string]ModelPrediction, len(common.Families))
	for _, family := range common.Families {
		model, ok := models[Key{Mission: mission, Family: family, Balanced: true}]
		if !ok {
			return nil, fmt.Errorf("%s has no balanced %s model: %w", mission, family, ErrUnfitted)
		}

		proba := model.PredictProba(x)
		rounded := make(map[string]float64, len(proba))
		for l, v := range proba {
			rounded[string(l)] = roundTo(v, common.ProbaRoundDecimals)
		}
		perModel[family] = ModelPrediction{
			Label: string(argmax(proba, model.Classes())),
			Proba: rounded,
		}
	}

	return &PredictionBundle{PerModel: perModel, Ensemble: Ensemble(perModel)}, nil
}

// Ensemble combines per-family verdicts. Planet votes +1, non_planet -1 and
// candidate 0; the ensemble says planet iff the tally is at least 1. Confidence
// is the mean over families of the highest planet, non_planet or candidate
// probability, with absent classes counting as 0.
func Ensemble(perModel map[string]ModelPrediction) EnsembleVerdict {
	tally := 0
	sum := 0.0
	for _, mp := range perModel {
		switch label.Label(mp.Label) {
		case label.Planet:
			tally++
		case label.NonPlanet:
			tally--
		}

		best := 0.0
		for _, l := range label.All {
			best = math.Max(best, mp.Proba[string(l)])
		}
		sum += best
	}

	verdict := EnsembleVerdict{Rule: common.EnsembleRule, Label: string(label.NonPlanet)}
	if tally >= 1 {
		verdict.Label = string(label.Planet)
	}
	if len(perModel) > 0 {
		verdict.Confidence = sum / float64(len(perModel))
	}
	return verdict
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
