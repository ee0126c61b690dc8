package mlclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"exoseeker/internal/label"
	"exoseeker/internal/ml"
)

// NormalizeResponse re-normalizes a decoded model response. Labels go through
// label.NormalizeToken, so unrecognized non-empty labels pass through cleaned.
// Non-numeric probabilities are dropped and a non-numeric confidence becomes 0.
func NormalizeResponse(raw map[string]any) ml.PredictionBundle {
	bundle := ml.PredictionBundle{PerModel: make(map[string]ml.ModelPrediction)}

	perModel, _ := raw["per_model"].(map[string]any)
	for name, v := range perModel {
		res, _ := v.(map[string]any)
		proba := make(map[string]float64)
		if p, ok := res["proba"].(map[string]any); ok {
			for k, pv := range p {
				if f, ok := toFloat(pv); ok {
					proba[k] = f
				}
			}
		}
		bundle.PerModel[name] = ml.ModelPrediction{
			Label: label.NormalizeToken(toString(res["label"])),
			Proba: proba,
		}
	}

	ens, _ := raw["ensemble"].(map[string]any)
	confidence, _ := toFloat(ens["confidence"])
	bundle.Ensemble = ml.EnsembleVerdict{
		Rule:       toString(ens["rule"]),
		Label:      label.NormalizeToken(toString(ens["label"])),
		Confidence: confidence,
	}
	return bundle
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
