// Package mlclient is the consuming side of the model server. It calls the
// server over HTTP (or fabricates bundles in mock mode) and re-normalizes every
// response before it leaves this package.
package mlclient

import (
	"context"
	"fmt"

	"exoseeker/internal/cfg"
	"exoseeker/internal/common"
	"exoseeker/internal/ml"
)

// Client produces prediction bundles for feature records.
type Client interface {
	Predict(ctx context.Context, mission, objectID string, features map[string]float64) (*ml.PredictionBundle, error)
	Health(ctx context.Context) (map[string]any, error)
}

// MetricsInterface counts client calls by mode and outcome.
type MetricsInterface interface {
	ClientRequestInc(mode, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ClientRequestInc(string, string) {}

// New selects the client implementation from settings.MLMode. metrics may be nil.
func New(settings cfg.Settings, metrics MetricsInterface) (Client, error) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	switch settings.MLMode {
	case common.MLModeHTTP:
		return NewHTTPClient(settings.MLServiceURL, settings.MLTimeout, metrics), nil
	case common.MLModeMock:
		return NewMockClient(metrics), nil
	}
	return nil, fmt.Errorf("unsupported ML mode %q", settings.MLMode)
}
