package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/ml"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// HTTPClient calls the model server's REST endpoints.
type HTTPClient struct {
	base    string
	rest    *resty.Client
	metrics MetricsInterface
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at base.
func NewHTTPClient(base string, timeout time.Duration, metrics MetricsInterface) *HTTPClient {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &HTTPClient{
		base:    strings.TrimRight(base, "/"),
		rest:    r,
		metrics: metrics,
	}
}

// Predict posts a record to /predict and normalizes the answer.
func (c *HTTPClient) Predict(ctx context.Context, mission, objectID string, features map[string]float64) (*ml.PredictionBundle, error) {
	body := ml.PredictRequest{
		Mission:  mission,
		ObjectID: objectID,
		Features: features,
	}

	raw, err := c.do(ctx, "POST", "/predict", body)
	if err != nil {
		c.metrics.ClientRequestInc(common.MLModeHTTP, "error")
		return nil, err
	}
	c.metrics.ClientRequestInc(common.MLModeHTTP, "ok")

	bundle := NormalizeResponse(raw)
	return &bundle, nil
}

// Health returns the server's /health document.
func (c *HTTPClient) Health(ctx context.Context) (map[string]any, error) {
	return c.do(ctx, "GET", "/health", nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return nil, fmt.Errorf("ml service %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		log.Warn().
			Str("path", path).
			Int("status", resp.StatusCode()).
			Msg("ML service returned an error")
		return nil, fmt.Errorf("ml service %s %s: %d %s", method, path, resp.StatusCode(), detail(resp.Body()))
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("ml service %s %s: decode response: %w", method, path, err)
	}
	return out, nil
}

// detail extracts the "detail" field of an error body, falling back to the raw text.
func detail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(body))
}
