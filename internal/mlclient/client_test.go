package mlclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"exoseeker/internal/cfg"
	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/label"
	"exoseeker/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu    sync.Mutex
	calls map[string]int
}

func (m *countingMetrics) ClientRequestInc(mode, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[mode+"/"+outcome]++
}

func TestNew_SelectsMode(t *testing.T) {
	c, err := New(cfg.Settings{MLMode: common.MLModeMock}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	c, err = New(cfg.Settings{MLMode: common.MLModeHTTP, MLServiceURL: "http://ml:8001", MLTimeout: time.Second}, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)

	_, err = New(cfg.Settings{MLMode: "grpc"}, nil)
	assert.Error(t, err)
}

func TestHTTPClient_NormalizesResponse(t *testing.T) {
	var got ml.PredictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"per_model": {
				"knn": {"label": "Not-Planet", "proba": {"planet": "0.25", "non_planet": 0.75, "candidate": "n/a"}},
				"log_reg": {"label": "CONFIRMED", "proba": {"planet": 0.9, "non_planet": 0.1}},
				"gaussian_nb": {"label": "Eclipsing Binary", "proba": {}},
				"decision_tree": {"label": null}
			},
			"ensemble": {"rule": "majority_vote_candidate_neutral", "label": "NonPlanet", "confidence": "0.6"}
		}`))
	}))
	defer srv.Close()

	metrics := &countingMetrics{}
	c := NewHTTPClient(srv.URL+"/", 5*time.Second, metrics)
	bundle, err := c.Predict(context.Background(), common.MissionKepler, "KOI-7", map[string]float64{"planet_radius": 1.1})
	require.NoError(t, err)

	assert.Equal(t, common.MissionKepler, got.Mission)
	assert.Equal(t, "KOI-7", got.ObjectID)
	assert.Equal(t, 1.1, got.Features["planet_radius"])

	knn := bundle.PerModel["knn"]
	assert.Equal(t, "non_planet", knn.Label)
	assert.Equal(t, map[string]float64{"planet": 0.25, "non_planet": 0.75}, knn.Proba)

	assert.Equal(t, "planet", bundle.PerModel["log_reg"].Label)
	assert.Equal(t, "eclipsing binary", bundle.PerModel["gaussian_nb"].Label)
	assert.Equal(t, "", bundle.PerModel["decision_tree"].Label)
	assert.Empty(t, bundle.PerModel["decision_tree"].Proba)

	assert.Equal(t, common.EnsembleRule, bundle.Ensemble.Rule)
	assert.Equal(t, "non_planet", bundle.Ensemble.Label)
	assert.Equal(t, 0.6, bundle.Ensemble.Confidence)
	assert.Equal(t, 1, metrics.calls["http/ok"])
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "unknown mission \"pluto\""}`))
	}))
	defer srv.Close()

	metrics := &countingMetrics{}
	c := NewHTTPClient(srv.URL, time.Second, metrics)
	_, err := c.Predict(context.Background(), "pluto", "", map[string]float64{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "pluto")
	assert.Equal(t, 1, metrics.calls["http/error"])
}

func TestHTTPClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "ok", "models": 30}`))
	}))
	defer srv.Close()

	health, err := NewHTTPClient(srv.URL, time.Second, nil).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, json.Number("30"), health["models"])
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPClient(srv.URL, time.Second, nil).Predict(ctx, common.MissionTESS, "", map[string]float64{})
	assert.Error(t, err)
}

func TestMockClient(t *testing.T) {
	metrics := &countingMetrics{}
	c := NewMockClient(metrics)

	small, err := c.Predict(context.Background(), common.MissionK2, "", map[string]float64{"planet_radius": 1.0})
	require.NoError(t, err)
	assert.Len(t, small.PerModel, len(common.Families))
	assert.Equal(t, "planet", small.Ensemble.Label)
	assert.Equal(t, common.EnsembleRule, small.Ensemble.Rule)

	large, err := c.Predict(context.Background(), common.MissionK2, "", map[string]float64{"planet_radius": 12})
	require.NoError(t, err)
	assert.Equal(t, "non_planet", large.Ensemble.Label)
	for family, mp := range large.PerModel {
		assert.Equal(t, "non_planet", mp.Label, family)
		assert.GreaterOrEqual(t, mp.Proba["non_planet"], mp.Proba["planet"], family)
	}

	missing, err := c.Predict(context.Background(), common.MissionK2, "", nil)
	require.NoError(t, err)
	assert.Equal(t, large.Ensemble, missing.Ensemble)

	_, err = c.Predict(context.Background(), "pluto", "", nil)
	var unknown *ml.UnknownMissionError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, 3, metrics.calls["mock/ok"])
	assert.Equal(t, 1, metrics.calls["mock/error"])

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock", health["mode"])
}

// TestHTTPClient_AgainstModelServer runs the client against a real model
// server fitted from CSV files on disk.
func TestHTTPClient_AgainstModelServer(t *testing.T) {
	dir := t.TempDir()
	for i, mission := range common.Missions {
		ds := dataset.Synthetic(mission, map[label.Label]int{label.Planet: 30, label.NonPlanet: 30, label.Candidate: 20}, int64(10+i))
		path := filepath.Join(dir, mission, mission+common.DatasetFileSuffix)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, dataset.WriteCSV(f, ds))
		require.NoError(t, f.Close())
	}

	reg := ml.NewRegistry(dataset.NewLoader(dir), ml.RegistryConfig{Seed: 42, TestFraction: 0.2}, nil)
	require.NoError(t, reg.FitAll(context.Background()))
	srv := httptest.NewServer(ml.NewModelServer(reg, ml.NewPredictor(reg, nil), nil, 0).Handler())
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second, nil)
	bundle, err := c.Predict(context.Background(), common.MissionKepler, "KOI-1", map[string]float64{})
	require.NoError(t, err)
	assert.Len(t, bundle.PerModel, len(common.Families))
	assert.Contains(t, []string{"planet", "non_planet"}, bundle.Ensemble.Label)
	assert.GreaterOrEqual(t, bundle.Ensemble.Confidence, 0.0)
	assert.LessOrEqual(t, bundle.Ensemble.Confidence, 1.0)
	for family, mp := range bundle.PerModel {
		assert.True(t, label.Label(mp.Label).Valid(), family)
	}

	_, err = c.Predict(context.Background(), "pluto", "", map[string]float64{})
	assert.Error(t, err)
}
