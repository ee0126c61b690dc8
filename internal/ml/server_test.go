package ml

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"exoseeker/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPrediction struct {
	mission  string
	objectID string
}

type memRecorder struct {
	stored []recordedPrediction
}

func (m *memRecorder) StorePrediction(mission, objectID string, _ *PredictionBundle) error {
	m.stored = append(m.stored, recordedPrediction{mission: mission, objectID: objectID})
	return nil
}

func do(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func fittedServer(t *testing.T) (http.Handler, *memRecorder) {
	reg := fittedRegistry(t)
	rec := &memRecorder{}
	return NewModelServer(reg, NewPredictor(reg, nil), rec, 0).Handler(), rec
}

func TestServer_Health(t *testing.T) {
	h, _ := fittedServer(t)
	rec, body := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 30.0, body["models"])

	rec, _ = do(t, h, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Unfitted(t *testing.T) {
	reg := NewRegistry(&staticSource{}, testConfig(), nil)
	h := NewModelServer(reg, NewPredictor(reg, nil), nil, 0).Handler()

	rec, body := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, body["models"])

	for _, target := range []string{"/datasets", "/tests", "/final", "/compare"} {
		rec, _ := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}

	rec, _ = do(t, h, http.MethodPost, "/predict", PredictRequest{Mission: "kepler", Features: map[string]float64{}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_MetricsAndDatasets(t *testing.T) {
	h, _ := fittedServer(t)

	rec, body := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["available"], len(common.MetricNames))

	rec, body = do(t, h, http.MethodGet, "/datasets", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	for _, m := range common.Missions {
		assert.Contains(t, body, m)
	}
}

func TestServer_Tests(t *testing.T) {
	h, _ := fittedServer(t)

	rec, body := do(t, h, http.MethodGet, "/tests?mission=k2&balanced=true&metric=f1_macro", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, body["count"])
	rows := body["results"].([]any)
	first := rows[0].(map[string]any)
	assert.Equal(t, "k2", first["mission"])
	assert.Equal(t, true, first["balanced"])
	assert.Contains(t, first["metric_selected"], "f1_macro")
	assert.Contains(t, first, "report")

	for _, target := range []string{"/tests?mission=hubble", "/tests?balanced=maybe", "/tests?metric=roc_auc"} {
		rec, body := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["detail"], target)
	}
}

func TestServer_Final(t *testing.T) {
	h, _ := fittedServer(t)

	rec, body := do(t, h, http.MethodGet, "/final", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "best_by_metric", body["mode"])
	assert.Equal(t, "f1_weighted", body["metric"])
	assert.Equal(t, true, body["balanced"])
	assert.Len(t, body["winners"], 3)

	rec, body = do(t, h, http.MethodGet, "/final?model=knn&balanced=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "filtered", body["mode"])
	assert.Len(t, body["results"], 3)

	rec, _ = do(t, h, http.MethodGet, "/final?metric=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Compare(t *testing.T) {
	h, _ := fittedServer(t)
	rec, body := do(t, h, http.MethodGet, "/compare?metric=accuracy&balanced=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	table := body["table"].(map[string]any)
	assert.Len(t, table, 3)
	assert.Len(t, table["tess"], 5)
}

func TestServer_Predict(t *testing.T) {
	h, recorder := fittedServer(t)

	rec, body := do(t, h, http.MethodPost, "/predict", PredictRequest{
		Mission:  "tess",
		ObjectID: "TOI-700",
		Features: map[string]float64{"planet_radius": 1.2},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["per_model"], 5)
	ensemble := body["ensemble"].(map[string]any)
	assert.Equal(t, common.EnsembleRule, ensemble["rule"])
	require.Len(t, recorder.stored, 1)
	assert.Equal(t, recordedPrediction{mission: "tess", objectID: "TOI-700"}, recorder.stored[0])

	rec, _ = do(t, h, http.MethodPost, "/predict", PredictRequest{Mission: "hubble", Features: map[string]float64{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/predict", map[string]any{"mission": "tess"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	rec, _ = do(t, h, http.MethodGet, "/predict", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Len(t, recorder.stored, 1)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"confidence": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["detail"])
}

func TestServer_PredictExtremeFeature(t *testing.T) {
	h, _ := fittedServer(t)
	rec, body := do(t, h, http.MethodPost, "/predict", PredictRequest{
		Mission:  common.MissionKepler,
		Features: map[string]float64{"distance": 1e155},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	ensemble, ok := body["ensemble"].(map[string]any)
	require.True(t, ok)
	confidence, ok := ensemble["confidence"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}
