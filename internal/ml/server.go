package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"exoseeker/internal/common"

	"github.com/rs/zerolog/log"
)

// PredictionRecorder persists served predictions.
type PredictionRecorder interface {
	StorePrediction(mission, objectID string, bundle *PredictionBundle) error
}

// ModelServer exposes the registry and predictor over HTTP.
type ModelServer struct {
	registry  *Registry
	predictor PredictorInterface
	recorder  PredictionRecorder
	server    *http.Server
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Mission  string             `json:"mission"`
	ObjectID string             `json:"object_id,omitempty"`
	Features map[string]float64 `json:"features"`
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

// NewModelServer creates the HTTP server. recorder may be nil.
func NewModelServer(registry *Registry, predictor PredictorInterface, recorder PredictionRecorder, port int) *ModelServer {
	ms := &ModelServer{
		registry:  registry,
		predictor: predictor,
		recorder:  recorder,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", ms.handleHealth)
	mux.HandleFunc("/datasets", ms.handleDatasets)
	mux.HandleFunc("/metrics", ms.handleMetrics)
	mux.HandleFunc("/tests", ms.handleTests)
	mux.HandleFunc("/final", ms.handleFinal)
	mux.HandleFunc("/compare", ms.handleCompare)
	mux.HandleFunc("/predict", ms.handlePredict)

	ms.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return ms
}

// Handler returns the request router.
func (ms *ModelServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"models": ms.registry.ModelCount(),
	})
}

func (ms *ModelServer) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	summaries, err := ms.registry.ListDatasets()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (ms *ModelServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": MetricNames()})
}

type testRow struct {
	Mission        string             `json:"mission"`
	Model          string             `json:"model"`
	Balanced       bool               `json:"balanced"`
	Metrics        map[string]float64 `json:"metrics"`
	Report         Report             `json:"report"`
	MetricSelected map[string]float64 `json:"metric_selected,omitempty"`
}

func (ms *ModelServer) handleTests(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	filter, err := parseFilter(q.Get("mission"), q.Get("model"), q.Get("balanced"))
	if err != nil {
		writeError(w, err)
		return
	}
	metric := q.Get("metric")
	if metric != "" {
		if err := checkMetric(metric); err != nil {
			writeError(w, err)
			return
		}
	}

	results, err := ms.registry.Results(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]testRow, 0, len(results))
	for _, res := range results {
		row := testRow{
			Mission:  res.Mission,
			Model:    res.Model,
			Balanced: res.Balanced,
			Metrics:  res.Metrics,
			Report:   res.Report,
		}
		if metric != "" {
			row.MetricSelected = map[string]float64{metric: res.Metrics[metric]}
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(rows), "results": rows})
}

type finalRow struct {
	Mission  string             `json:"mission"`
	Model    string             `json:"model"`
	Balanced *bool              `json:"balanced,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}

func (ms *ModelServer) handleFinal(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	metric, balanced, err := parseMetricRegime(q.Get("metric"), q.Get("balanced"))
	if err != nil {
		writeError(w, err)
		return
	}

	mission, model := q.Get("mission"), q.Get("model")
	if mission != "" || model != "" {
		filter, err := parseFilter(mission, model, strconv.FormatBool(balanced))
		if err != nil {
			writeError(w, err)
			return
		}
		results, err := ms.registry.Results(filter)
		if err != nil {
			writeError(w, err)
			return
		}
		rows := make([]finalRow, 0, len(results))
		for _, res := range results {
			b := res.Balanced
			rows = append(rows, finalRow{Mission: res.Mission, Model: res.Model, Balanced: &b, Metrics: res.Metrics})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":     "filtered",
			"metric":   metric,
			"balanced": balanced,
			"results":  rows,
		})
		return
	}

	best, err := ms.registry.BestByMetric(metric, balanced)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]finalRow, 0, len(best))
	for _, res := range best {
		rows = append(rows, finalRow{Mission: res.Mission, Model: res.Model, Metrics: res.Metrics})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":     "best_by_metric",
		"metric":   metric,
		"balanced": balanced,
		"winners":  rows,
	})
}

func (ms *ModelServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	metric, balanced, err := parseMetricRegime(q.Get("metric"), q.Get("balanced"))
	if err != nil {
		writeError(w, err)
		return
	}
	table, err := ms.registry.Compare(metric, balanced)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metric":   metric,
		"balanced": balanced,
		"table":    table,
	})
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &badRequestError{msg: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.Features == nil {
		writeError(w, &badRequestError{msg: "features are required"})
		return
	}

	bundle, err := ms.predictor.Predict(req.Mission, req.Features)
	if err != nil {
		if !errors.Is(err, ErrUnfitted) {
			err = &badRequestError{msg: fmt.Sprintf("prediction error: %v", err)}
		}
		writeError(w, err)
		return
	}

	if ms.recorder != nil {
		if err := ms.recorder.StorePrediction(req.Mission, req.ObjectID, bundle); err != nil {
			log.Warn().Err(err).Str("mission", req.Mission).Msg("Failed to store prediction")
		}
	}

	writeJSON(w, http.StatusOK, bundle)
}

func parseFilter(mission, model, balanced string) (Filter, error) {
	var f Filter
	if mission != "" {
		if !common.IsMission(mission) {
			return Filter{}, &UnknownMissionError{Mission: mission}
		}
		f.Mission = &mission
	}
	if model != "" {
		f.Model = &model
	}
	if balanced != "" {
		b, err := strconv.ParseBool(balanced)
		if err != nil {
			return Filter{}, &badRequestError{msg: fmt.Sprintf("invalid balanced value %q", balanced)}
		}
		f.Balanced = &b
	}
	return f, nil
}

// parseMetricRegime applies the f1_weighted / balanced defaults.
func parseMetricRegime(metric, balanced string) (string, bool, error) {
	if metric == "" {
		metric = common.MetricF1Weighted
	}
	if err := checkMetric(metric); err != nil {
		return "", false, err
	}
	b := true
	if balanced != "" {
		var err error
		if b, err = strconv.ParseBool(balanced); err != nil {
			return "", false, &badRequestError{msg: fmt.Sprintf("invalid balanced value %q", balanced)}
		}
	}
	return metric, b, nil
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		badReq     *badRequestError
		badMission *UnknownMissionError
		badMetric  *UnknownMetricError
	)
	switch {
	case errors.Is(err, ErrUnfitted), errors.Is(err, ErrFitInProgress):
		status = http.StatusServiceUnavailable
	case errors.As(err, &badReq), errors.As(err, &badMission), errors.As(err, &badMetric):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"detail": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
