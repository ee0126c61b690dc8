package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/label"
	"exoseeker/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *Results {
	truth := []label.Label{label.Planet, label.Planet, label.NonPlanet, label.Candidate}
	pred := []label.Label{label.Planet, label.NonPlanet, label.NonPlanet, label.Candidate}
	metrics, rep := ml.Score(truth, pred)

	knn := ml.ModelResult{
		Mission: common.MissionKepler, Model: common.FamilyKNN, Balanced: true,
		Metrics: metrics, Report: rep, TrainRows: 16, TestRows: 4,
	}
	nb := ml.ModelResult{
		Mission: common.MissionKepler, Model: common.FamilyGaussianNB, Balanced: false,
		Metrics: map[string]float64{common.MetricAccuracy: 0.5, common.MetricF1Weighted: 0.4},
		Report:  ml.Report{PerClass: map[string]ml.ClassReport{"planet": {Precision: 1, Recall: 0.5, F1: 0.666667, Support: 2}}},
	}

	return &Results{
		RunID:    "run-42",
		FittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Metric:   common.MetricF1Weighted,
		Datasets: map[string]dataset.Summary{
			common.MissionKepler: {Rows: 20, ByClass: map[label.Label]int{label.Planet: 8, label.NonPlanet: 7, label.Candidate: 5}},
		},
		Models: []ml.ModelResult{nb, knn},
		Best:   []ml.ModelResult{knn},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestReporter_GenerateReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports")
	r := NewReporter(sampleResults(), out)
	require.NoError(t, r.GenerateReport())

	summary, err := os.ReadFile(filepath.Join(out, "evaluation_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Run: run-42")
	assert.Contains(t, string(summary), "kepler: 20 rows (planet 8, non_planet 7, candidate 5)")
	assert.Contains(t, string(summary), "BEST BY f1_weighted")
	assert.Contains(t, string(summary), "kepler: knn")

	rows := readCSV(t, filepath.Join(out, "model_results.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, append([]string{"Mission", "Model", "Balanced", "Train Rows", "Test Rows"}, common.MetricNames...), rows[0])
	assert.Equal(t, []string{"kepler", "knn", "true", "16", "4"}, rows[2][:5])
	assert.Equal(t, "0.750000", rows[2][5])

	classes := readCSV(t, filepath.Join(out, "class_report.csv"))
	// header + one class for gaussian_nb + three for knn
	require.Len(t, classes, 5)
	assert.Equal(t, []string{"kepler", "gaussian_nb", "false", "planet", "1.000000", "0.500000", "0.666667", "2"}, classes[1])
	assert.Equal(t, "candidate", classes[4][3])

	data, err := os.ReadFile(filepath.Join(out, "evaluation_results.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-42", doc["run_id"])
	assert.Len(t, doc["models"], 2)
	assert.Len(t, doc["best"], 1)
}

func TestReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(sampleResults(), "").PrintSummary(&buf)
	assert.Contains(t, buf.String(), "EVALUATION SUMMARY")
	assert.Contains(t, buf.String(), "gaussian_nb")
}

func TestReporter_NoBest(t *testing.T) {
	res := sampleResults()
	res.Best = nil

	var buf bytes.Buffer
	NewReporter(res, "").PrintSummary(&buf)
	assert.NotContains(t, buf.String(), "BEST BY")
}

func TestCollect_Unfitted(t *testing.T) {
	reg := ml.NewRegistry(dataset.NewLoader(t.TempDir()), ml.RegistryConfig{Seed: 42, TestFraction: 0.2}, nil)
	_, err := Collect(reg, common.MetricF1Weighted)
	assert.ErrorIs(t, err, ml.ErrUnfitted)
}
