// Package report writes evaluation reports for a fitted registry: a readable
// summary, CSV tables of model scores and per-class results, and a JSON dump.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/label"
	"exoseeker/internal/ml"

	"github.com/rs/zerolog/log"
)

// Results is everything a report covers.
type Results struct {
	RunID    string
	FittedAt time.Time
	Metric   string
	Datasets map[string]dataset.Summary
	Models   []ml.ModelResult
	// Best holds the winner per mission for Metric in the balanced regime.
	Best []ml.ModelResult
}

// Collect gathers report inputs from a fitted registry.
func Collect(reg *ml.Registry, metric string) (*Results, error) {
	datasets, err := reg.ListDatasets()
	if err != nil {
		return nil, err
	}
	models, err := reg.Results(ml.Filter{})
	if err != nil {
		return nil, err
	}
	best, err := reg.BestByMetric(metric, true)
	if err != nil {
		return nil, err
	}
	return &Results{
		RunID:    reg.RunID(),
		FittedAt: reg.FittedAt(),
		Metric:   metric,
		Datasets: datasets,
		Models:   models,
		Best:     best,
	}, nil
}

// Reporter generates evaluation reports
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport generates all report formats
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generateResultsTable(); err != nil {
		return err
	}
	if err := r.generateClassReport(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "evaluation_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	fmt.Fprintf(w, "EVALUATION SUMMARY\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Run: %s\n", r.results.RunID)
	fmt.Fprintf(w, "Fitted At: %s\n\n", r.results.FittedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "DATASETS\n")
	fmt.Fprintf(w, "--------\n")
	for _, mission := range sortedMissions(r.results.Datasets) {
		s := r.results.Datasets[mission]
		fmt.Fprintf(w, "%s: %d rows (planet %d, non_planet %d, candidate %d)\n",
			mission, s.Rows, s.ByClass[label.Planet], s.ByClass[label.NonPlanet], s.ByClass[label.Candidate])
	}

	fmt.Fprintf(w, "\nMODELS\n")
	fmt.Fprintf(w, "------\n")
	fmt.Fprintf(w, "%-8s %-14s %-9s", "mission", "model", "balanced")
	for _, name := range common.MetricNames {
		fmt.Fprintf(w, " %18s", name)
	}
	fmt.Fprintln(w)
	for _, res := range r.results.Models {
		fmt.Fprintf(w, "%-8s %-14s %-9t", res.Mission, res.Model, res.Balanced)
		for _, name := range common.MetricNames {
			fmt.Fprintf(w, " %18.4f", res.Metrics[name])
		}
		fmt.Fprintln(w)
	}

	if len(r.results.Best) > 0 {
		fmt.Fprintf(w, "\nBEST BY %s (balanced)\n", r.results.Metric)
		fmt.Fprintf(w, "------------------------\n")
		for _, res := range r.results.Best {
			fmt.Fprintf(w, "%s: %s (%.4f)\n", res.Mission, res.Model, res.Metrics[r.results.Metric])
		}
	}
}

// generateResultsTable writes one row per fitted model.
func (r *Reporter) generateResultsTable() error {
	csvPath := filepath.Join(r.outputPath, "model_results.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := append([]string{"Mission", "Model", "Balanced", "Train Rows", "Test Rows"}, common.MetricNames...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, res := range r.results.Models {
		record := []string{
			res.Mission,
			res.Model,
			strconv.FormatBool(res.Balanced),
			strconv.Itoa(res.TrainRows),
			strconv.Itoa(res.TestRows),
		}
		for _, name := range common.MetricNames {
			record = append(record, fmt.Sprintf("%.6f", res.Metrics[name]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	log.Info().Str("file", csvPath).Msg("Results table generated")
	return nil
}

// generateClassReport writes per-class precision, recall, F1 and support.
func (r *Reporter) generateClassReport() error {
	csvPath := filepath.Join(r.outputPath, "class_report.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create class report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"Mission", "Model", "Balanced", "Class", "Precision", "Recall", "F1", "Support"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, res := range r.results.Models {
		for _, l := range label.All {
			cr, ok := res.Report.PerClass[string(l)]
			if !ok {
				continue
			}
			record := []string{
				res.Mission,
				res.Model,
				strconv.FormatBool(res.Balanced),
				string(l),
				fmt.Sprintf("%.6f", cr.Precision),
				fmt.Sprintf("%.6f", cr.Recall),
				fmt.Sprintf("%.6f", cr.F1),
				strconv.Itoa(cr.Support),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	log.Info().Str("file", csvPath).Msg("Class report generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "evaluation_results.json")

	report := map[string]interface{}{
		"run_id":       r.results.RunID,
		"fitted_at":    r.results.FittedAt,
		"metric":       r.results.Metric,
		"datasets":     r.results.Datasets,
		"models":       r.results.Models,
		"best":         r.results.Best,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// PrintSummary writes the summary to w
func (r *Reporter) PrintSummary(w io.Writer) {
	fmt.Fprintln(w)
	r.writeSummary(w)
}

func sortedMissions(m map[string]dataset.Summary) []string {
	out := make([]string, 0, len(m))
	for mission := range m {
		out = append(out, mission)
	}
	sort.Strings(out)
	return out
}
