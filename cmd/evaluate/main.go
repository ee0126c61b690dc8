// Command evaluate trains every classifier family offline and reports how the
// models compare. It can also query a single prediction, locally or through
// the model client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"exoseeker/internal/cfg"
	"exoseeker/internal/common"
	"exoseeker/internal/dataset"
	"exoseeker/internal/ml"
	"exoseeker/internal/mlclient"
	"exoseeker/internal/report"
	"exoseeker/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	dataDir          string
	seed             int64
	testFraction     float64
	skipInsufficient bool
	logLevel         string

	settings cfg.Settings
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Train and compare exoplanet classifiers",
		Long: `Evaluate fits the five classifier families for every mission in both
the full and the class-balanced regime, then reports held-out metrics.

Settings come from CONFIG_FILE or the environment; flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data", common.DefaultDataDir, "Directory holding <mission>/<mission>_data_treated.csv")
	flags.Int64Var(&opts.seed, "seed", common.DefaultSeed, "Seed for balancing, splitting and tree fitting")
	flags.Float64Var(&opts.testFraction, "test-fraction", common.DefaultTestFraction, "Held-out share of each class")
	flags.BoolVar(&opts.skipInsufficient, "skip-insufficient", false, "Skip the balanced regime of missions missing a class")
	flags.StringVar(&opts.logLevel, "log-level", common.DefaultLogLevel, "Log level: debug, info, warn, error")

	cmd.AddCommand(
		trainCmd(opts),
		datasetsCmd(opts),
		bestCmd(opts),
		compareCmd(opts),
		predictCmd(opts),
		historyCmd(opts),
	)
	return cmd
}

// load merges configured settings with explicitly set flags and sets up logging.
func (o *options) load(cmd *cobra.Command) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		settings.DataDir = o.dataDir
	}
	if flags.Changed("seed") {
		settings.Seed = o.seed
	}
	if flags.Changed("test-fraction") {
		settings.TestFraction = o.testFraction
	}
	if flags.Changed("skip-insufficient") {
		settings.SkipInsufficient = o.skipInsufficient
	}
	if flags.Changed("log-level") {
		settings.LogLevel = o.logLevel
	}
	o.settings = settings

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}

func (o *options) fit(ctx context.Context) (*ml.Registry, error) {
	reg := ml.NewRegistry(dataset.NewLoader(o.settings.DataDir), ml.RegistryConfig{
		Seed:             o.settings.Seed,
		TestFraction:     o.settings.TestFraction,
		SkipInsufficient: o.settings.SkipInsufficient,
	}, nil)
	if err := reg.FitAll(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

func trainCmd(opts *options) *cobra.Command {
	var (
		output string
		metric string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit all models and print an evaluation summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.fit(cmd.Context())
			if err != nil {
				return err
			}
			results, err := report.Collect(reg, metric)
			if err != nil {
				return err
			}

			reporter := report.NewReporter(results, output)
			reporter.PrintSummary(cmd.OutOrStdout())
			if output != "" {
				if err := reporter.GenerateReport(); err != nil {
					return err
				}
			}

			if save {
				return saveResults(opts.settings, results)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Write report files to this directory")
	cmd.Flags().StringVar(&metric, "metric", common.MetricF1Weighted, "Metric used to pick the best model per mission")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the evaluation snapshot under DATA_PATH")
	return cmd
}

func saveResults(settings cfg.Settings, results *report.Results) error {
	if settings.DataPath == "" {
		return fmt.Errorf("--save requires %s", common.EnvDataPath)
	}
	store, err := storage.New(settings.DataPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.StoreResults(storage.ResultsSnapshot{
		RunID:    results.RunID,
		FittedAt: results.FittedAt,
		Results:  results.Models,
	})
}

func datasetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Load every mission dataset and print its class counts and feature statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := dataset.NewLoader(opts.settings.DataDir).LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			summaries := make(map[string]dataset.Summary, len(data))
			for mission, ds := range data {
				summaries[mission] = ds.Summary()
			}
			return printJSON(cmd, summaries)
		},
	}
}

func bestCmd(opts *options) *cobra.Command {
	var (
		metric   string
		balanced bool
	)
	cmd := &cobra.Command{
		Use:   "best",
		Short: "Print the best model per mission for a metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.fit(cmd.Context())
			if err != nil {
				return err
			}
			best, err := reg.BestByMetric(metric, balanced)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, res := range best {
				fmt.Fprintf(out, "%-8s %-14s %s=%.4f\n", res.Mission, res.Model, metric, res.Metrics[metric])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", common.MetricF1Weighted, "Metric to rank by")
	cmd.Flags().BoolVar(&balanced, "balanced", true, "Rank models of the balanced regime")
	return cmd
}

func compareCmd(opts *options) *cobra.Command {
	var (
		metric   string
		balanced bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Print a mission by model table of one metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.fit(cmd.Context())
			if err != nil {
				return err
			}
			table, err := reg.Compare(metric, balanced)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s", "mission")
			for _, family := range common.Families {
				fmt.Fprintf(out, " %14s", family)
			}
			fmt.Fprintln(out)
			for _, mission := range common.Missions {
				row, ok := table[mission]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%-8s", mission)
				for _, family := range common.Families {
					fmt.Fprintf(out, " %14.4f", row[family])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", common.MetricF1Weighted, "Metric to compare")
	cmd.Flags().BoolVar(&balanced, "balanced", true, "Compare models of the balanced regime")
	return cmd
}

func predictCmd(opts *options) *cobra.Command {
	var (
		mission  string
		objectID string
		feats    string
		remote   bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one record with the ensemble",
		Long: `Predict classifies one feature record. By default the models are fitted
locally; with --remote the record goes through the model client selected by
ML_MODE (http or mock).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseFeatures(feats)
			if err != nil {
				return err
			}

			var bundle *ml.PredictionBundle
			if remote {
				client, err := mlclient.New(opts.settings, nil)
				if err != nil {
					return err
				}
				bundle, err = client.Predict(cmd.Context(), mission, objectID, raw)
				if err != nil {
					return err
				}
			} else {
				if !common.IsMission(mission) {
					return &ml.UnknownMissionError{Mission: mission}
				}
				reg, err := opts.fit(cmd.Context())
				if err != nil {
					return err
				}
				bundle, err = ml.NewPredictor(reg, nil).Predict(mission, raw)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd, bundle)
		},
	}
	cmd.Flags().StringVar(&mission, "mission", common.MissionKepler, "Mission: kepler, k2 or tess")
	cmd.Flags().StringVar(&objectID, "object-id", "", "Object identifier sent with remote requests")
	cmd.Flags().StringVar(&feats, "features", "", "Comma-separated name=value pairs; missing features are 0")
	cmd.Flags().BoolVar(&remote, "remote", false, "Use the model client instead of fitting locally")
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored evaluation snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.settings.DataPath == "" {
				return fmt.Errorf("history requires %s", common.EnvDataPath)
			}
			store, err := storage.New(opts.settings.DataPath)
			if err != nil {
				return err
			}
			defer store.Close()

			history, err := store.ResultsHistory()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, snap := range history {
				fmt.Fprintf(out, "%s  %s  %d models", snap.FittedAt.Format("2006-01-02 15:04:05"), snap.RunID, len(snap.Results))
				if best, ok := bestOf(snap.Results, metric); ok {
					fmt.Fprintf(out, "  best %s %s/%s=%.4f", metric, best.Mission, best.Model, best.Metrics[metric])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", common.MetricF1Weighted, "Metric shown for the best balanced model")
	return cmd
}

func bestOf(results []ml.ModelResult, metric string) (ml.ModelResult, bool) {
	var best ml.ModelResult
	found := false
	for _, res := range results {
		if !res.Balanced {
			continue
		}
		if !found || res.Metrics[metric] > best.Metrics[metric] {
			best, found = res, true
		}
	}
	return best, found
}

// parseFeatures reads "name=value,name=value" into a feature mapping.
func parseFeatures(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("feature %q is not name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
