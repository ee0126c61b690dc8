package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"exoseeker/internal/cfg"
	"exoseeker/internal/dataset"
	"exoseeker/internal/metrics"
	"exoseeker/internal/ml"
	"exoseeker/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	// Context for graceful shutdown; a signal during fit-all aborts startup.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cancelOnSignal(ctx, cancel)

	// Initialize components
	m := metrics.New()
	mw := metrics.NewWrapper(m)
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	registry := ml.NewRegistry(dataset.NewLoader(c.DataDir), ml.RegistryConfig{
		Seed:             c.Seed,
		TestFraction:     c.TestFraction,
		SkipInsufficient: c.SkipInsufficient,
	}, mw)

	if err := fitOnce(ctx, registry); err != nil {
		log.Fatal().Err(err).Msg("fit-all failed, cannot serve predictions")
	}
	persistResults(store, registry)

	var wg sync.WaitGroup
	startMetricsServer(ctx, &wg, c)
	startModelServer(ctx, &wg, c, registry, ml.NewPredictor(registry, mw), store)

	waitForShutdown(ctx, cancel, &wg)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

var fitGate sync.Once

// fitOnce runs fit-all at most once per process.
func fitOnce(ctx context.Context, registry *ml.Registry) error {
	err := errors.New("fit-all already ran")
	fitGate.Do(func() {
		start := time.Now()
		log.Info().Msg("fitting all models")
		err = registry.FitAll(ctx)
		if err == nil {
			log.Info().
				Int("models", registry.ModelCount()).
				Dur("elapsed", time.Since(start)).
				Msg("models ready")
		}
	})
	return err
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
			return nil
		}
		return store
	}
	return nil
}

// persistResults records the evaluation snapshot of the fit that just ran.
func persistResults(store *storage.Store, registry *ml.Registry) {
	if store == nil {
		return
	}
	results, err := registry.Results(ml.Filter{})
	if err != nil {
		log.Warn().Err(err).Msg("failed to read results for persistence")
		return
	}
	snap := storage.ResultsSnapshot{
		RunID:    registry.RunID(),
		FittedAt: registry.FittedAt(),
		Results:  results,
	}
	if err := store.StoreResults(snap); err != nil {
		log.Warn().Err(err).Msg("failed to persist evaluation results")
		return
	}
	log.Info().Str("run_id", snap.RunID).Int("results", len(results)).Msg("evaluation results persisted")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startModelServer exposes the registry and predictor over HTTP
func startModelServer(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings, registry *ml.Registry, predictor ml.PredictorInterface, store *storage.Store) {
	var recorder ml.PredictionRecorder
	if store != nil {
		recorder = store
	}
	server := ml.NewModelServer(registry, predictor, recorder, c.APIPort)

	wg.Add(1)
	go func() {
		defer wg.Done()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown model server")
			}
		}()

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("model server failed")
		}
	}()
}

func cancelOnSignal(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}

// waitForShutdown waits for cancellation and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully...")
	cancel()

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all servers stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
