package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/config"
	"github.com/Brownie44l1/plant-disease-api/internal/diagnosis"
	"github.com/Brownie44l1/plant-disease-api/internal/handlers"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
	"github.com/Brownie44l1/plant-disease-api/internal/logging"
	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
	"github.com/Brownie44l1/plant-disease-api/internal/records"
)

const serviceName = "plant-disease-api"

func main() {
	root, err := os.Getwd()
	if err != nil {
		slog.Error("failed to get working directory", "error", err)
		os.Exit(1)
	}
	// If running from cmd/server, go up two levels
	if filepath.Base(root) == "server" {
		root = filepath.Join(root, "../..")
	}

	cfg := config.Load(root)
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel, cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.Default()
	m := metrics.NewMetrics(serviceName)

	logger.Info("loading model", "model_path", cfg.ModelPath, "metadata_path", cfg.MetadataPath)
	classifier := model.NewClassifier(model.ONNXLoader(model.Options{
		ModelPath:         cfg.ModelPath,
		MetadataPath:      cfg.MetadataPath,
		SharedLibraryPath: cfg.ONNXLibraryPath,
	}), cat, logger)
	defer classifier.Close()

	// A failed load keeps the server up so every request reports it.
	if err := classifier.Load(); err != nil {
		logger.Error("model unavailable, predictions will fail until redeployed", "error", err)
	}
	m.SetModelLoaded(classifier.Ready())

	pipeline := diagnosis.NewPipeline(imaging.NewNormalizer(cfg.MaxImagePixels), classifier, cat, m, logger)
	store := records.NewStore()

	handler := handlers.NewHandler(pipeline, classifier, store, m, handlers.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		EnableRawTensorAPI: cfg.EnableRawTensorAPI,
	}, logger)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.Routes(handlers.RouterOptions{
			CORSAllowOrigin:  cfg.CORSAllowOrigin,
			PredictRateRPS:   cfg.PredictRateRPS,
			PredictRateBurst: cfg.PredictRateBurst,
			MetricsHandler:   m.Handler(),
			Middleware:       m.Middleware,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.Port,
			"classes", cat.Len(),
			"model_loaded", classifier.Ready(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}
