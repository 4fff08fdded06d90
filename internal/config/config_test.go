package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "ENV", "MODEL_PATH", "METADATA_PATH", "MAX_UPLOAD_BYTES", "PREDICT_RATE_LIMIT_RPS", "ENABLE_RAW_TENSOR_API"} {
		t.Setenv(key, "")
	}

	cfg := Load("/srv/app")
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ModelPath != filepath.Join("/srv/app", "models", "plant_disease.onnx") {
		t.Fatalf("unexpected model path %q", cfg.ModelPath)
	}
	if cfg.MetadataPath != filepath.Join("/srv/app", "models", "model_metadata.json") {
		t.Fatalf("unexpected metadata path %q", cfg.MetadataPath)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.PredictRateRPS != 5 || cfg.PredictRateBurst != 10 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.PredictRateRPS, cfg.PredictRateBurst)
	}
	if !cfg.EnableRawTensorAPI {
		t.Fatalf("expected raw tensor api enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_PATH", "/opt/models/leaf.onnx")
	t.Setenv("METADATA_PATH", "meta/leaf.json")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PREDICT_RATE_LIMIT_RPS", "0.5")
	t.Setenv("ENABLE_RAW_TENSOR_API", "false")

	cfg := Load("/srv/app")
	if cfg.Port != "9000" {
		t.Fatalf("expected port override, got %q", cfg.Port)
	}
	if cfg.ModelPath != "/opt/models/leaf.onnx" {
		t.Fatalf("absolute model path should be kept, got %q", cfg.ModelPath)
	}
	if cfg.MetadataPath != filepath.Join("/srv/app", "meta", "leaf.json") {
		t.Fatalf("relative metadata path should be rooted, got %q", cfg.MetadataPath)
	}
	if cfg.MaxUploadBytes != 1024 || cfg.PredictRateRPS != 0.5 || cfg.EnableRawTensorAPI {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_IMAGE_PIXELS", "lots")
	t.Setenv("PREDICT_RATE_LIMIT_BURST", "x")

	cfg := Load("")
	if cfg.MaxImagePixels != 40_000_000 || cfg.PredictRateBurst != 10 {
		t.Fatalf("expected fallbacks, got %d/%d", cfg.MaxImagePixels, cfg.PredictRateBurst)
	}
}
