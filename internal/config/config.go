package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port     string
	LogLevel string
	Env      string

	ModelPath          string
	MetadataPath       string
	ONNXLibraryPath    string
	MaxUploadBytes     int64
	MaxImagePixels     int
	PredictRateRPS     float64
	PredictRateBurst   int
	CORSAllowOrigin    string
	EnableRawTensorAPI bool
}

// Load reads configuration from the environment. Relative model paths are
// resolved against root.
func Load(root string) Config {
	cfg := Config{
		Port:     mustEnv("PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),
		Env:      mustEnv("ENV", "development"),

		ModelPath:          mustEnv("MODEL_PATH", filepath.Join("models", "plant_disease.onnx")),
		MetadataPath:       mustEnv("METADATA_PATH", filepath.Join("models", "model_metadata.json")),
		ONNXLibraryPath:    mustEnv("ONNX_LIB_PATH", ""),
		MaxUploadBytes:     int64(mustEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MaxImagePixels:     mustEnvInt("MAX_IMAGE_PIXELS", 40_000_000),
		PredictRateRPS:     mustEnvFloat("PREDICT_RATE_LIMIT_RPS", 5),
		PredictRateBurst:   mustEnvInt("PREDICT_RATE_LIMIT_BURST", 10),
		CORSAllowOrigin:    mustEnv("CORS_ALLOW_ORIGIN", "*"),
		EnableRawTensorAPI: mustEnvBool("ENABLE_RAW_TENSOR_API", true),
	}

	if root != "" {
		if !filepath.IsAbs(cfg.ModelPath) {
			cfg.ModelPath = filepath.Join(root, cfg.ModelPath)
		}
		if !filepath.IsAbs(cfg.MetadataPath) {
			cfg.MetadataPath = filepath.Join(root, cfg.MetadataPath)
		}
	}
	return cfg
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
