package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	SERVICE_NAME                string
	SERVICE_VERSION             string
	ENVIRONMENT                 string
	OTEL_EXPORTER_OTLP_ENDPOINT string
	LOG_LEVEL                   string
	METRIC_INTERVAL             time.Duration
	TRACE_SAMPLE_RATIO          float64
	RUNTIME_METRICS             bool
	REQUESTS_METRIC             bool
	DEV_MODE                    bool
	TELEMETRY_ENABLED           bool
	SERVER_PORT                 string
	CORS_ALLOW_ORIGINS          string
	REDIS_ENABLED               bool
	REDIS_ADDRESS               string
	REDIS_PASSWORD              string
	REDIS_DB                    int
	RATE_LIMIT_REQUESTS         int
	RATE_LIMIT_WINDOW           time.Duration
	QUOTE_CACHE_TTL             time.Duration
	REQUEST_TIMEOUT             time.Duration
	SHUTDOWN_TIMEOUT            time.Duration
}

func LoadConfig() (*Config, error) {
	// Helper function to get environment variable with default value
	Env := func(key, defaultValue string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	// Helper function to parse Duration from environment variable
	Duration := func(key string, defaultValue time.Duration) time.Duration {
		if value := os.Getenv(key); value != "" {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	// Helper function to parse boolean from environment variable
	Bool := func(key string, defaultValue bool) bool {
		if value := os.Getenv(key); value != "" {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}

	Int := func(key string, defaultValue int) int {
		if value := os.Getenv(key); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	Float := func(key string, defaultValue float64) float64 {
		if value := os.Getenv(key); value != "" {
			if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
				return floatValue
			}
		}
		return defaultValue
	}

	config := &Config{
		SERVICE_NAME:                Env("SERVICE_NAME", "loan-eligibility"),
		SERVICE_VERSION:             Env("SERVICE_VERSION", "1.0.0"),
		ENVIRONMENT:                 Env("ENVIRONMENT", "production"),
		OTEL_EXPORTER_OTLP_ENDPOINT: Env("OTEL_EXPORTER_OTLP_ENDPOINT", "0.0.0.0:4317"),
		LOG_LEVEL:                   Env("LOG_LEVEL", "info"),
		METRIC_INTERVAL:             Duration("METRIC_INTERVAL", 15*time.Second),
		TRACE_SAMPLE_RATIO:          Float("TRACE_SAMPLE_RATIO", 0.1),
		RUNTIME_METRICS:             Bool("RUNTIME_METRICS", true),
		REQUESTS_METRIC:             Bool("REQUESTS_METRIC", true),
		DEV_MODE:                    Bool("DEV_MODE", false),
		TELEMETRY_ENABLED:           Bool("TELEMETRY_ENABLED", true),
		SERVER_PORT:                 Env("SERVER_PORT", "3001"),
		CORS_ALLOW_ORIGINS:          Env("CORS_ALLOW_ORIGINS", "*"),
		REDIS_ENABLED:               Bool("REDIS_ENABLED", false),
		REDIS_ADDRESS:               Env("REDIS_ADDRESS", "localhost:6379"),
		REDIS_PASSWORD:              Env("REDIS_PASSWORD", ""),
		REDIS_DB:                    Int("REDIS_DB", 0),
		RATE_LIMIT_REQUESTS:         Int("RATE_LIMIT_REQUESTS", 100),
		RATE_LIMIT_WINDOW:           Duration("RATE_LIMIT_WINDOW", 15*time.Minute),
		QUOTE_CACHE_TTL:             Duration("QUOTE_CACHE_TTL", 10*time.Minute),
		REQUEST_TIMEOUT:             Duration("REQUEST_TIMEOUT", 10*time.Second),
		SHUTDOWN_TIMEOUT:            Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if _, err := strconv.Atoi(config.SERVER_PORT); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", config.SERVER_PORT, err)
	}
	if config.RATE_LIMIT_REQUESTS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", config.RATE_LIMIT_REQUESTS)
	}

	return config, nil
}
