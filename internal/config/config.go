package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port            string
	SessionIdleTTL  time.Duration
	ShutdownTimeout time.Duration
	// Storage
	Storage     string
	DatabaseURL string
	// Rates provider
	Provider        string
	ExchangeAPIBase string
	ExchangeAPIKey  string
	RatesTTL        time.Duration
	FakeRates       string
	// Pricing RPC
	PricingURL     string
	PricingAPIKey  string
	PricingTimeout time.Duration
	// Cal.com
	CalcomURL      string
	CalcomAPIKey   string
	CalcomUsername string
	CalcomTimeout  time.Duration
	// Worker
	WorkerPoll        time.Duration
	WorkerMetricsPort string
	// Redis (rates cache, idempotency)
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyBackend string
	RedisTTL           time.Duration
	// Metrics
	MetricsEnabled bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durMS(key string, def int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, ""), def)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	metrics, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		metrics = true
	}
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		SessionIdleTTL:     durMS("SESSION_IDLE_TTL_MS", 2*60*60*1000),
		ShutdownTimeout:    durMS("SHUTDOWN_TIMEOUT_MS", 10000),
		Storage:            getEnv("STORAGE", "pg"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Provider:           getEnv("PROVIDER", "fake"),
		ExchangeAPIBase:    getEnv("EXCHANGE_API_BASE", "https://api.exchangeratesapi.io"),
		ExchangeAPIKey:     getEnv("EXCHANGE_API_KEY", ""),
		RatesTTL:           durMS("RATES_TTL_MS", 60*60*1000),
		FakeRates:          getEnv("FAKE_RATES", ""),
		PricingURL:         getEnv("PRICING_URL", ""),
		PricingAPIKey:      getEnv("PRICING_API_KEY", ""),
		PricingTimeout:     durMS("PRICING_TIMEOUT_MS", 5000),
		CalcomURL:          getEnv("CALCOM_URL", "https://api.cal.com"),
		CalcomAPIKey:       getEnv("CALCOM_API_KEY", ""),
		CalcomUsername:     getEnv("CALCOM_USERNAME", ""),
		CalcomTimeout:      durMS("CALCOM_TIMEOUT_MS", 8000),
		WorkerPoll:         durMS("WORKER_POLL_MS", 15*60*1000),
		WorkerMetricsPort:  getEnv("WORKER_METRICS_PORT", "9091"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "redis"),
		RedisTTL:           durMS("IDEMPOTENCY_TTL_MS", 86400000),
		MetricsEnabled:     metrics,
	}
}
