package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Persistence
	StoreDriver string // sqlite | postgres
	StoreDSN    string

	// External services
	ViaCEPURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL    time.Duration
	CEPCacheTTL time.Duration

	// Sessions
	SessionTTL           time.Duration
	SessionSecret        string
	SessionSweepInterval time.Duration

	// Admin mounts /v1/admin/import and /v1/admin/export.
	AdminEnabled bool

	// Observability
	OTLPEndpoint string

	// Events
	KafkaBrokers []string
	KafkaTopic   string

	// Listings
	JobsPerPage    int
	CoursesPerPage int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		StoreDSN:    getEnv("STORE_DSN", "jobflow.db"),

		ViaCEPURL: getEnv("VIACEP_URL", "https://viacep.com.br"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 5*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),
		CEPCacheTTL: getEnvDuration("CEP_CACHE_TTL", 24*time.Hour),

		SessionTTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionSecret:        getEnv("SESSION_SECRET", "jobflow-dev-secret-change-me"),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),

		AdminEnabled: getEnvBool("ADMIN_ENABLED", false),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "jobflow.events"),

		JobsPerPage:    getEnvInt("JOBS_PER_PAGE", 6),
		CoursesPerPage: getEnvInt("COURSES_PER_PAGE", 6),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
