package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "SESSION_TTL", "KAFKA_BROKERS", "JOBS_PER_PAGE", "ADMIN_ENABLED", "SESSION_SWEEP_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != 8080 || cfg.StoreDriver != "sqlite" || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.JobsPerPage != 6 || cfg.KafkaBrokers != nil {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.AdminEnabled || cfg.SessionSweepInterval != 10*time.Minute {
		t.Errorf("admin routes must be off by default: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CEP_CACHE_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("ADMIN_ENABLED", "true")

	cfg := Load()
	if cfg.Port != 9090 || cfg.CEPCacheTTL != time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid int should fall back, got %d", cfg.MaxRetries)
	}
	if !cfg.AdminEnabled {
		t.Error("expected ADMIN_ENABLED=true to mount the admin routes")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("# local\nLOG_LEVEL=debug\nVIACEP_URL=\"http://cep.local\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("VIACEP_URL", "")
	os.Unsetenv("VIACEP_URL")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "warn" {
		t.Errorf("environment must win, got %q", got)
	}
	if got := os.Getenv("VIACEP_URL"); got != "http://cep.local" {
		t.Errorf("expected value from file, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
