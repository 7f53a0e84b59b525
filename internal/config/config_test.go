package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hiretrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
	if err.Error() != "database_url is required (env: DATABASE_URL)" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_MemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Errorf("expected memory driver, got %s", cfg.StoreDriver)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 6161 {
		t.Errorf("expected HTTPPort 6161, got %d", cfg.HTTPPort)
	}
	if cfg.StoreDriver != StorePostgres {
		t.Errorf("expected StoreDriver postgres, got %s", cfg.StoreDriver)
	}
	if cfg.WorkerConcurrency != 1 {
		t.Errorf("expected WorkerConcurrency 1, got %d", cfg.WorkerConcurrency)
	}
	if cfg.WorkerPollInterval != 1*time.Second {
		t.Errorf("expected WorkerPollInterval 1s, got %v", cfg.WorkerPollInterval)
	}
	if cfg.WorkerMaxBackoff != 30*time.Second {
		t.Errorf("expected WorkerMaxBackoff 30s, got %v", cfg.WorkerMaxBackoff)
	}
	if cfg.WorkerHeartbeatInterval != 2*time.Minute {
		t.Errorf("expected WorkerHeartbeatInterval 2m, got %v", cfg.WorkerHeartbeatInterval)
	}
	if cfg.WorkerVisibilityExtension != 5*time.Minute {
		t.Errorf("expected WorkerVisibilityExtension 5m, got %v", cfg.WorkerVisibilityExtension)
	}
	if cfg.CacheDriver != "memory" {
		t.Errorf("expected CacheDriver memory, got %s", cfg.CacheDriver)
	}
	if cfg.AnalyticsCacheTTL != 5*time.Minute {
		t.Errorf("expected AnalyticsCacheTTL 5m, got %v", cfg.AnalyticsCacheTTL)
	}
	if cfg.AnalyticsRefreshCron != "@every 5m" {
		t.Errorf("expected AnalyticsRefreshCron @every 5m, got %s", cfg.AnalyticsRefreshCron)
	}
	if cfg.ResumeMaxBytes != 5<<20 {
		t.Errorf("expected ResumeMaxBytes 5MiB, got %d", cfg.ResumeMaxBytes)
	}
	if cfg.OTELEndpoint != "localhost:4317" {
		t.Errorf("expected OTELEndpoint localhost:4317, got %s", cfg.OTELEndpoint)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel info, got %s", cfg.LogLevel)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected Environment development, got %s", cfg.Environment)
	}
	if cfg.TraceSampleRatio != 1.0 {
		t.Errorf("expected TraceSampleRatio 1, got %v", cfg.TraceSampleRatio)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://custom/db")
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_CONCURRENCY", "5")
	t.Setenv("WORKER_POLL_INTERVAL", "2s")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("ANALYTICS_CACHE_TTL", "90s")
	t.Setenv("RESUME_PDF_COMMAND", "pdftotext - -")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://custom/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("expected HTTPPort 9999, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 5 {
		t.Errorf("expected WorkerConcurrency 5, got %d", cfg.WorkerConcurrency)
	}
	if cfg.WorkerPollInterval != 2*time.Second {
		t.Errorf("expected WorkerPollInterval 2s, got %v", cfg.WorkerPollInterval)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("expected JWTSecret from env, got %s", cfg.JWTSecret)
	}
	if cfg.CacheDriver != "redis" || cfg.RedisURL != "redis://cache:6379/0" {
		t.Errorf("expected redis cache, got %s %s", cfg.CacheDriver, cfg.RedisURL)
	}
	if cfg.AnalyticsCacheTTL != 90*time.Second {
		t.Errorf("expected AnalyticsCacheTTL 90s, got %v", cfg.AnalyticsCacheTTL)
	}
	if cfg.ResumePDFCommand != "pdftotext - -" {
		t.Errorf("expected ResumePDFCommand from env, got %s", cfg.ResumePDFCommand)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("expected OTELEndpoint otel-collector:4317, got %s", cfg.OTELEndpoint)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel debug, got %s", cfg.LogLevel)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected Environment staging, got %s", cfg.Environment)
	}
	if cfg.TraceSampleRatio != 0.2 {
		t.Errorf("expected TraceSampleRatio 0.2, got %v", cfg.TraceSampleRatio)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"unknown cache driver", map[string]string{"CACHE_DRIVER": "memcached"}},
		{"redis without url", map[string]string{"CACHE_DRIVER": "redis", "REDIS_URL": ""}},
		{"zero concurrency", map[string]string{"WORKER_CONCURRENCY": "0"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"sample ratio above one", map[string]string{"TRACE_SAMPLE_RATIO": "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
database_url: "postgres://config-file/db"
http_port: 7777
worker_concurrency: 10
analytics_refresh_cron: "*/10 * * * *"
seed_jobs_file: ./jobs.yaml
`)

	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://config-file/db" {
		t.Errorf("expected DatabaseURL from config file, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 7777 {
		t.Errorf("expected HTTPPort 7777, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 10 {
		t.Errorf("expected WorkerConcurrency 10, got %d", cfg.WorkerConcurrency)
	}
	if cfg.AnalyticsRefreshCron != "*/10 * * * *" {
		t.Errorf("expected cron from file, got %s", cfg.AnalyticsRefreshCron)
	}
	if cfg.SeedJobsFile != "./jobs.yaml" {
		t.Errorf("expected SeedJobsFile from file, got %s", cfg.SeedJobsFile)
	}
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	path := writeConfig(t, `
database_url: "postgres://from-file/db"
http_port: 7777
`)

	t.Setenv("DATABASE_URL", "postgres://from-env/db")
	t.Setenv("PORT", "8888")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://from-env/db" {
		t.Errorf("expected DatabaseURL from env, got %s", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != 8888 {
		t.Errorf("expected HTTPPort 8888 from env, got %d", cfg.HTTPPort)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	if _, err := Load("/nonexistent/path/to/config.yaml"); err == nil {
		t.Error("expected error for nonexistent config file")
	}
}
