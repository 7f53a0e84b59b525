// Package config loads settings for the controller and worker from an
// optional YAML file and environment variables. Environment wins.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration values for the application.
type Config struct {
	StoreDriver       string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	// SeedJobsFile is a YAML job list loaded into the memory store at startup.
	SeedJobsFile string

	HTTPPort        int
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int

	JWTSecret string
	JWTIssuer string

	CacheDriver          string
	CacheSize            int
	RedisURL             string
	AnalyticsCacheTTL    time.Duration
	AnalyticsRefreshCron string

	ResumeDir        string
	ResumeMaxBytes   int64
	ResumePDFCommand string

	WorkerID                  string
	WorkerConcurrency         int
	WorkerPollInterval        time.Duration
	WorkerMaxBackoff          time.Duration
	WorkerHeartbeatInterval   time.Duration
	WorkerVisibilityExtension time.Duration

	OTELEndpoint     string
	TraceSampleRatio float64
	// Environment names the deployment (development, staging, production).
	Environment string
	LogLevel    string
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"store_driver":                "STORE_DRIVER",
	"database_url":                "DATABASE_URL",
	"db_max_open_conns":           "DB_MAX_OPEN_CONNS",
	"db_max_idle_conns":           "DB_MAX_IDLE_CONNS",
	"db_conn_max_lifetime":        "DB_CONN_MAX_LIFETIME",
	"seed_jobs_file":              "SEED_JOBS_FILE",
	"http_port":                   "PORT",
	"shutdown_timeout":            "SHUTDOWN_TIMEOUT",
	"rate_limit_rps":              "RATE_LIMIT_RPS",
	"rate_limit_burst":            "RATE_LIMIT_BURST",
	"jwt_secret":                  "JWT_SECRET",
	"jwt_issuer":                  "JWT_ISSUER",
	"cache_driver":                "CACHE_DRIVER",
	"cache_size":                  "CACHE_SIZE",
	"redis_url":                   "REDIS_URL",
	"analytics_cache_ttl":         "ANALYTICS_CACHE_TTL",
	"analytics_refresh_cron":      "ANALYTICS_REFRESH_CRON",
	"resume_dir":                  "RESUME_DIR",
	"resume_max_bytes":            "RESUME_MAX_BYTES",
	"resume_pdf_command":          "RESUME_PDF_COMMAND",
	"worker_id":                   "WORKER_ID",
	"worker_concurrency":          "WORKER_CONCURRENCY",
	"worker_poll_interval":        "WORKER_POLL_INTERVAL",
	"worker_max_backoff":          "WORKER_MAX_BACKOFF",
	"worker_heartbeat_interval":   "WORKER_HEARTBEAT_INTERVAL",
	"worker_visibility_extension": "WORKER_VISIBILITY_EXTENSION",
	"otel_endpoint":               "OTEL_EXPORTER_OTLP_ENDPOINT",
	"trace_sample_ratio":          "TRACE_SAMPLE_RATIO",
	"environment":                 "ENVIRONMENT",
	"log_level":                   "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_driver", StorePostgres)
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("http_port", 6161)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("jwt_issuer", "hiretrack")
	v.SetDefault("cache_driver", "memory")
	v.SetDefault("cache_size", 256)
	v.SetDefault("analytics_cache_ttl", 5*time.Minute)
	v.SetDefault("analytics_refresh_cron", "@every 5m")
	v.SetDefault("resume_dir", "./data/resumes")
	v.SetDefault("resume_max_bytes", 5<<20)
	v.SetDefault("worker_concurrency", 1)
	v.SetDefault("worker_poll_interval", 1*time.Second)
	v.SetDefault("worker_max_backoff", 30*time.Second)
	v.SetDefault("worker_heartbeat_interval", 2*time.Minute)
	v.SetDefault("worker_visibility_extension", 5*time.Minute)
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("trace_sample_ratio", 1.0)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from path (optional, YAML) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		StoreDriver:       v.GetString("store_driver"),
		DatabaseURL:       v.GetString("database_url"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		SeedJobsFile:      v.GetString("seed_jobs_file"),

		HTTPPort:        v.GetInt("http_port"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		RateLimitRPS:    v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:  v.GetInt("rate_limit_burst"),

		JWTSecret: v.GetString("jwt_secret"),
		JWTIssuer: v.GetString("jwt_issuer"),

		CacheDriver:          v.GetString("cache_driver"),
		CacheSize:            v.GetInt("cache_size"),
		RedisURL:             v.GetString("redis_url"),
		AnalyticsCacheTTL:    v.GetDuration("analytics_cache_ttl"),
		AnalyticsRefreshCron: v.GetString("analytics_refresh_cron"),

		ResumeDir:        v.GetString("resume_dir"),
		ResumeMaxBytes:   v.GetInt64("resume_max_bytes"),
		ResumePDFCommand: v.GetString("resume_pdf_command"),

		WorkerID:                  v.GetString("worker_id"),
		WorkerConcurrency:         v.GetInt("worker_concurrency"),
		WorkerPollInterval:        v.GetDuration("worker_poll_interval"),
		WorkerMaxBackoff:          v.GetDuration("worker_max_backoff"),
		WorkerHeartbeatInterval:   v.GetDuration("worker_heartbeat_interval"),
		WorkerVisibilityExtension: v.GetDuration("worker_visibility_extension"),

		OTELEndpoint:     v.GetString("otel_endpoint"),
		TraceSampleRatio: v.GetFloat64("trace_sample_ratio"),
		Environment:      v.GetString("environment"),
		LogLevel:         v.GetString("log_level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required (env: DATABASE_URL)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid store_driver %q: must be %q or %q", c.StoreDriver, StorePostgres, StoreMemory)
	}

	switch c.CacheDriver {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("redis_url is required when cache_driver is redis (env: REDIS_URL)")
		}
	default:
		return fmt.Errorf("invalid cache_driver %q: must be \"memory\" or \"redis\"", c.CacheDriver)
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.HTTPPort)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("worker_concurrency must be at least 1, got %d", c.WorkerConcurrency)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("trace_sample_ratio must be between 0 and 1, got %v", c.TraceSampleRatio)
	}
	if c.AnalyticsCacheTTL <= 0 {
		return fmt.Errorf("analytics_cache_ttl must be positive, got %v", c.AnalyticsCacheTTL)
	}
	return nil
}
