// Package main is the entry point for the hiretrack controller (HTTP API).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hiretrack/internal/analytics"
	"hiretrack/internal/auth"
	"hiretrack/internal/cache"
	"hiretrack/internal/config"
	"hiretrack/internal/controller"
	"hiretrack/internal/controller/handlers"
	"hiretrack/internal/controller/middleware"
	"hiretrack/internal/logger"
	"hiretrack/internal/observability"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/resume"
	"hiretrack/internal/store/driver"
	"hiretrack/internal/worker"

	"github.com/joho/godotenv"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Parse()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	slogger := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	backend, err := driver.Open(ctx, cfg, driver.Options{Migrate: *migrateFlag, Logger: slogger})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:   "hiretrack-controller",
		Version:       version,
		Environment:   cfg.Environment,
		CollectorAddr: cfg.OTELEndpoint,
		SampleRatio:   cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()
	if _, err := observability.RegisterQueueDepth(backend.Count); err != nil {
		slogger.Warn("failed to register queue depth metric", "error", err)
	}

	// Analytics cache and warmer
	analyticsCache, err := cache.New(cache.Config{
		Driver:   cfg.CacheDriver,
		RedisURL: cfg.RedisURL,
		Size:     cfg.CacheSize,
		TTL:      cfg.AnalyticsCacheTTL,
	})
	if err != nil {
		log.Fatalf("Failed to init cache: %v", err)
	}
	if c, ok := analyticsCache.(io.Closer); ok {
		defer c.Close()
	}
	aggregator := analytics.New(backend, analyticsCache,
		analytics.WithTTL(cfg.AnalyticsCacheTTL),
		analytics.WithLogger(slogger),
	)
	warmer, err := analytics.NewWarmer(aggregator, cfg.AnalyticsRefreshCron, slogger)
	if err != nil {
		log.Fatalf("Failed to schedule analytics refresh: %v", err)
	}
	warmer.Start()
	defer warmer.Stop(context.Background())

	// Resumes
	blobs, err := resume.NewLocalBlobStore(cfg.ResumeDir, cfg.ResumeMaxBytes)
	if err != nil {
		log.Fatalf("Failed to init resume storage: %v", err)
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Fatalf("Failed to init auth: %v (env: JWT_SECRET)", err)
	}

	checks := map[string]handlers.Pinger{"store": backend}
	if p, ok := analyticsCache.(handlers.Pinger); ok {
		checks["cache"] = p
	}

	h := handlers.New(handlers.Deps{
		Engine:         pipeline.New(backend, backend, backend, pipeline.WithLogger(slogger)),
		Analytics:      aggregator,
		Resumes:        backend,
		Blobs:          blobs,
		Checks:         checks,
		MaxUploadBytes: cfg.ResumeMaxBytes,
		Logger:         slogger,
	})

	// The memory store lives in this process, so nothing else can drain its parse queue.
	var embedded *worker.Agent
	if cfg.StoreDriver == config.StoreMemory {
		embedded = worker.New(backend, backend, resume.NewDefaultProcessor(backend, blobs, cfg.ResumePDFCommand), worker.AgentConfig{
			ID:                  "embedded",
			Concurrency:         cfg.WorkerConcurrency,
			PollInterval:        cfg.WorkerPollInterval,
			MaxBackoff:          cfg.WorkerMaxBackoff,
			HeartbeatInterval:   cfg.WorkerHeartbeatInterval,
			VisibilityExtension: cfg.WorkerVisibilityExtension,
		}, slogger)
		go embedded.Run(ctx)
	}

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, controller.NewHandler(controller.Routes{
		Handlers: h,
		Verifier: tokens,
		Limiter:  middleware.NewRateLimiter(middleware.WithLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		Metrics:  metricsHandler,
		Logger:   slogger,
	}))

	slogger.Info("hiretrack controller starting", "version", version, "addr", addr, "store", cfg.StoreDriver, "cache", cfg.CacheDriver)
	if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	if embedded != nil {
		<-embedded.Done()
	}
	slogger.Info("controller exited")
}
