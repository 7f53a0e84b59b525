// Package main is the entry point for the hiretrack resume worker.
// It drains the parse queue and enriches uploaded resumes.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"hiretrack/internal/config"
	"hiretrack/internal/logger"
	"hiretrack/internal/observability"
	"hiretrack/internal/resume"
	"hiretrack/internal/store/driver"
	"hiretrack/internal/worker"

	"github.com/joho/godotenv"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file (YAML)")
	metricsAddr := flag.String("metrics-addr", ":6162", "Address of the worker metrics listener")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoreDriver != config.StorePostgres {
		log.Fatalf("The worker needs store_driver=%s; the memory store is drained by the controller itself", config.StorePostgres)
	}
	slogger := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := driver.Open(ctx, cfg, driver.Options{Logger: slogger})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:   "hiretrack-worker",
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

	blobs, err := resume.NewLocalBlobStore(cfg.ResumeDir, cfg.ResumeMaxBytes)
	if err != nil {
		log.Fatalf("Failed to open resume storage: %v", err)
	}
	if cfg.ResumePDFCommand == "" {
		slogger.Warn("resume_pdf_command is empty; PDF resumes will be marked failed")
	}

	agent := worker.New(backend, backend, resume.NewDefaultProcessor(backend, blobs, cfg.ResumePDFCommand), worker.AgentConfig{
		ID:                  cfg.WorkerID,
		Concurrency:         cfg.WorkerConcurrency,
		PollInterval:        cfg.WorkerPollInterval,
		MaxBackoff:          cfg.WorkerMaxBackoff,
		HeartbeatInterval:   cfg.WorkerHeartbeatInterval,
		VisibilityExtension: cfg.WorkerVisibilityExtension,
	}, slogger)

	slogger.Info("worker started", "concurrency", cfg.WorkerConcurrency)
	go agent.Run(ctx)

	// Start a dedicated metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		slogger.Info("worker metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			slogger.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogger.Info("shutting down worker")
	cancel()

	<-agent.Done()
}
