// Package worker runs the resume intake loop: it claims queued resumes,
// extracts their metadata and records the outcome.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hiretrack/internal/resume"
	"hiretrack/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID                  string
	Concurrency         int
	PollInterval        time.Duration
	MaxBackoff          time.Duration // Maximum backoff when queue is empty (default: 30s)
	HeartbeatInterval   time.Duration // Interval between heartbeat calls (default: 2m)
	VisibilityExtension time.Duration // How long to extend visibility on heartbeat (default: 5m)
	ParseTimeout        time.Duration // Upper bound for one resume (default: 2m)
}

// Processor parses one resume.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) (*store.ParsedContent, error)
}

// Agent is the pull-loop that drains the resume parse queue.
type Agent struct {
	queue     store.ParseQueue
	resumes   store.ResumeStore
	processor Processor
	config    AgentConfig
	log       *slog.Logger
	tracer    trace.Tracer
	parsed    metric.Int64Counter
	done      chan struct{}
}

// New creates a new worker agent.
func New(q store.ParseQueue, resumes store.ResumeStore, p Processor, config AgentConfig, log *slog.Logger) *Agent {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 2 * time.Minute
	}
	if config.VisibilityExtension <= 0 {
		config.VisibilityExtension = store.VisibilityTimeout
	}
	if config.ParseTimeout <= 0 {
		config.ParseTimeout = 2 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	a := &Agent{
		queue:     q,
		resumes:   resumes,
		processor: p,
		config:    config,
		log:       log.With("worker_id", config.ID),
		tracer:    otel.Tracer("hiretrack/worker"),
		done:      make(chan struct{}),
	}
	a.parsed, _ = otel.Meter("hiretrack/worker").Int64Counter("resume_parse_total",
		metric.WithDescription("Resume parse attempts by outcome"))
	return a
}

// Run starts the main pull-loop. It blocks until the context is cancelled.
// On cancellation it stops claiming new work and lets in-flight parses finish.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("worker starting", "concurrency", a.config.Concurrency)

	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	// Signals that a slot became available.
	pollNow := make(chan struct{}, 1)

	// Grows while the queue is empty, resets when work is found.
	currentBackoff := a.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
		}
	}

	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("worker stopping, waiting for in-flight parses")
			wg.Wait()
			close(a.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			availableSlots := a.config.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			items, err := a.queue.DequeueBatch(ctx, availableSlots)
			if err != nil {
				if ctx.Err() == nil {
					a.log.Error("dequeue failed", "error", err)
				}
				continue
			}

			if len(items) == 0 {
				currentBackoff *= 2
				if currentBackoff > a.config.MaxBackoff {
					currentBackoff = a.config.MaxBackoff
				}
				continue
			}

			currentBackoff = a.config.PollInterval
			a.log.Debug("claimed resumes", "count", len(items))

			for _, item := range items {
				sem <- struct{}{}

				wg.Add(1)
				go func(item store.QueueItem) {
					defer wg.Done()
					defer func() {
						<-sem
						triggerPoll()
					}()
					a.processItem(item)
				}(item)
			}

			if len(items) < availableSlots {
				triggerPoll()
			}
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// processItem parses one claimed resume. It runs on its own context so a
// shutdown drains in-flight work instead of abandoning it.
func (a *Agent) processItem(item store.QueueItem) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.ParseTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "resume.parse",
		trace.WithAttributes(
			attribute.String("resume.id", item.ResumeID.String()),
			attribute.Int("queue.attempt", item.Attempt),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	log := a.log.With("resume_id", item.ResumeID, "attempt", item.Attempt)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go a.runHeartbeat(heartbeatCtx, item.ResumeID)

	parsed, err := a.processor.Process(ctx, item.ResumeID)
	if err == nil {
		span.SetAttributes(attribute.Int("resume.skills", len(parsed.Skills)))
		if err := a.queue.Complete(context.Background(), item.ResumeID); err != nil {
			log.Error("failed to complete queue item", "error", err)
		}
		a.count(ctx, "parsed")
		log.Info("resume parsed", "skills", len(parsed.Skills), "education", len(parsed.Education))
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, store.ErrNotFound) || errors.Is(err, resume.ErrUnsupported) {
		log.Warn("resume cannot be parsed", "error", err)
		a.giveUp(item.ResumeID, log)
		if err := a.queue.Complete(context.Background(), item.ResumeID); err != nil {
			log.Error("failed to drop queue item", "error", err)
		}
		return
	}

	exhausted, ferr := a.queue.Fail(context.Background(), item.ResumeID, err.Error())
	if ferr != nil {
		log.Error("failed to record parse failure", "error", ferr, "cause", err)
		return
	}
	if exhausted {
		log.Warn("resume parse retries exhausted", "error", err)
		a.giveUp(item.ResumeID, log)
		return
	}
	a.count(ctx, "retry")
	log.Warn("resume parse failed, will retry", "error", err)
}

func (a *Agent) giveUp(id uuid.UUID, log *slog.Logger) {
	a.count(context.Background(), "failed")
	if err := a.resumes.MarkResumeParseFailed(context.Background(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to mark resume as failed", "error", err)
	}
}

func (a *Agent) count(ctx context.Context, outcome string) {
	a.parsed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// runHeartbeat pushes the visibility timeout forward while a resume is being parsed.
func (a *Agent) runHeartbeat(ctx context.Context, id uuid.UUID) {
	ticker := time.NewTicker(a.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			visibleAfter := time.Now().Add(a.config.VisibilityExtension)
			if err := a.queue.SetVisibleAfter(context.Background(), id, visibleAfter); err != nil {
				a.log.Warn("heartbeat failed", "resume_id", id, "error", err)
			}
		}
	}
}
