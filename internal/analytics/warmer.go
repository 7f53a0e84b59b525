package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes the cached snapshots every five minutes.
const DefaultSchedule = "@every 5m"

// Warmer periodically recomputes cached analytics so dashboard reads stay hits.
type Warmer struct {
	agg     *Aggregator
	cron    *cron.Cron
	log     *slog.Logger
	timeout time.Duration
}

// NewWarmer schedules agg.Refresh on schedule (cron syntax or @every).
func NewWarmer(agg *Aggregator, schedule string, log *slog.Logger) (*Warmer, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Warmer{
		agg:     agg,
		cron:    cron.New(),
		log:     log,
		timeout: 30 * time.Second,
	}
	if _, err := w.cron.AddFunc(schedule, w.refresh); err != nil {
		return nil, fmt.Errorf("invalid analytics refresh schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start runs an initial refresh and starts the schedule.
func (w *Warmer) Start() {
	go w.refresh()
	w.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx to end.
func (w *Warmer) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (w *Warmer) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.agg.Refresh(ctx); err != nil {
		w.log.Warn("analytics refresh failed", "error", err)
		return
	}
	w.log.Debug("analytics refreshed", "duration", time.Since(start))
}
