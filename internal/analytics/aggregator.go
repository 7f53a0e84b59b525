// Package analytics computes read-only snapshots of the hiring pipeline.
// Snapshots are derived on demand and cached for a bounded TTL; they are
// never persisted and may lag the pipeline by up to that TTL.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hiretrack/internal/cache"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTTL bounds how stale a cached snapshot may be.
	DefaultTTL = 5 * time.Minute
	// MaxTrendDays is the longest window Trend accepts.
	MaxTrendDays = 366
)

const (
	recentLimit      = 5
	unassignedKey    = "unassigned"
	dateLayout       = "2006-01-02"
	defaultTrendDays = 30
)

// StatusBucket is the number of applications currently in Status.
type StatusBucket struct {
	Status store.Status `json:"status"`
	Count  int64        `json:"count"`
}

// Distribution reports every canonical status, zero-filled, in pipeline order.
type Distribution struct {
	Statuses []StatusBucket `json:"statuses"`
	Total    int64          `json:"total"`
}

// Count returns the bucket for s.
func (d Distribution) Count(s store.Status) int64 {
	for _, b := range d.Statuses {
		if b.Status == s {
			return b.Count
		}
	}
	return 0
}

// DailyCount is the number of applications created on Date (YYYY-MM-DD, UTC).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Bucket is one group of jobs and the applications they received.
type Bucket struct {
	Key          string `json:"key"`
	Jobs         int64  `json:"jobs"`
	Applications int64  `json:"applications"`
}

// Breakdown groups jobs three ways.
type Breakdown struct {
	ByDepartment     []Bucket `json:"by_department"`
	ByLocation       []Bucket `json:"by_location"`
	ByEmploymentType []Bucket `json:"by_employment_type"`
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalJobs          int64               `json:"total_jobs"`
	TotalApplications  int64               `json:"total_applications"`
	Distribution       Distribution        `json:"status_distribution"`
	RecentApplications []store.Application `json:"recent_applications"`
}

// Aggregator answers analytics queries through a read-through cache.
type Aggregator struct {
	src    store.AnalyticsSource
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
	tracer trace.Tracer
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTTL sets how long snapshots stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New creates an Aggregator. A nil cache disables caching.
func New(src store.AnalyticsSource, c cache.Cache, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:    src,
		cache:  c,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    slog.Default(),
		tracer: otel.Tracer("hiretrack/analytics"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StatusDistribution counts applications by current status.
func (a *Aggregator) StatusDistribution(ctx context.Context) (Distribution, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.status_distribution")
	defer span.End()

	d, err := cache.Remember(ctx, a.cache, "analytics:status_distribution", a.ttl, a.log, a.computeDistribution)
	return d, endSpan(span, err)
}

// Trend returns per-day application counts for [start, end], both days inclusive.
func (a *Aggregator) Trend(ctx context.Context, start, end time.Time) ([]DailyCount, error) {
	from, to := day(start), day(end)
	if to.Before(from) {
		return nil, pipeline.NewError(pipeline.KindValidation, "end date is before start date", nil)
	}
	if days := int(to.Sub(from)/(24*time.Hour)) + 1; days > MaxTrendDays {
		return nil, pipeline.NewError(pipeline.KindValidation, fmt.Sprintf("trend window must not exceed %d days", MaxTrendDays), nil)
	}

	ctx, span := a.tracer.Start(ctx, "analytics.trend", trace.WithAttributes(
		attribute.String("trend.from", from.Format(dateLayout)),
		attribute.String("trend.to", to.Format(dateLayout)),
	))
	defer span.End()

	key := fmt.Sprintf("analytics:trend:%s:%s", from.Format(dateLayout), to.Format(dateLayout))
	trend, err := cache.Remember(ctx, a.cache, key, a.ttl, a.log, func(ctx context.Context) ([]DailyCount, error) {
		return a.computeTrend(ctx, from, to)
	})
	return trend, endSpan(span, err)
}

// RecentTrend is Trend over the last n days ending today.
func (a *Aggregator) RecentTrend(ctx context.Context, n int) ([]DailyCount, error) {
	if n <= 0 {
		n = defaultTrendDays
	}
	end := a.now()
	return a.Trend(ctx, end.AddDate(0, 0, -(n - 1)), end)
}

// JobBreakdown groups jobs by department, location and employment type.
func (a *Aggregator) JobBreakdown(ctx context.Context) (Breakdown, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.job_breakdown")
	defer span.End()

	b, err := cache.Remember(ctx, a.cache, "analytics:job_breakdown", a.ttl, a.log, a.computeBreakdown)
	return b, endSpan(span, err)
}

// Overview returns the admin dashboard summary.
func (a *Aggregator) Overview(ctx context.Context) (Overview, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.overview")
	defer span.End()

	o, err := cache.Remember(ctx, a.cache, "analytics:overview", a.ttl, a.log, a.computeOverview)
	return o, endSpan(span, err)
}

// Refresh recomputes the cached snapshots. Used by the Warmer.
func (a *Aggregator) Refresh(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}

	d, err := a.computeDistribution(ctx)
	if err != nil {
		return err
	}
	b, err := a.computeBreakdown(ctx)
	if err != nil {
		return err
	}
	o, err := a.computeOverview(ctx)
	if err != nil {
		return err
	}
	to := day(a.now())
	from := to.AddDate(0, 0, -(defaultTrendDays - 1))
	trend, err := a.computeTrend(ctx, from, to)
	if err != nil {
		return err
	}

	if err := cache.Put(ctx, a.cache, "analytics:status_distribution", a.ttl, d); err != nil {
		return err
	}
	if err := cache.Put(ctx, a.cache, "analytics:job_breakdown", a.ttl, b); err != nil {
		return err
	}
	if err := cache.Put(ctx, a.cache, "analytics:overview", a.ttl, o); err != nil {
		return err
	}
	key := fmt.Sprintf("analytics:trend:%s:%s", from.Format(dateLayout), to.Format(dateLayout))
	return cache.Put(ctx, a.cache, key, a.ttl, trend)
}

func (a *Aggregator) computeDistribution(ctx context.Context) (Distribution, error) {
	counts, err := a.src.CountApplicationsByStatus(ctx)
	if err != nil {
		return Distribution{}, fmt.Errorf("count applications by status: %w", err)
	}

	byStatus := make(map[store.Status]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] += c.Count
	}

	d := Distribution{Statuses: make([]StatusBucket, 0, len(store.Statuses))}
	for _, s := range store.Statuses {
		d.Statuses = append(d.Statuses, StatusBucket{Status: s, Count: byStatus[s]})
		d.Total += byStatus[s]
	}
	return d, nil
}

func (a *Aggregator) computeTrend(ctx context.Context, from, to time.Time) ([]DailyCount, error) {
	counts, err := a.src.CountApplicationsPerDay(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("count applications per day: %w", err)
	}

	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day.UTC().Format(dateLayout)] += c.Count
	}

	out := []DailyCount{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, DailyCount{Date: key, Count: byDay[key]})
	}
	return out, nil
}

func (a *Aggregator) computeBreakdown(ctx context.Context) (Breakdown, error) {
	var b Breakdown
	for _, dim := range []struct {
		dim store.JobDimension
		dst *[]Bucket
	}{
		{store.DimensionDepartment, &b.ByDepartment},
		{store.DimensionLocation, &b.ByLocation},
		{store.DimensionEmploymentType, &b.ByEmploymentType},
	} {
		groups, err := a.src.CountJobsBy(ctx, dim.dim)
		if err != nil {
			return Breakdown{}, fmt.Errorf("count jobs by %s: %w", dim.dim, err)
		}
		*dim.dst = buckets(groups)
	}
	return b, nil
}

func (a *Aggregator) computeOverview(ctx context.Context) (Overview, error) {
	d, err := a.computeDistribution(ctx)
	if err != nil {
		return Overview{}, err
	}
	jobs, err := a.src.CountJobs(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("count jobs: %w", err)
	}
	recent, err := a.src.RecentApplications(ctx, recentLimit)
	if err != nil {
		return Overview{}, fmt.Errorf("recent applications: %w", err)
	}
	if recent == nil {
		recent = []store.Application{}
	}
	return Overview{
		TotalJobs:          jobs,
		TotalApplications:  d.Total,
		Distribution:       d,
		RecentApplications: recent,
	}, nil
}

// buckets folds empty keys into "unassigned".
func buckets(groups []store.GroupCount) []Bucket {
	out := make([]Bucket, 0, len(groups))
	index := make(map[string]int, len(groups))
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = unassignedKey
		}
		if i, ok := index[key]; ok {
			out[i].Jobs += g.Jobs
			out[i].Applications += g.Applications
			continue
		}
		index[key] = len(out)
		out = append(out, Bucket{Key: key, Jobs: g.Jobs, Applications: g.Applications})
	}
	return out
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
