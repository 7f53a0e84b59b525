package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/logger"
	"hiretrack/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	activityLimit    = 100
)

// TransitionRequest asks the engine to move one application to Target.
type TransitionRequest struct {
	ApplicationID uuid.UUID
	Actor         auth.Identity
	Target        store.Status
	Note          string
	// RequestID makes retries of the same request idempotent. Empty means a fresh request.
	RequestID string
}

// TransitionResult is the updated application and the ledger entry that recorded the change.
type TransitionResult struct {
	Application *store.Application `json:"application"`
	Entry       *store.LedgerEntry `json:"ledger_entry"`
}

// SubmitRequest creates a new application.
type SubmitRequest struct {
	Actor    auth.Identity
	JobID    uuid.UUID
	ResumeID uuid.UUID
}

// ReviewRequest sets reviewer annotations. Nil fields are left unchanged.
type ReviewRequest struct {
	Actor         auth.Identity
	ApplicationID uuid.UUID
	Rating        *int
	Comments      *string
}

// ListFilter narrows staff listings.
type ListFilter struct {
	Status string
	JobID  uuid.UUID
	Limit  int
	Offset int
}

// JobSummary is the part of a job shown next to an application.
type JobSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
}

// ApplicationView is an application with its job summary, when the job still exists.
type ApplicationView struct {
	store.Application
	Job *JobSummary `json:"job,omitempty"`
}

// Activity is everything a user did: applications they submitted and ledger
// entries they authored.
type Activity struct {
	UserID       uuid.UUID           `json:"user_id"`
	Applications []ApplicationView   `json:"applications"`
	Actions      []store.LedgerEntry `json:"actions"`
}

// Engine validates and applies pipeline changes.
type Engine struct {
	apps    store.PipelineStore
	jobs    store.JobCatalog
	resumes store.ResumeStore
	policy  auth.Policy
	now     func() time.Time
	log     *slog.Logger

	tracer      trace.Tracer
	transitions metric.Int64Counter
	submissions metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine.
func New(apps store.PipelineStore, jobs store.JobCatalog, resumes store.ResumeStore, opts ...Option) *Engine {
	e := &Engine{
		apps:    apps,
		jobs:    jobs,
		resumes: resumes,
		now:     time.Now,
		log:     slog.Default(),
		tracer:  otel.Tracer("hiretrack/pipeline"),
	}
	for _, opt := range opts {
		opt(e)
	}

	meter := otel.Meter("hiretrack/pipeline")
	e.transitions, _ = meter.Int64Counter("pipeline_transitions_total",
		metric.WithDescription("Status transitions by target status and outcome"))
	e.submissions, _ = meter.Int64Counter("pipeline_submissions_total",
		metric.WithDescription("Application submissions by outcome"))

	return e
}

// Submit creates an application and its first ledger entry.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*store.Application, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.submit", trace.WithAttributes(
		attribute.String("job.id", req.JobID.String()),
		attribute.String("user.id", req.Actor.UserID.String()),
	))
	defer span.End()

	app, err := e.submit(ctx, req)
	e.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
	endSpan(span, err)
	return app, err
}

func (e *Engine) submit(ctx context.Context, req SubmitRequest) (*store.Application, error) {
	if !e.policy.CanSubmit(req.Actor) {
		return nil, forbidden("only applicants can submit applications")
	}
	if req.JobID == uuid.Nil {
		return nil, validation("job_id is required")
	}
	if req.ResumeID == uuid.Nil {
		return nil, validation("resume_id is required")
	}

	job, err := e.jobs.GetJobByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("job not found")
		}
		return nil, internal(err)
	}
	if job.Status != store.JobStatusPublished {
		return nil, validation("job is not accepting applications")
	}

	resume, err := e.resumes.GetResumeByID(ctx, req.ResumeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validation("resume not found")
		}
		return nil, internal(err)
	}
	if resume.OwnerID != req.Actor.UserID {
		return nil, validation("resume does not belong to the applicant")
	}

	now := e.now().UTC()
	app := &store.Application{
		ID:          uuid.New(),
		JobID:       job.ID,
		ApplicantID: req.Actor.UserID,
		ResumeID:    resume.ID,
		Status:      store.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	first := &store.LedgerEntry{
		Status:         store.StatusPending,
		RecordedAt:     now,
		IdempotencyKey: auth.IdempotencyKey(app.ID.String(), string(store.StatusPending), "submit"),
	}

	if err := e.apps.CreateApplication(ctx, app, first); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, NewError(KindDuplicateApplication, "you have already applied for this job", err)
		}
		return nil, internal(err)
	}

	logger.FromContext(ctx, e.log).Info("application submitted",
		"application_id", app.ID, "job_id", job.ID, "applicant_id", app.ApplicantID)
	return app, nil
}

// Transition moves an application to req.Target.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.transition", trace.WithAttributes(
		attribute.String("application.id", req.ApplicationID.String()),
		attribute.String("pipeline.target", string(req.Target)),
		attribute.String("user.role", string(req.Actor.Role)),
	))
	defer span.End()

	res, err := e.transition(ctx, req)
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", string(req.Target)),
		attribute.String("outcome", outcome(err)),
	))
	endSpan(span, err)
	return res, err
}

func (e *Engine) transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	target, ok := store.ParseStatus(string(req.Target))
	if !ok {
		return nil, validation(fmt.Sprintf("unknown status %q", req.Target))
	}

	app, err := e.getApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	// Callers who cannot see the application learn nothing about its state.
	if !e.policy.CanView(req.Actor, app.ApplicantID) {
		return nil, forbidden("not allowed to modify this application")
	}

	// A replayed request answers with what it recorded, even after the
	// application has moved on.
	if req.RequestID != "" && target != store.StatusPending {
		key := auth.IdempotencyKey(app.ID.String(), string(target), req.RequestID)
		recorded, err := e.apps.GetLedgerEntryByKey(ctx, key)
		switch {
		case err == nil && recorded.ApplicationID == app.ID:
			return &TransitionResult{Application: app, Entry: recorded}, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, internal(err)
		}
	}

	if !CanTransition(app.Status, target) {
		return nil, invalidTransition(app.Status, target)
	}
	if !e.policy.CanTransition(req.Actor, app.ApplicantID, target) {
		return nil, forbidden(fmt.Sprintf("not allowed to move application to %s", target))
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	w := store.TransitionWrite{
		ApplicationID:  app.ID,
		From:           app.Status,
		To:             target,
		IdempotencyKey: auth.IdempotencyKey(app.ID.String(), string(target), requestID),
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		w.Note = &note
	}
	// Withdrawal is recorded without an acting reviewer.
	if target != store.StatusWithdrawn {
		actor := req.Actor.UserID
		w.UpdatedBy = &actor
	}

	log := logger.FromContext(ctx, e.log)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		w.At = e.now().UTC()
		updated, entry, err := e.apps.ApplyTransition(ctx, w)
		switch {
		case err == nil:
			log.Info("application transitioned",
				"application_id", app.ID, "from", app.Status, "to", target, "ledger_id", entry.ID)
			return &TransitionResult{Application: updated, Entry: entry}, nil

		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("application not found")

		case errors.Is(err, store.ErrStatusChanged):
			return nil, e.lostRace(ctx, app.ID, target, err)

		case ctx.Err() != nil:
			return nil, internal(ctx.Err())
		}

		lastErr = err
		log.Warn("transition write failed", "application_id", app.ID, "attempt", attempt+1, "error", err)
	}

	return nil, conflict("could not apply transition, please retry", lastErr)
}

// lostRace decides how a concurrent status change surfaces to the loser.
func (e *Engine) lostRace(ctx context.Context, id uuid.UUID, target store.Status, cause error) error {
	current, err := e.apps.GetApplicationByID(ctx, id)
	if err != nil {
		return conflict("application changed concurrently, please retry", cause)
	}
	if CanTransition(current.Status, target) {
		return conflict("application changed concurrently, please retry", cause)
	}
	return invalidTransition(current.Status, target)
}

// Withdraw is the applicant-initiated terminal transition.
func (e *Engine) Withdraw(ctx context.Context, actor auth.Identity, applicationID uuid.UUID, note, requestID string) (*TransitionResult, error) {
	return e.Transition(ctx, TransitionRequest{
		ApplicationID: applicationID,
		Actor:         actor,
		Target:        store.StatusWithdrawn,
		Note:          note,
		RequestID:     requestID,
	})
}

// Review updates rating and/or comments without touching the status or the ledger.
func (e *Engine) Review(ctx context.Context, req ReviewRequest) (*store.Application, error) {
	if !e.policy.CanReview(req.Actor) {
		return nil, forbidden("only hr or admin can review applications")
	}
	if req.Rating == nil && req.Comments == nil {
		return nil, validation("rating or comments is required")
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, validation("rating must be between 1 and 5")
	}

	app, err := e.apps.UpdateReview(ctx, store.ReviewWrite{
		ApplicationID: req.ApplicationID,
		Rating:        req.Rating,
		Comments:      req.Comments,
		At:            e.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("application not found")
		}
		return nil, internal(err)
	}
	return app, nil
}

// Get returns one application to its owner or to staff.
func (e *Engine) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (*ApplicationView, error) {
	app, err := e.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.policy.CanView(actor, app.ApplicantID) {
		return nil, forbidden("not allowed to view this application")
	}

	views, err := e.withJobs(ctx, []store.Application{*app})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListMine returns the caller's own applications, newest first.
func (e *Engine) ListMine(ctx context.Context, actor auth.Identity) ([]ApplicationView, error) {
	apps, err := e.apps.ListApplications(ctx, store.ApplicationFilter{ApplicantID: actor.UserID})
	if err != nil {
		return nil, internal(err)
	}
	return e.withJobs(ctx, apps)
}

// List returns applications across all applicants. Staff only.
func (e *Engine) List(ctx context.Context, actor auth.Identity, f ListFilter) ([]ApplicationView, error) {
	if !e.policy.CanListAll(actor) {
		return nil, forbidden("only hr or admin can list all applications")
	}

	filter := store.ApplicationFilter{JobID: f.JobID, Limit: f.Limit, Offset: f.Offset}
	if f.Status != "" {
		st, ok := store.ParseStatus(f.Status)
		if !ok {
			return nil, validation(fmt.Sprintf("unknown status %q", f.Status))
		}
		filter.Status = st
	}
	filter.Limit = EffectiveLimit(filter.Limit)
	if filter.Offset < 0 {
		return nil, validation("offset must not be negative")
	}

	apps, err := e.apps.ListApplications(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return e.withJobs(ctx, apps)
}

// EffectiveLimit is the page size List uses for a requested limit.
func EffectiveLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// History returns the ledger of one application in chronological order.
func (e *Engine) History(ctx context.Context, actor auth.Identity, id uuid.UUID) ([]store.LedgerEntry, error) {
	app, err := e.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.policy.CanView(actor, app.ApplicantID) {
		return nil, forbidden("not allowed to view this application")
	}

	entries, err := e.apps.ListLedgerEntries(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if len(entries) == 0 {
		return nil, notFound("no history for application")
	}
	return entries, nil
}

// Activity returns what userID submitted and which transitions they authored. Admin only.
func (e *Engine) Activity(ctx context.Context, actor auth.Identity, userID uuid.UUID) (*Activity, error) {
	if !e.policy.CanViewActivity(actor) {
		return nil, forbidden("only admin can view user activity")
	}

	apps, err := e.apps.ListApplications(ctx, store.ApplicationFilter{ApplicantID: userID})
	if err != nil {
		return nil, internal(err)
	}
	views, err := e.withJobs(ctx, apps)
	if err != nil {
		return nil, err
	}

	actions, err := e.apps.ListLedgerEntriesByActor(ctx, userID, activityLimit)
	if err != nil {
		return nil, internal(err)
	}

	return &Activity{UserID: userID, Applications: views, Actions: actions}, nil
}

func (e *Engine) getApplication(ctx context.Context, id uuid.UUID) (*store.Application, error) {
	app, err := e.apps.GetApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("application not found")
		}
		return nil, internal(err)
	}
	return app, nil
}

func (e *Engine) withJobs(ctx context.Context, apps []store.Application) ([]ApplicationView, error) {
	ids := make([]uuid.UUID, 0, len(apps))
	seen := make(map[uuid.UUID]bool, len(apps))
	for _, app := range apps {
		if !seen[app.JobID] {
			seen[app.JobID] = true
			ids = append(ids, app.JobID)
		}
	}

	jobs, err := e.jobs.GetJobsByIDs(ctx, ids)
	if err != nil {
		return nil, internal(err)
	}

	views := make([]ApplicationView, len(apps))
	for i, app := range apps {
		views[i] = ApplicationView{Application: app}
		if job, ok := jobs[app.JobID]; ok {
			views[i].Job = &JobSummary{ID: job.ID, Title: job.Title, Company: job.Company, Location: job.Location}
		}
	}
	return views, nil
}

func invalidTransition(from, to store.Status) *Error {
	if from.IsTerminal() {
		return NewError(KindInvalidTransition, fmt.Sprintf("application is %s and can no longer change", from), nil)
	}
	return NewError(KindInvalidTransition, fmt.Sprintf("cannot move application from %s to %s", from, to), nil)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String("error.kind", string(KindOf(err))))
	if KindOf(err) == KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
