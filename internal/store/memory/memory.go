// Package memory is an in-process implementation of the store interfaces.
// It backs local development (STORE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

type queueEntry struct {
	resumeID     uuid.UUID
	attempt      int
	lastError    string
	visibleAfter time.Time
	createdAt    time.Time
}

// Store keeps every table in maps guarded by one mutex, which gives the same
// serialisation guarantees as the row lock in the Postgres store.
type Store struct {
	mu sync.Mutex

	jobs         map[uuid.UUID]store.Job
	resumes      map[uuid.UUID]store.Resume
	applications map[uuid.UUID]store.Application
	ledger       map[uuid.UUID][]store.LedgerEntry
	keys         map[string]store.LedgerEntry
	queue        map[uuid.UUID]*queueEntry
	nextEntryID  int64

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for queue visibility.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		jobs:         make(map[uuid.UUID]store.Job),
		resumes:      make(map[uuid.UUID]store.Resume),
		applications: make(map[uuid.UUID]store.Application),
		ledger:       make(map[uuid.UUID][]store.LedgerEntry),
		keys:         make(map[string]store.LedgerEntry),
		queue:        make(map[uuid.UUID]*queueEntry),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// AddJob inserts or replaces a job posting.
func (s *Store) AddJob(job store.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	s.jobs[job.ID] = job
}

func (s *Store) GetJobByID(_ context.Context, id uuid.UUID) (*store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &job, nil
}

func (s *Store) GetJobsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*store.Job, len(ids))
	for _, id := range ids {
		if job, ok := s.jobs[id]; ok {
			out[id] = &job
		}
	}
	return out, nil
}

func (s *Store) SearchJobs(_ context.Context, f store.SearchFilter) ([]store.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	jobs := []store.Job{}
	for _, job := range s.jobs {
		if contains(job.Title, q) || contains(job.Description, q) {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID.String() > jobs[j].ID.String()
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return paginate(jobs, f.Limit, f.Offset), nil
}

func (s *Store) CreateResume(_ context.Context, resume *store.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resume.ParseState == "" {
		resume.ParseState = store.ParseStatePending
	}
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = s.now()
	}
	s.resumes[resume.ID] = cloneResume(*resume)
	s.queue[resume.ID] = &queueEntry{
		resumeID:     resume.ID,
		visibleAfter: resume.CreatedAt,
		createdAt:    s.now(),
	}
	return nil
}

func (s *Store) GetResumeByID(_ context.Context, id uuid.UUID) (*store.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r = cloneResume(r)
	return &r, nil
}

func (s *Store) SaveParsedResume(_ context.Context, id uuid.UUID, parsed store.ParsedContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok {
		return store.ErrNotFound
	}
	r.ParseState = store.ParseStateParsed
	r.Parsed = &parsed
	s.resumes[id] = cloneResume(r)
	return nil
}

func (s *Store) MarkResumeParseFailed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok {
		return store.ErrNotFound
	}
	r.ParseState = store.ParseStateFailed
	s.resumes[id] = r
	return nil
}

func (s *Store) CreateApplication(_ context.Context, app *store.Application, first *store.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.applications {
		if existing.JobID == app.JobID && existing.ApplicantID == app.ApplicantID {
			return store.ErrDuplicate
		}
	}

	s.applications[app.ID] = cloneApplication(*app)
	first.ApplicationID = app.ID
	s.appendEntry(first)
	return nil
}

func (s *Store) GetApplicationByID(_ context.Context, id uuid.UUID) (*store.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app = cloneApplication(app)
	return &app, nil
}

func (s *Store) ListApplications(_ context.Context, filter store.ApplicationFilter) ([]store.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps := []store.Application{}
	for _, app := range s.applications {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.JobID != uuid.Nil && app.JobID != filter.JobID {
			continue
		}
		if filter.ApplicantID != uuid.Nil && app.ApplicantID != filter.ApplicantID {
			continue
		}
		apps = append(apps, cloneApplication(app))
	}

	sortNewestFirst(apps)
	return paginate(apps, filter.Limit, filter.Offset), nil
}

func (s *Store) SearchApplications(_ context.Context, f store.SearchFilter) ([]store.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	apps := []store.Application{}
	for _, app := range s.applications {
		comments := ""
		if app.Comments != nil {
			comments = *app.Comments
		}
		if contains(string(app.Status), q) || contains(comments, q) {
			apps = append(apps, cloneApplication(app))
		}
	}
	sortNewestFirst(apps)
	return paginate(apps, f.Limit, f.Offset), nil
}

func sortNewestFirst(apps []store.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID.String() > apps[j].ID.String()
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// contains is a case-insensitive substring match; q is already lower case.
func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func (s *Store) ApplyTransition(_ context.Context, w store.TransitionWrite) (*store.Application, *store.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[w.ApplicationID]
	if !ok {
		return nil, nil, store.ErrNotFound
	}

	if existing, ok := s.keys[w.IdempotencyKey]; ok {
		out := cloneApplication(app)
		entry := cloneEntry(existing)
		return &out, &entry, nil
	}

	if app.Status != w.From {
		return nil, nil, store.ErrStatusChanged
	}

	app.Status = w.To
	app.UpdatedAt = w.At
	s.applications[app.ID] = app

	entry := store.LedgerEntry{
		ApplicationID:  w.ApplicationID,
		Status:         w.To,
		Note:           w.Note,
		RecordedAt:     w.At,
		UpdatedBy:      w.UpdatedBy,
		IdempotencyKey: w.IdempotencyKey,
	}
	s.appendEntry(&entry)

	out := cloneApplication(app)
	return &out, &entry, nil
}

// appendEntry assigns the sequence id and a non-decreasing timestamp. Callers hold mu.
func (s *Store) appendEntry(e *store.LedgerEntry) {
	entries := s.ledger[e.ApplicationID]
	if n := len(entries); n > 0 && e.RecordedAt.Before(entries[n-1].RecordedAt) {
		e.RecordedAt = entries[n-1].RecordedAt
	}
	s.nextEntryID++
	e.ID = s.nextEntryID
	s.ledger[e.ApplicationID] = append(entries, cloneEntry(*e))
	s.keys[e.IdempotencyKey] = cloneEntry(*e)
}

func (s *Store) UpdateReview(_ context.Context, w store.ReviewWrite) (*store.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[w.ApplicationID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if w.Rating != nil {
		r := *w.Rating
		app.Rating = &r
	}
	if w.Comments != nil {
		c := *w.Comments
		app.Comments = &c
	}
	app.UpdatedAt = w.At
	s.applications[app.ID] = app

	out := cloneApplication(app)
	return &out, nil
}

func (s *Store) GetLedgerEntryByKey(_ context.Context, key string) (*store.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	e = cloneEntry(e)
	return &e, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, applicationID uuid.UUID) ([]store.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.ledger[applicationID]
	out := make([]store.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

func (s *Store) ListLedgerEntriesByActor(_ context.Context, userID uuid.UUID, limit int) ([]store.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []store.LedgerEntry{}
	for _, entries := range s.ledger {
		for _, e := range entries {
			if e.UpdatedBy != nil && *e.UpdatedBy == userID {
				out = append(out, cloneEntry(e))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneApplication(app store.Application) store.Application {
	if app.Rating != nil {
		r := *app.Rating
		app.Rating = &r
	}
	if app.Comments != nil {
		c := *app.Comments
		app.Comments = &c
	}
	return app
}

// cloneEntry detaches the optional fields so stored ledger entries stay immutable.
func cloneEntry(e store.LedgerEntry) store.LedgerEntry {
	if e.Note != nil {
		n := *e.Note
		e.Note = &n
	}
	if e.UpdatedBy != nil {
		id := *e.UpdatedBy
		e.UpdatedBy = &id
	}
	return e
}

func cloneResume(r store.Resume) store.Resume {
	if r.Parsed != nil {
		p := *r.Parsed
		p.Skills = append([]string(nil), p.Skills...)
		p.Education = append([]string(nil), p.Education...)
		r.Parsed = &p
	}
	return r
}
