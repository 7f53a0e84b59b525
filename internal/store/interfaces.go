package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when the (job, applicant) uniqueness constraint is violated.
	ErrDuplicate = errors.New("store: duplicate application")

	// ErrStatusChanged is returned when the application status moved between read and write.
	ErrStatusChanged = errors.New("store: application status changed concurrently")
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// JobCatalog answers read-only questions about job postings.
type JobCatalog interface {
	// GetJobByID returns a job by its ID or ErrNotFound.
	GetJobByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// GetJobsByIDs returns the jobs that exist among ids, keyed by ID.
	GetJobsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Job, error)

	// SearchJobs matches f.Query case-insensitively against title and
	// description, newest first.
	SearchJobs(ctx context.Context, f SearchFilter) ([]Job, error)
}

// SearchFilter is a case-insensitive substring search with paging.
type SearchFilter struct {
	Query  string
	Limit  int
	Offset int
}

// ResumeStore persists uploaded resume references and their parsed metadata.
type ResumeStore interface {
	// CreateResume inserts a resume row and schedules it for parsing.
	CreateResume(ctx context.Context, resume *Resume) error

	// GetResumeByID returns a resume by its ID or ErrNotFound.
	GetResumeByID(ctx context.Context, id uuid.UUID) (*Resume, error)

	// SaveParsedResume stores the enrichment result and marks the resume parsed.
	SaveParsedResume(ctx context.Context, id uuid.UUID, parsed ParsedContent) error

	// MarkResumeParseFailed records that enrichment gave up.
	MarkResumeParseFailed(ctx context.Context, id uuid.UUID) error
}

// TransitionWrite is the unit applied atomically by PipelineStore.ApplyTransition.
type TransitionWrite struct {
	ApplicationID  uuid.UUID
	From           Status
	To             Status
	Note           *string
	UpdatedBy      *uuid.UUID
	At             time.Time
	IdempotencyKey string
}

// ReviewWrite carries reviewer annotations. Nil fields are left unchanged.
type ReviewWrite struct {
	ApplicationID uuid.UUID
	Rating        *int
	Comments      *string
	At            time.Time
}

// PipelineStore owns applications and their ledgers.
type PipelineStore interface {
	// CreateApplication inserts the application and its first ledger entry in one transaction.
	// Returns ErrDuplicate when the applicant already applied for the job.
	CreateApplication(ctx context.Context, app *Application, first *LedgerEntry) error

	// GetApplicationByID returns an application by its ID or ErrNotFound.
	GetApplicationByID(ctx context.Context, id uuid.UUID) (*Application, error)

	// ListApplications returns applications matching filter, newest first.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]Application, error)

	// ApplyTransition locks the application, checks it is still in w.From, updates
	// the status and appends a ledger entry, all in one transaction.
	// If an entry with w.IdempotencyKey already exists the recorded result is returned.
	// Returns ErrNotFound or ErrStatusChanged.
	ApplyTransition(ctx context.Context, w TransitionWrite) (*Application, *LedgerEntry, error)

	// SearchApplications matches f.Query case-insensitively against the stored
	// status and the reviewer comments, newest first.
	SearchApplications(ctx context.Context, f SearchFilter) ([]Application, error)

	// UpdateReview sets rating/comments without touching the status or the ledger.
	UpdateReview(ctx context.Context, w ReviewWrite) (*Application, error)

	// GetLedgerEntryByKey returns the entry written with the given idempotency key or ErrNotFound.
	GetLedgerEntryByKey(ctx context.Context, key string) (*LedgerEntry, error)

	// ListLedgerEntries returns the ledger ordered by timestamp ascending.
	ListLedgerEntries(ctx context.Context, applicationID uuid.UUID) ([]LedgerEntry, error)

	// ListLedgerEntriesByActor returns entries written by the given user, newest first.
	ListLedgerEntriesByActor(ctx context.Context, userID uuid.UUID, limit int) ([]LedgerEntry, error)
}

// StatusCount is one group of a status aggregation.
type StatusCount struct {
	Status Status
	Count  int64
}

// DayCount is the number of applications created on Day (UTC midnight).
type DayCount struct {
	Day   time.Time
	Count int64
}

// GroupCount is one bucket of a job breakdown.
type GroupCount struct {
	Key          string
	Jobs         int64
	Applications int64
}

// JobDimension names a column jobs can be grouped by.
type JobDimension string

const (
	DimensionDepartment     JobDimension = "department"
	DimensionLocation       JobDimension = "location"
	DimensionEmploymentType JobDimension = "employment_type"
)

// AnalyticsSource is the read-only query surface used by the analytics aggregator.
type AnalyticsSource interface {
	CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error)
	CountApplicationsPerDay(ctx context.Context, from, to time.Time) ([]DayCount, error)
	CountJobsBy(ctx context.Context, dim JobDimension) ([]GroupCount, error)
	CountJobs(ctx context.Context) (int64, error)
	RecentApplications(ctx context.Context, limit int) ([]Application, error)
}

// Backend is everything the binaries need from one storage driver.
type Backend interface {
	JobCatalog
	ResumeStore
	PipelineStore
	AnalyticsSource
	ParseQueue
	Ping(ctx context.Context) error
	Close() error
}
