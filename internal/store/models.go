// Package store contains the database layer for hiretrack.
package store

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the canonical pipeline status of an application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusAccepted  Status = "accepted"
)

// Statuses lists every canonical status in pipeline order.
// Analytics report buckets in this order.
var Statuses = []Status{
	StatusPending,
	StatusReviewing,
	StatusInterview,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
	StatusAccepted,
}

// legacyStatuses maps vocabulary written by older clients onto the canonical set.
var legacyStatuses = map[string]Status{
	"applied":     StatusPending,
	"shortlisted": StatusReviewing,
	"in_review":   StatusReviewing,
	"review":      StatusReviewing,
	"invited":     StatusInterview,
	"offered":     StatusOffer,
	"selected":    StatusAccepted,
}

// ParseStatus normalises s into a canonical Status.
// The second return value is false for unknown values.
func ParseStatus(s string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses {
		if string(st) == normalized {
			return st, true
		}
	}
	if st, ok := legacyStatuses[normalized]; ok {
		return st, true
	}
	return "", false
}

// StoredValues lists every column value that reads back as s: the canonical
// name first, then its legacy aliases in sorted order.
func (s Status) StoredValues() []string {
	var aliases []string
	for raw, st := range legacyStatuses {
		if st == s {
			aliases = append(aliases, raw)
		}
	}
	sort.Strings(aliases)
	return append([]string{string(s)}, aliases...)
}

// IsTerminal reports whether no further transitions are possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusWithdrawn || s == StatusAccepted
}

// Application is one candidate's intent to be considered for one job.
// JobID, ApplicantID and ResumeID never change after submission.
type Application struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	ApplicantID uuid.UUID `json:"applicant_id"`
	ResumeID    uuid.UUID `json:"resume_id"`
	Status      Status    `json:"status"`
	Rating      *int      `json:"rating,omitempty"`
	Comments    *string   `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LedgerEntry is one immutable row of an application's pipeline history.
type LedgerEntry struct {
	ID             int64      `json:"id"`
	ApplicationID  uuid.UUID  `json:"application_id"`
	Status         Status     `json:"status"`
	Note           *string    `json:"note,omitempty"`
	RecordedAt     time.Time  `json:"timestamp"`
	UpdatedBy      *uuid.UUID `json:"updated_by"`
	IdempotencyKey string     `json:"-"`
}

// EmploymentType of a job posting.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

// JobStatus is the publication state of a job posting.
type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPublished JobStatus = "published"
	JobStatusClosed    JobStatus = "closed"
)

// Job is a posting owned by the job catalog. The pipeline only reads it.
type Job struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Company        string         `json:"company"`
	Department     string         `json:"department"`
	Location       string         `json:"location"`
	EmploymentType EmploymentType `json:"employment_type"`
	Status         JobStatus      `json:"status"`
	Remote         bool           `json:"remote"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ParseState of a resume's best-effort enrichment.
type ParseState string

const (
	ParseStatePending ParseState = "pending"
	ParseStateParsed  ParseState = "parsed"
	ParseStateFailed  ParseState = "failed"
)

// ParsedContent is extracted resume metadata. It is informational only.
type ParsedContent struct {
	Skills    []string `json:"skills"`
	Education []string `json:"education"`
	RawText   string   `json:"raw_text,omitempty"`
}

// Resume is an uploaded document reference.
type Resume struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Path        string         `json:"-"`
	ParseState  ParseState     `json:"parse_state"`
	Parsed      *ParsedContent `json:"parsed,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ApplicationFilter narrows admin listings. Zero values mean "any".
type ApplicationFilter struct {
	Status      Status
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	Limit       int
	Offset      int
}
