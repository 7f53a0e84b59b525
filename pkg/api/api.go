// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// SubmitApplicationRequest is the request body for applying to a job.
type SubmitApplicationRequest struct {
	JobID    string `json:"job_id"`
	ResumeID string `json:"resume_id"`
}

// ReviewApplicationRequest sets reviewer annotations. Omitted fields are unchanged.
type ReviewApplicationRequest struct {
	Rating   *int    `json:"rating,omitempty"`
	Comments *string `json:"comments,omitempty"`
}

// WithdrawRequest is the optional body of DELETE /applications/{id}.
type WithdrawRequest struct {
	Note string `json:"note,omitempty"`
}

// TransitionRequest is the request body for moving an application.
type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// JobSummary is the part of a job shown next to an application.
type JobSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// Application represents an application in API responses.
type Application struct {
	ID          string      `json:"id"`
	JobID       string      `json:"job_id"`
	ApplicantID string      `json:"applicant_id"`
	ResumeID    string      `json:"resume_id"`
	Status      string      `json:"status"`
	Rating      *int        `json:"rating,omitempty"`
	Comments    *string     `json:"comments,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Job         *JobSummary `json:"job,omitempty"`
}

// LedgerEntry is one row of an application's pipeline history.
type LedgerEntry struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	Note          *string   `json:"note,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedBy     *string   `json:"updated_by"`
}

// ListApplicationsResponse wraps application listings.
type ListApplicationsResponse struct {
	Applications []Application `json:"applications"`
	Limit        int           `json:"limit,omitempty"`
	Offset       int           `json:"offset,omitempty"`
}

// TransitionResponse is returned by transitions and withdrawals.
type TransitionResponse struct {
	Application Application `json:"application"`
	LedgerEntry LedgerEntry `json:"ledger_entry"`
}

// HistoryResponse is the ordered ledger of one application.
type HistoryResponse struct {
	ApplicationID string        `json:"application_id"`
	Entries       []LedgerEntry `json:"entries"`
}

// ActivityResponse lists what one user submitted and which transitions they made.
type ActivityResponse struct {
	UserID       string        `json:"user_id"`
	Applications []Application `json:"applications"`
	Actions      []LedgerEntry `json:"actions"`
}

// StatusCount is one bucket of the status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// StatusDistribution reports every status, zero-filled, plus the total.
type StatusDistribution struct {
	Statuses []StatusCount `json:"statuses"`
	Total    int64         `json:"total"`
}

// DailyCount is the number of applications created on Date (YYYY-MM-DD, UTC).
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Bucket is one group of a job breakdown.
type Bucket struct {
	Key          string `json:"key"`
	Jobs         int64  `json:"jobs"`
	Applications int64  `json:"applications"`
}

// JobBreakdown groups jobs by department, location and employment type.
type JobBreakdown struct {
	ByDepartment     []Bucket `json:"by_department"`
	ByLocation       []Bucket `json:"by_location"`
	ByEmploymentType []Bucket `json:"by_employment_type"`
}

// AnalyticsResponse is the admin analytics report.
type AnalyticsResponse struct {
	From         string             `json:"from"`
	To           string             `json:"to"`
	Trend        []DailyCount       `json:"trend"`
	Distribution StatusDistribution `json:"status_distribution"`
	Breakdown    JobBreakdown       `json:"job_breakdown"`
}

// OverviewResponse is the admin dashboard summary.
type OverviewResponse struct {
	TotalJobs          int64              `json:"total_jobs"`
	TotalApplications  int64              `json:"total_applications"`
	Distribution       StatusDistribution `json:"status_distribution"`
	RecentApplications []Application      `json:"recent_applications"`
}

// Job is a job posting in search results.
type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Company        string    `json:"company"`
	Department     string    `json:"department,omitempty"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employment_type"`
	Status         string    `json:"status"`
	Remote         bool      `json:"remote"`
	CreatedAt      time.Time `json:"created_at"`
}

// SearchResponse is returned by GET /admin/search. Kinds that were not
// searched are omitted.
type SearchResponse struct {
	Query        string        `json:"query"`
	Type         string        `json:"type"`
	Jobs         []Job         `json:"jobs,omitempty"`
	Applications []Application `json:"applications,omitempty"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// ParsedResume is best-effort metadata extracted from a resume.
type ParsedResume struct {
	Skills    []string `json:"skills"`
	Education []string `json:"education"`
}

// ResumeResponse describes an uploaded resume.
type ResumeResponse struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	ParseState  string        `json:"parse_state"`
	Parsed      *ParsedResume `json:"parsed,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
