package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

var (
	_ store.PipelineStore   = (*Store)(nil)
	_ store.JobCatalog      = (*Store)(nil)
	_ store.ResumeStore     = (*Store)(nil)
	_ store.AnalyticsSource = (*Store)(nil)
	_ store.ParseQueue      = (*Store)(nil)
)

func submit(t *testing.T, s *Store, jobID, applicantID uuid.UUID, at time.Time) store.Application {
	t.Helper()
	app := store.Application{
		ID:          uuid.New(),
		JobID:       jobID,
		ApplicantID: applicantID,
		ResumeID:    uuid.New(),
		Status:      store.StatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	first := &store.LedgerEntry{Status: store.StatusPending, RecordedAt: at, IdempotencyKey: uuid.NewString()}
	if err := s.CreateApplication(context.Background(), &app, first); err != nil {
		t.Fatalf("CreateApplication failed: %v", err)
	}
	return app
}

func TestCreateApplication_Duplicate(t *testing.T) {
	s := New()
	jobID, applicant := uuid.New(), uuid.New()
	submit(t, s, jobID, applicant, time.Now())

	app := store.Application{ID: uuid.New(), JobID: jobID, ApplicantID: applicant}
	err := s.CreateApplication(context.Background(), &app, &store.LedgerEntry{IdempotencyKey: "x"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("got %v, want ErrDuplicate", err)
	}
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	app := submit(t, s, uuid.New(), uuid.New(), base)
	hr := uuid.New()

	got, entry, err := s.ApplyTransition(ctx, store.TransitionWrite{
		ApplicationID:  app.ID,
		From:           store.StatusPending,
		To:             store.StatusReviewing,
		UpdatedBy:      &hr,
		At:             base.Add(-time.Hour), // clock skew
		IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if got.Status != store.StatusReviewing {
		t.Errorf("got status %s, want reviewing", got.Status)
	}
	if entry.RecordedAt.Before(base) {
		t.Errorf("ledger timestamp went backwards: %v < %v", entry.RecordedAt, base)
	}

	t.Run("replay returns recorded entry", func(t *testing.T) {
		_, replay, err := s.ApplyTransition(ctx, store.TransitionWrite{
			ApplicationID:  app.ID,
			From:           store.StatusPending,
			To:             store.StatusReviewing,
			At:             base,
			IdempotencyKey: "k1",
		})
		if err != nil {
			t.Fatalf("replay failed: %v", err)
		}
		if replay.ID != entry.ID {
			t.Errorf("got entry %d, want %d", replay.ID, entry.ID)
		}
		entries, _ := s.ListLedgerEntries(ctx, app.ID)
		if len(entries) != 2 {
			t.Errorf("expected 2 ledger entries, got %d", len(entries))
		}
	})

	t.Run("stale from status", func(t *testing.T) {
		_, _, err := s.ApplyTransition(ctx, store.TransitionWrite{
			ApplicationID:  app.ID,
			From:           store.StatusPending,
			To:             store.StatusRejected,
			At:             base,
			IdempotencyKey: "k2",
		})
		if !errors.Is(err, store.ErrStatusChanged) {
			t.Fatalf("got %v, want ErrStatusChanged", err)
		}
	})

	t.Run("activity by actor", func(t *testing.T) {
		entries, err := s.ListLedgerEntriesByActor(ctx, hr, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Status != store.StatusReviewing {
			t.Errorf("unexpected activity: %+v", entries)
		}
	})
}

func TestLedgerEntriesAreDetached(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	app := submit(t, s, uuid.New(), uuid.New(), base)
	hr := uuid.New()
	note := "phone screen booked"

	_, entry, err := s.ApplyTransition(ctx, store.TransitionWrite{
		ApplicationID:  app.ID,
		From:           store.StatusPending,
		To:             store.StatusReviewing,
		Note:           &note,
		UpdatedBy:      &hr,
		At:             base.Add(time.Minute),
		IdempotencyKey: "k-detached",
	})
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	*entry.Note = "rewritten"
	*entry.UpdatedBy = uuid.New()
	note = "rewritten by caller"

	got, err := s.GetLedgerEntryByKey(ctx, "k-detached")
	if err != nil {
		t.Fatalf("GetLedgerEntryByKey failed: %v", err)
	}
	if got.Note == nil || *got.Note != "phone screen booked" {
		t.Errorf("stored note = %v, want the original", got.Note)
	}
	if got.UpdatedBy == nil || *got.UpdatedBy != hr {
		t.Errorf("stored updated_by = %v, want %s", got.UpdatedBy, hr)
	}

	*got.Note = "changed again"
	entries, _ := s.ListLedgerEntries(ctx, app.ID)
	if last := entries[len(entries)-1]; last.Note == nil || *last.Note != "phone screen booked" {
		t.Errorf("ledger note = %v, want the original", last.Note)
	}

	if _, err := s.GetLedgerEntryByKey(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListApplications_FilterAndPaging(t *testing.T) {
	s := New()
	jobA, jobB := uuid.New(), uuid.New()
	base := time.Now()
	for i := 0; i < 3; i++ {
		submit(t, s, jobA, uuid.New(), base.Add(time.Duration(i)*time.Minute))
	}
	submit(t, s, jobB, uuid.New(), base)

	apps, _ := s.ListApplications(context.Background(), store.ApplicationFilter{JobID: jobA, Limit: 2})
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	if !apps[0].CreatedAt.After(apps[1].CreatedAt) {
		t.Error("expected newest first")
	}

	apps, _ = s.ListApplications(context.Background(), store.ApplicationFilter{JobID: jobA, Offset: 5})
	if len(apps) != 0 {
		t.Errorf("expected empty page, got %d", len(apps))
	}
}

func TestQueue_RetryThenExhaust(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	resumeID := uuid.New()
	if err := s.CreateResume(ctx, &store.Resume{ID: resumeID, OwnerID: uuid.New(), CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	for attempt := 1; attempt <= store.MaxRetries; attempt++ {
		items, _ := s.DequeueBatch(ctx, 10)
		if len(items) != 1 || items[0].Attempt != attempt {
			t.Fatalf("attempt %d: unexpected items %+v", attempt, items)
		}
		if again, _ := s.DequeueBatch(ctx, 10); len(again) != 0 {
			t.Fatalf("claimed item should be invisible")
		}

		exhausted, err := s.Fail(ctx, resumeID, "boom")
		if err != nil {
			t.Fatal(err)
		}
		if attempt < store.MaxRetries && exhausted {
			t.Fatalf("exhausted early at attempt %d", attempt)
		}
		if attempt == store.MaxRetries && !exhausted {
			t.Fatalf("expected exhaustion at attempt %d", attempt)
		}
		now = now.Add(store.Backoff(attempt) + time.Second)
	}

	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}
}

func TestCountJobsBy(t *testing.T) {
	ctx := context.Background()
	s := New()
	j1 := store.Job{ID: uuid.New(), Department: "engineering", Location: "Berlin", EmploymentType: store.EmploymentFullTime}
	j2 := store.Job{ID: uuid.New(), Department: "engineering", Location: "Remote", EmploymentType: store.EmploymentContract}
	j3 := store.Job{ID: uuid.New(), Location: "Berlin", EmploymentType: store.EmploymentFullTime}
	s.AddJob(j1)
	s.AddJob(j2)
	s.AddJob(j3)
	submit(t, s, j1.ID, uuid.New(), time.Now())
	submit(t, s, j1.ID, uuid.New(), time.Now())
	submit(t, s, j3.ID, uuid.New(), time.Now())

	groups, err := s.CountJobsBy(ctx, store.DimensionDepartment)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][2]int64{"": {1, 1}, "engineering": {2, 2}}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for _, g := range groups {
		if w := want[g.Key]; g.Jobs != w[0] || g.Applications != w[1] {
			t.Errorf("group %q: got jobs=%d apps=%d, want %v", g.Key, g.Jobs, g.Applications, w)
		}
	}
}

func TestLoadJobs(t *testing.T) {
	s := New()
	id := uuid.New()
	n, err := s.LoadJobs(strings.NewReader(`
jobs:
  - id: ` + id.String() + `
    title: Backend Engineer
    company: Acme
    department: engineering
    location: Berlin
    employment_type: contract
  - title: Designer
    company: Acme
    location: Remote
    status: draft
`))
	if err != nil {
		t.Fatalf("LoadJobs failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d jobs, want 2", n)
	}

	job, err := s.GetJobByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if job.EmploymentType != store.EmploymentContract || job.Status != store.JobStatusPublished {
		t.Errorf("unexpected job: %+v", job)
	}
	if total, _ := s.CountJobs(context.Background()); total != 2 {
		t.Errorf("got %d jobs, want 2", total)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	older := store.Job{ID: uuid.New(), Title: "Data Engineer", Description: "Spark and SQL", CreatedAt: base}
	newer := store.Job{ID: uuid.New(), Title: "Backend Engineer", Description: "Go services, SQL", CreatedAt: base.Add(time.Hour)}
	s.AddJob(older)
	s.AddJob(newer)

	jobs, err := s.SearchJobs(ctx, store.SearchFilter{Query: "sql"})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 || jobs[0].ID != newer.ID {
		t.Fatalf("jobs = %+v, want newest first", jobs)
	}
	jobs, _ = s.SearchJobs(ctx, store.SearchFilter{Query: "engineer", Limit: 1, Offset: 1})
	if len(jobs) != 1 || jobs[0].ID != older.ID {
		t.Errorf("second page = %+v", jobs)
	}

	app := submit(t, s, newer.ID, uuid.New(), base)
	comments := "Great system design answers"
	if _, err := s.UpdateReview(ctx, store.ReviewWrite{ApplicationID: app.ID, Comments: &comments, At: base}); err != nil {
		t.Fatal(err)
	}
	submit(t, s, older.ID, uuid.New(), base.Add(time.Minute))

	tests := []struct {
		query string
		want  int
	}{
		{"SYSTEM design", 1},
		{"pend", 2},
		{"offer", 0},
	}
	for _, tt := range tests {
		apps, err := s.SearchApplications(ctx, store.SearchFilter{Query: tt.query})
		if err != nil {
			t.Fatal(err)
		}
		if len(apps) != tt.want {
			t.Errorf("SearchApplications(%q) returned %d, want %d", tt.query, len(apps), tt.want)
		}
	}
}
