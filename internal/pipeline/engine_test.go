package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hiretrack/internal/auth"
	"hiretrack/internal/store"
	"hiretrack/internal/store/memory"

	"github.com/google/uuid"
)

// flakyStore fails ApplyTransition with the queued errors before delegating.
type flakyStore struct {
	*memory.Store
	mu        sync.Mutex
	applyErrs []error
	applies   int
}

func (f *flakyStore) ApplyTransition(ctx context.Context, w store.TransitionWrite) (*store.Application, *store.LedgerEntry, error) {
	f.mu.Lock()
	f.applies++
	if len(f.applyErrs) > 0 {
		err := f.applyErrs[0]
		f.applyErrs = f.applyErrs[1:]
		f.mu.Unlock()
		return nil, nil, err
	}
	f.mu.Unlock()
	return f.Store.ApplyTransition(ctx, w)
}

type fixture struct {
	store     *flakyStore
	engine    *Engine
	job       store.Job
	applicant auth.Identity
	other     auth.Identity
	hr        auth.Identity
	admin     auth.Identity

	clockMu sync.Mutex
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     &flakyStore{Store: memory.New()},
		job:       store.Job{ID: uuid.New(), Title: "Backend Engineer", Company: "Acme", Location: "Berlin", Status: store.JobStatusPublished},
		applicant: auth.Identity{UserID: uuid.New(), Role: auth.RoleApplicant},
		other:     auth.Identity{UserID: uuid.New(), Role: auth.RoleApplicant},
		hr:        auth.Identity{UserID: uuid.New(), Role: auth.RoleHR},
		admin:     auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin},
		now:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.store.AddJob(f.job)
	f.engine = New(f.store, f.store, f.store, WithClock(f.tick))
	return f
}

func (f *fixture) tick() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fixture) resumeFor(t *testing.T, owner auth.Identity) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := f.store.CreateResume(context.Background(), &store.Resume{ID: id, OwnerID: owner.UserID}); err != nil {
		t.Fatal(err)
	}
	return id
}

func (f *fixture) submit(t *testing.T) *store.Application {
	t.Helper()
	app, err := f.engine.Submit(context.Background(), SubmitRequest{
		Actor:    f.applicant,
		JobID:    f.job.ID,
		ResumeID: f.resumeFor(t, f.applicant),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return app
}

// seedAt stores an application that already sits in status.
func (f *fixture) seedAt(t *testing.T, status store.Status) *store.Application {
	t.Helper()
	now := f.tick()
	app := &store.Application{
		ID:          uuid.New(),
		JobID:       uuid.New(),
		ApplicantID: f.applicant.UserID,
		ResumeID:    uuid.New(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	first := &store.LedgerEntry{Status: status, RecordedAt: now, IdempotencyKey: uuid.NewString()}
	if err := f.store.CreateApplication(context.Background(), app, first); err != nil {
		t.Fatal(err)
	}
	return app
}

func assertLedgerMatches(t *testing.T, s store.PipelineStore, id uuid.UUID) []store.LedgerEntry {
	t.Helper()
	ctx := context.Background()
	app, err := s.GetApplicationByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := s.ListLedgerEntries(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("ledger is empty")
	}
	if last := entries[len(entries)-1].Status; last != app.Status {
		t.Fatalf("ledger says %s, application says %s", last, app.Status)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].RecordedAt.Before(entries[i-1].RecordedAt) {
			t.Fatalf("ledger out of order at %d", i)
		}
	}
	return entries
}

func actorFor(f *fixture, target store.Status) auth.Identity {
	switch target {
	case store.StatusWithdrawn, store.StatusAccepted:
		return f.applicant
	case store.StatusPending:
		return f.admin
	default:
		return f.hr
	}
}

func TestTransition_TableCompleteness(t *testing.T) {
	for _, from := range store.Statuses {
		for _, to := range store.Statuses {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := newFixture(t)
				app := f.seedAt(t, from)

				res, err := f.engine.Transition(context.Background(), TransitionRequest{
					ApplicationID: app.ID,
					Actor:         actorFor(f, to),
					Target:        to,
				})

				if CanTransition(from, to) {
					if err != nil {
						t.Fatalf("expected success, got %v", err)
					}
					if res.Application.Status != to || res.Entry.Status != to {
						t.Fatalf("unexpected result: %+v / %+v", res.Application, res.Entry)
					}
					entries := assertLedgerMatches(t, f.store, app.ID)
					if len(entries) != 2 {
						t.Errorf("expected 2 ledger entries, got %d", len(entries))
					}
					return
				}

				if !IsKind(err, KindInvalidTransition) {
					t.Fatalf("expected invalid_transition, got %v", err)
				}
				if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 1 {
					t.Errorf("ledger changed on rejected transition")
				}
			})
		}
	}
}

func TestTransition_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		from   store.Status
		actor  func(f *fixture) auth.Identity
		target store.Status
		want   Kind
	}{
		{"applicant cannot schedule interview", store.StatusReviewing, func(f *fixture) auth.Identity { return f.applicant }, store.StatusInterview, KindForbidden},
		{"applicant cannot reject", store.StatusInterview, func(f *fixture) auth.Identity { return f.applicant }, store.StatusRejected, KindForbidden},
		{"hr cannot withdraw for applicant", store.StatusPending, func(f *fixture) auth.Identity { return f.hr }, store.StatusWithdrawn, KindForbidden},
		{"admin cannot accept an offer", store.StatusOffer, func(f *fixture) auth.Identity { return f.admin }, store.StatusAccepted, KindForbidden},
		{"other applicant cannot withdraw", store.StatusPending, func(f *fixture) auth.Identity { return f.other }, store.StatusWithdrawn, KindForbidden},
		{"other applicant learns nothing about terminal state", store.StatusRejected, func(f *fixture) auth.Identity { return f.other }, store.StatusWithdrawn, KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			app := f.seedAt(t, tt.from)

			_, err := f.engine.Transition(context.Background(), TransitionRequest{
				ApplicationID: app.ID,
				Actor:         tt.actor(f),
				Target:        tt.target,
			})
			if !IsKind(err, tt.want) {
				t.Fatalf("got %v, want %s", err, tt.want)
			}
			if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 1 {
				t.Errorf("ledger changed on forbidden transition")
			}
		})
	}
}

func TestTransition_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID: uuid.New(), Actor: f.hr, Target: store.StatusReviewing,
	})
	if !IsKind(err, KindNotFound) {
		t.Errorf("missing application: got %v, want not_found", err)
	}

	app := f.submit(t)
	_, err = f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID: app.ID, Actor: f.hr, Target: "hired",
	})
	if !IsKind(err, KindValidation) {
		t.Errorf("unknown status: got %v, want validation_error", err)
	}

	res, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID: app.ID, Actor: f.hr, Target: "shortlisted",
	})
	if err != nil {
		t.Fatalf("legacy status should be accepted: %v", err)
	}
	if res.Application.Status != store.StatusReviewing {
		t.Errorf("got %s, want reviewing", res.Application.Status)
	}
}

func TestTransition_RecordsActorAndNote(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	res, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing, Note: "  looks promising ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Entry.UpdatedBy == nil || *res.Entry.UpdatedBy != f.hr.UserID {
		t.Errorf("expected reviewer recorded, got %v", res.Entry.UpdatedBy)
	}
	if res.Entry.Note == nil || *res.Entry.Note != "looks promising" {
		t.Errorf("unexpected note %v", res.Entry.Note)
	}

	res, err = f.engine.Withdraw(context.Background(), f.applicant, app.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Entry.UpdatedBy != nil {
		t.Errorf("withdrawal must not record a reviewer, got %v", *res.Entry.UpdatedBy)
	}
	if res.Entry.Note != nil {
		t.Errorf("empty note should be nil")
	}
	assertLedgerMatches(t, f.store, app.ID)
}

func TestTransition_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	req := TransitionRequest{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing, RequestID: "req-1"}
	first, err := f.engine.Transition(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	// The application has moved on; the replay still answers with the recorded result.
	second, err := f.engine.Transition(context.Background(), req)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.Entry.ID != second.Entry.ID {
		t.Errorf("replay wrote a new entry: %d != %d", first.Entry.ID, second.Entry.ID)
	}
	if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestTransition_ReplayAfterApplicationMovedOn(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	review := TransitionRequest{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing, Note: "first look", RequestID: "req-review"}
	first, err := f.engine.Transition(ctx, review)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Transition(ctx, TransitionRequest{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusInterview, RequestID: "req-interview"}); err != nil {
		t.Fatal(err)
	}

	replay, err := f.engine.Transition(ctx, review)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.Entry.ID != first.Entry.ID || replay.Entry.Status != store.StatusReviewing {
		t.Errorf("replay entry = %+v, want recorded entry %d", replay.Entry, first.Entry.ID)
	}
	if replay.Application.Status != store.StatusInterview {
		t.Errorf("replay application status = %s, want the current interview", replay.Application.Status)
	}
	if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}

	t.Run("other applicants still cannot see it", func(t *testing.T) {
		stolen := review
		stolen.Actor = f.other
		if _, err := f.engine.Transition(ctx, stolen); KindOf(err) != KindForbidden {
			t.Errorf("got %v, want forbidden", err)
		}
	})

	t.Run("a new request id is validated", func(t *testing.T) {
		again := review
		again.RequestID = "req-review-2"
		if _, err := f.engine.Transition(ctx, again); KindOf(err) != KindInvalidTransition {
			t.Errorf("got %v, want invalid_transition", err)
		}
	})
}

func TestTransition_RetriesTransientErrorOnce(t *testing.T) {
	t.Run("second attempt succeeds", func(t *testing.T) {
		f := newFixture(t)
		app := f.submit(t)
		f.store.applyErrs = []error{errors.New("connection reset")}

		res, err := f.engine.Transition(context.Background(), TransitionRequest{
			ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing,
		})
		if err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if res.Application.Status != store.StatusReviewing {
			t.Errorf("got %s", res.Application.Status)
		}
		if f.store.applies != 2 {
			t.Errorf("expected 2 attempts, got %d", f.store.applies)
		}
	})

	t.Run("two failures surface as conflict", func(t *testing.T) {
		f := newFixture(t)
		app := f.submit(t)
		f.store.applyErrs = []error{errors.New("connection reset"), errors.New("connection reset")}

		_, err := f.engine.Transition(context.Background(), TransitionRequest{
			ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing,
		})
		if !IsKind(err, KindConflict) {
			t.Fatalf("got %v, want conflict", err)
		}
		if f.store.applies != 2 {
			t.Errorf("expected exactly 2 attempts, got %d", f.store.applies)
		}
		if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 1 {
			t.Errorf("failed transition left %d entries", len(entries))
		}
	})
}

func TestTransition_ConcurrentConflictingTransitions(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		app := f.seedAt(t, store.StatusInterview)
		hr2 := auth.Identity{UserID: uuid.New(), Role: auth.RoleHR}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for i, req := range []TransitionRequest{
			{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusOffer},
			{ApplicationID: app.ID, Actor: hr2, Target: store.StatusRejected},
		} {
			wg.Add(1)
			go func(i int, req TransitionRequest) {
				defer wg.Done()
				<-start
				_, errs[i] = f.engine.Transition(context.Background(), req)
			}(i, req)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case IsKind(err, KindConflict), IsKind(err, KindInvalidTransition):
			default:
				t.Fatalf("unexpected error kind: %v", err)
			}
		}
		// offer -> rejected is legal, so both may succeed only if they ran one after the other.
		entries := assertLedgerMatches(t, f.store, app.ID)
		if len(entries) != 1+succeeded {
			t.Fatalf("round %d: %d successes but %d ledger entries", round, succeeded, len(entries))
		}
		if succeeded == 0 {
			t.Fatalf("round %d: no transition succeeded", round)
		}
	}
}

func TestTransition_ConcurrentMutuallyExclusive(t *testing.T) {
	f := newFixture(t)
	app := f.seedAt(t, store.StatusOffer)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i, req := range []TransitionRequest{
		{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusRejected},
		{ApplicationID: app.ID, Actor: f.applicant, Target: store.StatusAccepted},
	} {
		wg.Add(1)
		go func(i int, req TransitionRequest) {
			defer wg.Done()
			<-start
			_, errs[i] = f.engine.Transition(context.Background(), req)
		}(i, req)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !IsKind(err, KindInvalidTransition) && !IsKind(err, KindConflict) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one success, got %d", succeeded)
	}
	if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 2 {
		t.Fatalf("expected exactly one new ledger entry, got %d entries", len(entries))
	}
}

func TestSubmit(t *testing.T) {
	t.Run("creates pending application with first ledger entry", func(t *testing.T) {
		f := newFixture(t)
		app := f.submit(t)
		if app.Status != store.StatusPending {
			t.Errorf("got %s, want pending", app.Status)
		}
		entries := assertLedgerMatches(t, f.store, app.ID)
		if len(entries) != 1 || entries[0].UpdatedBy != nil {
			t.Errorf("unexpected first entry: %+v", entries)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		_, err := f.engine.Submit(context.Background(), SubmitRequest{
			Actor: f.applicant, JobID: f.job.ID, ResumeID: f.resumeFor(t, f.applicant),
		})
		if !IsKind(err, KindDuplicateApplication) {
			t.Fatalf("got %v, want duplicate_application", err)
		}
	})

	tests := []struct {
		name  string
		setup func(f *fixture, t *testing.T) SubmitRequest
		want  Kind
	}{
		{"unknown job", func(f *fixture, t *testing.T) SubmitRequest {
			return SubmitRequest{Actor: f.applicant, JobID: uuid.New(), ResumeID: f.resumeFor(t, f.applicant)}
		}, KindNotFound},
		{"closed job", func(f *fixture, t *testing.T) SubmitRequest {
			closed := store.Job{ID: uuid.New(), Status: store.JobStatusClosed}
			f.store.AddJob(closed)
			return SubmitRequest{Actor: f.applicant, JobID: closed.ID, ResumeID: f.resumeFor(t, f.applicant)}
		}, KindValidation},
		{"someone else's resume", func(f *fixture, t *testing.T) SubmitRequest {
			return SubmitRequest{Actor: f.applicant, JobID: f.job.ID, ResumeID: f.resumeFor(t, f.other)}
		}, KindValidation},
		{"missing resume", func(f *fixture, t *testing.T) SubmitRequest {
			return SubmitRequest{Actor: f.applicant, JobID: f.job.ID, ResumeID: uuid.New()}
		}, KindValidation},
		{"missing job id", func(f *fixture, t *testing.T) SubmitRequest {
			return SubmitRequest{Actor: f.applicant, ResumeID: uuid.New()}
		}, KindValidation},
		{"staff cannot apply", func(f *fixture, t *testing.T) SubmitRequest {
			return SubmitRequest{Actor: f.hr, JobID: f.job.ID, ResumeID: f.resumeFor(t, f.hr)}
		}, KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.engine.Submit(context.Background(), tt.setup(f, t))
			if !IsKind(err, tt.want) {
				t.Fatalf("got %v, want %s", err, tt.want)
			}
		})
	}
}

func TestHistoryAndGet(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	if _, err := f.engine.Transition(ctx, TransitionRequest{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing}); err != nil {
		t.Fatal(err)
	}

	entries, err := f.engine.History(ctx, f.applicant, app.ID)
	if err != nil {
		t.Fatalf("owner history: %v", err)
	}
	if len(entries) != 2 || entries[0].Status != store.StatusPending || entries[1].Status != store.StatusReviewing {
		t.Errorf("unexpected history: %+v", entries)
	}

	if _, err := f.engine.History(ctx, f.hr, app.ID); err != nil {
		t.Errorf("hr history: %v", err)
	}
	if _, err := f.engine.History(ctx, f.other, app.ID); !IsKind(err, KindForbidden) {
		t.Errorf("other applicant: got %v, want forbidden", err)
	}
	if _, err := f.engine.History(ctx, f.hr, uuid.New()); !IsKind(err, KindNotFound) {
		t.Errorf("missing application: got %v, want not_found", err)
	}

	view, err := f.engine.Get(ctx, f.applicant, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Job == nil || view.Job.Title != "Backend Engineer" {
		t.Errorf("expected job summary, got %+v", view.Job)
	}
	if _, err := f.engine.Get(ctx, f.other, app.ID); !IsKind(err, KindForbidden) {
		t.Errorf("other applicant get: got %v, want forbidden", err)
	}
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()
	rating := 4
	comments := "solid systems background"

	got, err := f.engine.Review(ctx, ReviewRequest{Actor: f.hr, ApplicationID: app.ID, Rating: &rating, Comments: &comments})
	if err != nil {
		t.Fatal(err)
	}
	if got.Rating == nil || *got.Rating != 4 || got.Comments == nil || *got.Comments != comments {
		t.Errorf("review not applied: %+v", got)
	}
	if got.Status != store.StatusPending {
		t.Errorf("review must not change status")
	}
	if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != 1 {
		t.Errorf("review must not touch the ledger")
	}

	bad := 6
	tests := []struct {
		name string
		req  ReviewRequest
		want Kind
	}{
		{"rating out of range", ReviewRequest{Actor: f.hr, ApplicationID: app.ID, Rating: &bad}, KindValidation},
		{"nothing to update", ReviewRequest{Actor: f.hr, ApplicationID: app.ID}, KindValidation},
		{"applicant cannot review", ReviewRequest{Actor: f.applicant, ApplicationID: app.ID, Rating: &rating}, KindForbidden},
		{"missing application", ReviewRequest{Actor: f.admin, ApplicationID: uuid.New(), Rating: &rating}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.engine.Review(ctx, tt.req); !IsKind(err, tt.want) {
				t.Fatalf("got %v, want %s", err, tt.want)
			}
		})
	}
}

func TestListAndActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)
	if _, err := f.engine.Transition(ctx, TransitionRequest{ApplicationID: app.ID, Actor: f.hr, Target: store.StatusReviewing}); err != nil {
		t.Fatal(err)
	}

	mine, err := f.engine.ListMine(ctx, f.applicant)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListMine: %v, %d", err, len(mine))
	}
	if others, _ := f.engine.ListMine(ctx, f.other); len(others) != 0 {
		t.Errorf("other applicant sees %d applications", len(others))
	}

	if _, err := f.engine.List(ctx, f.applicant, ListFilter{}); !IsKind(err, KindForbidden) {
		t.Errorf("applicant list: got %v, want forbidden", err)
	}
	list, err := f.engine.List(ctx, f.hr, ListFilter{Status: "reviewing"})
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v, %d", err, len(list))
	}
	if list, _ := f.engine.List(ctx, f.hr, ListFilter{Status: "pending"}); len(list) != 0 {
		t.Errorf("status filter ignored")
	}
	if _, err := f.engine.List(ctx, f.hr, ListFilter{Status: "bogus"}); !IsKind(err, KindValidation) {
		t.Errorf("bad status: got %v, want validation_error", err)
	}

	activity, err := f.engine.Activity(ctx, f.admin, f.hr.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(activity.Actions) != 1 || activity.Actions[0].Status != store.StatusReviewing {
		t.Errorf("unexpected hr activity: %+v", activity.Actions)
	}
	activity, _ = f.engine.Activity(ctx, f.admin, f.applicant.UserID)
	if len(activity.Applications) != 1 {
		t.Errorf("expected applicant's application in activity, got %d", len(activity.Applications))
	}
	if _, err := f.engine.Activity(ctx, f.hr, f.applicant.UserID); !IsKind(err, KindForbidden) {
		t.Errorf("hr activity: got %v, want forbidden", err)
	}
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)

	steps := []struct {
		actor  auth.Identity
		target store.Status
		want   Kind // empty means success
		ledger int
	}{
		{f.hr, store.StatusReviewing, "", 2},
		{f.hr, store.StatusInterview, "", 3},
		{f.applicant, store.StatusRejected, KindForbidden, 3},
		{f.hr, store.StatusOffer, "", 4},
		{f.applicant, store.StatusAccepted, "", 5},
		{f.hr, store.StatusRejected, KindInvalidTransition, 5},
		{f.applicant, store.StatusWithdrawn, KindInvalidTransition, 5},
	}

	for i, step := range steps {
		_, err := f.engine.Transition(ctx, TransitionRequest{ApplicationID: app.ID, Actor: step.actor, Target: step.target})
		if step.want == "" && err != nil {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
		if step.want != "" && !IsKind(err, step.want) {
			t.Fatalf("step %d: got %v, want %s", i, err, step.want)
		}
		if entries := assertLedgerMatches(t, f.store, app.ID); len(entries) != step.ledger {
			t.Fatalf("step %d: ledger length %d, want %d", i, len(entries), step.ledger)
		}
	}
}
