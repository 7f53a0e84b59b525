package postgres

import (
	"context"
	"testing"
	"time"

	"hiretrack/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCountApplicationsByStatus(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM applications GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", int64(3)).
			AddRow("selected", int64(1)))

	counts, err := s.CountApplicationsByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountApplicationsByStatus failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(counts))
	}
	if counts[1].Status != store.StatusAccepted {
		t.Errorf("legacy status not normalised: got %s", counts[1].Status)
	}
}

func TestCountApplicationsPerDay(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)
	day1 := from
	day3 := from.AddDate(0, 0, 2)

	mock.ExpectQuery(`SELECT \(created_at AT TIME ZONE 'UTC'\)::date AS day, COUNT\(\*\) FROM applications WHERE created_at >= \$1 AND created_at < \$2 GROUP BY day ORDER BY day`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow(day1, int64(2)).
			AddRow(day3, int64(1)))

	counts, err := s.CountApplicationsPerDay(context.Background(), from, to)
	if err != nil {
		t.Fatalf("CountApplicationsPerDay failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(counts))
	}
	if !counts[1].Day.Equal(day3) || counts[1].Count != 1 {
		t.Errorf("unexpected row: %+v", counts[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCountJobsBy(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT j.department, COUNT\(DISTINCT j.id\), COUNT\(a.id\) FROM jobs j LEFT JOIN applications a ON a.job_id = j.id GROUP BY j.department`).
		WillReturnRows(sqlmock.NewRows([]string{"department", "jobs", "applications"}).
			AddRow("", int64(1), int64(0)).
			AddRow("engineering", int64(2), int64(5)))

	groups, err := s.CountJobsBy(context.Background(), store.DimensionDepartment)
	if err != nil {
		t.Fatalf("CountJobsBy failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[1].Key != "engineering" || groups[1].Jobs != 2 || groups[1].Applications != 5 {
		t.Errorf("unexpected group: %+v", groups[1])
	}
}

func TestCountJobsBy_UnknownDimension(t *testing.T) {
	s, _ := newMockStore(t)
	defer s.db.Close()

	if _, err := s.CountJobsBy(context.Background(), store.JobDimension("salary; DROP TABLE jobs")); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}
