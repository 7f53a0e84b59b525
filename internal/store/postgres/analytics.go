package postgres

import (
	"context"
	"fmt"
	"time"

	"hiretrack/internal/store"

	sq "github.com/Masterminds/squirrel"
)

// CountApplicationsByStatus groups applications by their current status.
// Legacy status values are normalised, so one status may appear more than once.
func (s *Store) CountApplicationsByStatus(ctx context.Context) ([]store.StatusCount, error) {
	query, args, err := psql.Select("status", "COUNT(*)").
		From("applications").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	defer rows.Close()

	var counts []store.StatusCount
	for rows.Next() {
		var raw string
		var c store.StatusCount
		if err := rows.Scan(&raw, &c.Count); err != nil {
			return nil, err
		}
		c.Status = normalizeStatus(raw)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountApplicationsPerDay counts applications created in [from, to) per UTC day.
// Days without applications are omitted.
func (s *Store) CountApplicationsPerDay(ctx context.Context, from, to time.Time) ([]store.DayCount, error) {
	query, args, err := psql.Select("(created_at AT TIME ZONE 'UTC')::date AS day", "COUNT(*)").
		From("applications").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		GroupBy("day").
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications per day: %w", err)
	}
	defer rows.Close()

	var counts []store.DayCount
	for rows.Next() {
		var c store.DayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		c.Day = c.Day.UTC()
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountJobsBy groups jobs by dim, with the number of applications each group received.
func (s *Store) CountJobsBy(ctx context.Context, dim store.JobDimension) ([]store.GroupCount, error) {
	var column string
	switch dim {
	case store.DimensionDepartment, store.DimensionLocation, store.DimensionEmploymentType:
		column = "j." + string(dim)
	default:
		return nil, fmt.Errorf("unknown job dimension %q", dim)
	}

	query, args, err := psql.Select(column, "COUNT(DISTINCT j.id)", "COUNT(a.id)").
		From("jobs j").
		LeftJoin("applications a ON a.job_id = j.id").
		GroupBy(column).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by %s: %w", dim, err)
	}
	defer rows.Close()

	var groups []store.GroupCount
	for rows.Next() {
		var g store.GroupCount
		if err := rows.Scan(&g.Key, &g.Jobs, &g.Applications); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CountJobs returns the number of job postings.
func (s *Store) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count)
	return count, err
}

// RecentApplications returns the newest applications.
func (s *Store) RecentApplications(ctx context.Context, limit int) ([]store.Application, error) {
	return s.ListApplications(ctx, store.ApplicationFilter{Limit: limit})
}
