package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/store"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var jobColumns = []string{
	"id", "title", "company", "department", "location",
	"employment_type", "status", "remote", "created_at", "description",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*store.Job, error) {
	var job store.Job
	err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Department,
		&job.Location,
		&job.EmploymentType,
		&job.Status,
		&job.Remote,
		&job.CreatedAt,
		&job.Description,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobByID returns a job posting or store.ErrNotFound.
func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	query, args, err := psql.Select(jobColumns...).From("jobs").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}

	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// GetJobsByIDs returns the jobs that exist among ids, keyed by ID.
func (s *Store) GetJobsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*store.Job, error) {
	jobs := make(map[uuid.UUID]*store.Job, len(ids))
	if len(ids) == 0 {
		return jobs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query, args, err := psql.Select(jobColumns...).From("jobs").Where(sq.Eq{"id": keys}).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs[job.ID] = job
	}
	return jobs, rows.Err()
}

// SearchJobs matches the query against title and description with ILIKE.
func (s *Store) SearchJobs(ctx context.Context, f store.SearchFilter) ([]store.Job, error) {
	pattern := likePattern(f.Query)
	b := psql.Select(jobColumns...).From("jobs").
		Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"description": pattern}}).
		OrderBy("created_at DESC", "id DESC")
	b = page(b, f.Limit, f.Offset)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}
	defer rows.Close()

	jobs := []store.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern turns user input into a substring pattern with wildcards escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}

func page(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}
