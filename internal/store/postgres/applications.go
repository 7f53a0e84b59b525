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

var applicationColumns = []string{
	"id", "job_id", "applicant_id", "resume_id", "status",
	"rating", "comments", "created_at", "updated_at",
}

func scanApplication(row rowScanner) (*store.Application, error) {
	var app store.Application
	var status string
	var rating sql.NullInt64
	var comments sql.NullString

	err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.ApplicantID,
		&app.ResumeID,
		&status,
		&rating,
		&comments,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Status = normalizeStatus(status)
	if rating.Valid {
		r := int(rating.Int64)
		app.Rating = &r
	}
	if comments.Valid {
		c := comments.String
		app.Comments = &c
	}
	return &app, nil
}

// normalizeStatus maps rows written with older vocabulary onto canonical statuses.
func normalizeStatus(raw string) store.Status {
	if st, ok := store.ParseStatus(raw); ok {
		return st
	}
	return store.Status(raw)
}

// CreateApplication inserts the application and its first ledger entry atomically.
func (s *Store) CreateApplication(ctx context.Context, app *store.Application, first *store.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (id, job_id, applicant_id, resume_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		app.ID,
		app.JobID,
		app.ApplicantID,
		app.ResumeID,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}

	first.ApplicationID = app.ID
	if err := s.insertLedgerEntry(ctx, tx, first); err != nil {
		return err
	}

	return tx.Commit()
}

// GetApplicationByID returns an application or store.ErrNotFound.
func (s *Store) GetApplicationByID(ctx context.Context, id uuid.UUID) (*store.Application, error) {
	return s.getApplication(ctx, nil, id, false)
}

func (s *Store) getApplication(ctx context.Context, tx store.DBTransaction, id uuid.UUID, forUpdate bool) (*store.Application, error) {
	b := psql.Select(applicationColumns...).From("applications").Where("id = ?", id)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	app, err := scanApplication(s.getExecutor(tx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application %s: %w", id, err)
	}
	return app, nil
}

// ListApplications returns applications matching filter, newest first.
func (s *Store) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]store.Application, error) {
	b := psql.Select(applicationColumns...).From("applications")

	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status.StoredValues()})
	}
	if filter.JobID != uuid.Nil {
		b = b.Where("job_id = ?", filter.JobID)
	}
	if filter.ApplicantID != uuid.Nil {
		b = b.Where("applicant_id = ?", filter.ApplicantID)
	}

	b = page(b.OrderBy("created_at DESC", "id DESC"), filter.Limit, filter.Offset)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryApplications(ctx, query, args...)
}

// SearchApplications matches the query against status and comments with ILIKE.
func (s *Store) SearchApplications(ctx context.Context, f store.SearchFilter) ([]store.Application, error) {
	pattern := likePattern(f.Query)
	b := psql.Select(applicationColumns...).From("applications").
		Where(sq.Or{sq.ILike{"status": pattern}, sq.ILike{"comments": pattern}}).
		OrderBy("created_at DESC", "id DESC")
	b = page(b, f.Limit, f.Offset)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryApplications(ctx, query, args...)
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]store.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []store.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// ApplyTransition moves an application to w.To and appends the ledger entry.
// The row lock serialises concurrent transitions of the same application.
func (s *Store) ApplyTransition(ctx context.Context, w store.TransitionWrite) (*store.Application, *store.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	app, err := s.getApplication(ctx, tx, w.ApplicationID, true)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.getLedgerEntryByKey(ctx, tx, w.IdempotencyKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		if err := tx.Commit(); err != nil {
			return nil, nil, err
		}
		return app, existing, nil
	}

	if app.Status != w.From {
		return nil, nil, store.ErrStatusChanged
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3",
		w.To, w.At, w.ApplicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update application status: %w", err)
	}

	entry := &store.LedgerEntry{
		ApplicationID:  w.ApplicationID,
		Status:         w.To,
		Note:           w.Note,
		RecordedAt:     w.At,
		UpdatedBy:      w.UpdatedBy,
		IdempotencyKey: w.IdempotencyKey,
	}
	if err := s.insertLedgerEntry(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	app.Status = w.To
	app.UpdatedAt = w.At
	return app, entry, nil
}

// UpdateReview sets rating and/or comments. Nil fields keep their current value.
func (s *Store) UpdateReview(ctx context.Context, w store.ReviewWrite) (*store.Application, error) {
	b := psql.Update("applications").Set("updated_at", w.At).Where("id = ?", w.ApplicationID)
	if w.Rating != nil {
		b = b.Set("rating", *w.Rating)
	}
	if w.Comments != nil {
		b = b.Set("comments", *w.Comments)
	}

	query, args, err := b.Suffix("RETURNING " + strings.Join(applicationColumns, ", ")).ToSql()
	if err != nil {
		return nil, err
	}

	app, err := scanApplication(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return app, nil
}
