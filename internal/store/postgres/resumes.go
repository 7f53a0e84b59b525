package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

// CreateResume inserts the resume row and its parse queue entry in one transaction.
func (s *Store) CreateResume(ctx context.Context, resume *store.Resume) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if resume.ParseState == "" {
		resume.ParseState = store.ParseStatePending
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resumes (id, owner_id, filename, content_type, path, parse_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		resume.ID,
		resume.OwnerID,
		resume.Filename,
		resume.ContentType,
		resume.Path,
		resume.ParseState,
		resume.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resume: %w", err)
	}

	if _, err := s.Enqueue(ctx, tx, resume.ID, resume.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetResumeByID returns a resume or store.ErrNotFound.
func (s *Store) GetResumeByID(ctx context.Context, id uuid.UUID) (*store.Resume, error) {
	query := `
		SELECT id, owner_id, filename, content_type, path, parse_state, parsed, created_at
		FROM resumes
		WHERE id = $1
	`

	var r store.Resume
	var parsed []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.OwnerID,
		&r.Filename,
		&r.ContentType,
		&r.Path,
		&r.ParseState,
		&parsed,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resume %s: %w", id, err)
	}

	if len(parsed) > 0 {
		var content store.ParsedContent
		if err := json.Unmarshal(parsed, &content); err != nil {
			return nil, fmt.Errorf("failed to decode parsed resume %s: %w", id, err)
		}
		r.Parsed = &content
	}

	return &r, nil
}

// SaveParsedResume stores extracted metadata and marks the resume parsed.
func (s *Store) SaveParsedResume(ctx context.Context, id uuid.UUID, parsed store.ParsedContent) error {
	data, err := json.Marshal(parsed)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE resumes SET parse_state = $1, parsed = $2 WHERE id = $3",
		store.ParseStateParsed, data, id)
	if err != nil {
		return fmt.Errorf("failed to save parsed resume %s: %w", id, err)
	}
	return requireRow(res)
}

// MarkResumeParseFailed records that extraction gave up.
func (s *Store) MarkResumeParseFailed(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE resumes SET parse_state = $1 WHERE id = $2",
		store.ParseStateFailed, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
