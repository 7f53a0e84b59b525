package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

const ledgerColumns = "id, application_id, status, note, recorded_at, updated_by, idempotency_key"

func scanLedgerEntry(row rowScanner) (*store.LedgerEntry, error) {
	var e store.LedgerEntry
	var status string
	var note sql.NullString
	var updatedBy uuid.NullUUID

	if err := row.Scan(&e.ID, &e.ApplicationID, &status, &note, &e.RecordedAt, &updatedBy, &e.IdempotencyKey); err != nil {
		return nil, err
	}

	e.Status = normalizeStatus(status)
	if note.Valid {
		n := note.String
		e.Note = &n
	}
	if updatedBy.Valid {
		id := updatedBy.UUID
		e.UpdatedBy = &id
	}
	return &e, nil
}

// insertLedgerEntry appends an entry. recorded_at never goes backwards for an
// application, even if clocks disagree between writers.
func (s *Store) insertLedgerEntry(ctx context.Context, tx store.DBTransaction, e *store.LedgerEntry) error {
	query := `
		INSERT INTO pipeline_ledger (application_id, status, note, recorded_at, updated_by, idempotency_key)
		VALUES (
			$1, $2, $3,
			GREATEST($4::timestamptz, COALESCE(
				(SELECT MAX(recorded_at) FROM pipeline_ledger WHERE application_id = $1),
				$4::timestamptz)),
			$5, $6
		)
		RETURNING id, recorded_at
	`

	err := s.getExecutor(tx).QueryRowContext(ctx, query,
		e.ApplicationID,
		e.Status,
		e.Note,
		e.RecordedAt,
		e.UpdatedBy,
		e.IdempotencyKey,
	).Scan(&e.ID, &e.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetLedgerEntryByKey returns the entry recorded under an idempotency key.
func (s *Store) GetLedgerEntryByKey(ctx context.Context, key string) (*store.LedgerEntry, error) {
	return s.getLedgerEntryByKey(ctx, nil, key)
}

func (s *Store) getLedgerEntryByKey(ctx context.Context, tx store.DBTransaction, key string) (*store.LedgerEntry, error) {
	query := "SELECT " + ledgerColumns + " FROM pipeline_ledger WHERE idempotency_key = $1"

	e, err := scanLedgerEntry(s.getExecutor(tx).QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up ledger entry: %w", err)
	}
	return e, nil
}

// ListLedgerEntries returns an application's history in chronological order.
func (s *Store) ListLedgerEntries(ctx context.Context, applicationID uuid.UUID) ([]store.LedgerEntry, error) {
	query := "SELECT " + ledgerColumns + `
		FROM pipeline_ledger
		WHERE application_id = $1
		ORDER BY recorded_at ASC, id ASC`

	return s.queryLedger(ctx, query, applicationID)
}

// ListLedgerEntriesByActor returns entries written by userID, newest first.
func (s *Store) ListLedgerEntriesByActor(ctx context.Context, userID uuid.UUID, limit int) ([]store.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + ledgerColumns + `
		FROM pipeline_ledger
		WHERE updated_by = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`

	return s.queryLedger(ctx, query, userID, limit)
}

func (s *Store) queryLedger(ctx context.Context, query string, args ...any) ([]store.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := []store.LedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
