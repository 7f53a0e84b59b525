package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hiretrack/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Enqueue schedules a resume for parsing.
func (s *Store) Enqueue(ctx context.Context, tx store.DBTransaction, resumeID uuid.UUID, visibleAfter time.Time) (int64, error) {
	if visibleAfter.IsZero() {
		visibleAfter = time.Now()
	}

	query := `
		INSERT INTO resume_parse_queue (resume_id, visible_after)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	err := s.getExecutor(tx).QueryRowContext(ctx, query, resumeID, visibleAfter).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue resume %s: %w", resumeID, err)
	}

	return id, nil
}

// DequeueBatch claims up to 'limit' visible resumes using SELECT ... FOR UPDATE SKIP LOCKED.
// Claimed items become invisible for store.VisibilityTimeout and their attempt is incremented.
func (s *Store) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, resume_id, attempt
		FROM resume_parse_queue
		WHERE visible_after <= NOW()
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("batch dequeue query failed: %w", err)
	}
	defer rows.Close()

	var items []store.QueueItem
	var queueIDs []int64

	for rows.Next() {
		var queueID int64
		var item store.QueueItem
		if err := rows.Scan(&queueID, &item.ResumeID, &item.Attempt); err != nil {
			return nil, fmt.Errorf("batch dequeue scan failed: %w", err)
		}
		item.Attempt++
		items = append(items, item)
		queueIDs = append(queueIDs, queueID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch dequeue rows error: %w", err)
	}

	if len(items) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE resume_parse_queue
		SET visible_after = NOW() + ($1 * INTERVAL '1 second'), attempt = attempt + 1
		WHERE id = ANY($2)
	`, store.VisibilityTimeout.Seconds(), pq.Array(queueIDs))
	if err != nil {
		return nil, fmt.Errorf("batch visibility update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// Complete removes a parsed resume from the queue.
func (s *Store) Complete(ctx context.Context, resumeID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM resume_parse_queue WHERE resume_id = $1", resumeID)
	return err
}

// Fail records a parse failure. The item is retried with store.Backoff
// until store.MaxRetries, after which it is dropped and true is returned.
func (s *Store) Fail(ctx context.Context, resumeID uuid.UUID, errMsg string) (bool, error) {
	var attempt int
	err := s.db.QueryRowContext(ctx, "SELECT attempt FROM resume_parse_queue WHERE resume_id = $1", resumeID).Scan(&attempt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already gone, nothing left to retry.
			return true, nil
		}
		return false, err
	}

	if attempt < store.MaxRetries {
		backoff := store.Backoff(attempt)
		_, err = s.db.ExecContext(ctx, `
			UPDATE resume_parse_queue
			SET visible_after = NOW() + ($1 * INTERVAL '1 second'), last_error = $2
			WHERE resume_id = $3
		`, backoff.Seconds(), errMsg, resumeID)
		return false, err
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM resume_parse_queue WHERE resume_id = $1", resumeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete exhausted item from queue: %w", err)
	}
	return true, nil
}

// SetVisibleAfter extends the visibility timeout of a claimed item.
func (s *Store) SetVisibleAfter(ctx context.Context, resumeID uuid.UUID, visibleAfter time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE resume_parse_queue SET visible_after = $1 WHERE resume_id = $2",
		visibleAfter, resumeID)
	return err
}

// Count returns the number of queued resumes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resume_parse_queue").Scan(&count)
	return count, err
}
