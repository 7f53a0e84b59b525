// Package store contains the database layer for hiretrack.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Retry policy shared by queue implementations.
const (
	MaxRetries        = 5
	VisibilityTimeout = 5 * time.Minute
)

// Backoff returns the delay before retrying an item that failed on attempt (10s * 2^attempt).
func Backoff(attempt int) time.Duration {
	return time.Duration(10*(1<<attempt)) * time.Second
}

// ParseQueue defines the resume parse queue operations.
// Implementations must use SELECT ... FOR UPDATE SKIP LOCKED semantics.
type ParseQueue interface {
	// Enqueue schedules a resume for parsing.
	Enqueue(ctx context.Context, tx DBTransaction, resumeID uuid.UUID, visibleAfter time.Time) (int64, error)

	// DequeueBatch claims up to 'limit' available resumes atomically.
	// Returns nil slice if queue is empty.
	DequeueBatch(ctx context.Context, limit int) ([]QueueItem, error)

	// Complete removes a parsed resume from the queue.
	Complete(ctx context.Context, resumeID uuid.UUID) error

	// Fail schedules a retry with backoff. It reports true when retries are
	// exhausted and the item was dropped.
	Fail(ctx context.Context, resumeID uuid.UUID, errMsg string) (bool, error)

	// SetVisibleAfter extends the visibility timeout (heartbeat).
	SetVisibleAfter(ctx context.Context, resumeID uuid.UUID, visibleAfter time.Time) error

	// Count tracks count of items in queue
	Count(ctx context.Context) (int64, error)
}

// QueueItem represents a dequeued resume.
type QueueItem struct {
	ResumeID uuid.UUID
	Attempt  int
}
