package memory

import (
	"context"
	"sort"
	"time"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

// Enqueue schedules a resume for parsing. tx is ignored.
func (s *Store) Enqueue(_ context.Context, _ store.DBTransaction, resumeID uuid.UUID, visibleAfter time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if visibleAfter.IsZero() {
		visibleAfter = s.now()
	}
	s.queue[resumeID] = &queueEntry{
		resumeID:     resumeID,
		visibleAfter: visibleAfter,
		createdAt:    s.now(),
	}
	return int64(len(s.queue)), nil
}

func (s *Store) DequeueBatch(_ context.Context, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var visible []*queueEntry
	for _, e := range s.queue {
		if !e.visibleAfter.After(now) {
			visible = append(visible, e)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].createdAt.Before(visible[j].createdAt) })

	if len(visible) > limit {
		visible = visible[:limit]
	}
	if len(visible) == 0 {
		return nil, nil
	}

	items := make([]store.QueueItem, 0, len(visible))
	for _, e := range visible {
		e.attempt++
		e.visibleAfter = now.Add(store.VisibilityTimeout)
		items = append(items, store.QueueItem{ResumeID: e.resumeID, Attempt: e.attempt})
	}
	return items, nil
}

func (s *Store) Complete(_ context.Context, resumeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, resumeID)
	return nil
}

func (s *Store) Fail(_ context.Context, resumeID uuid.UUID, errMsg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.queue[resumeID]
	if !ok {
		return true, nil
	}
	if e.attempt < store.MaxRetries {
		e.lastError = errMsg
		e.visibleAfter = s.now().Add(store.Backoff(e.attempt))
		return false, nil
	}
	delete(s.queue, resumeID)
	return true, nil
}

func (s *Store) SetVisibleAfter(_ context.Context, resumeID uuid.UUID, visibleAfter time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.queue[resumeID]; ok {
		e.visibleAfter = visibleAfter
	}
	return nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.queue)), nil
}
