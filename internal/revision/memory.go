package revision

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and single-process
// deployments. It enforces the same optimistic version check as the
// persistent stores.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules map[scheduleKey]*Schedule
}

type scheduleKey struct {
	studentID  uuid.UUID
	exerciseID string
}

// NewMemoryStore creates an empty in-memory schedule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schedules: make(map[scheduleKey]*Schedule)}
}

// Get returns a copy of the stored schedule.
func (s *MemoryStore) Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.schedules[scheduleKey{studentID, exerciseID}]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	copied := *stored
	return &copied, nil
}

// Upsert stores the schedule, bumping its version. A version mismatch with
// the stored row returns domain.ErrConflict.
func (s *MemoryStore) Upsert(ctx context.Context, schedule *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scheduleKey{schedule.StudentID, schedule.ExerciseID}
	if stored, ok := s.schedules[key]; ok && stored.Version != schedule.Version {
		return domain.ErrConflict
	}

	schedule.Version++
	copied := *schedule
	s.schedules[key] = &copied
	return nil
}

// ListDue returns copies of every schedule with NextReview at or before now.
func (s *MemoryStore) ListDue(ctx context.Context, studentID uuid.UUID, now time.Time) ([]*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Schedule
	for key, stored := range s.schedules {
		if key.studentID != studentID {
			continue
		}
		if stored.Due(now) {
			copied := *stored
			due = append(due, &copied)
		}
	}
	return due, nil
}
