package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// Store is the persistence contract for revision schedules. Upsert must
// enforce the optimistic version check and return domain.ErrConflict when
// the stored version no longer matches; retry policy belongs to the caller.
type Store interface {
	Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*Schedule, error)
	Upsert(ctx context.Context, schedule *Schedule) error
	ListDue(ctx context.Context, studentID uuid.UUID, now time.Time) ([]*Schedule, error)
}

// Scheduler maintains per (student, exercise) review schedules. It is the
// only engine component with persistent mutable state; everything else is
// recomputed per request.
type Scheduler struct {
	store Store
	now   func() time.Time
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, now: time.Now}
}

// Create initializes a schedule for an exercise that needs spaced review.
// Creating a schedule that already exists returns the existing one.
func (s *Scheduler) Create(ctx context.Context, studentID uuid.UUID, exerciseID string) (*Schedule, error) {
	existing, err := s.store.Get(ctx, studentID, exerciseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrScheduleNotFound) {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	schedule := NewSchedule(studentID, exerciseID, s.now())
	if err := s.store.Upsert(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return schedule, nil
}

// RecordOutcome folds an attempt outcome into the schedule. A successful
// attempt with no existing schedule is a no-op: there is nothing to review.
// A failed attempt creates the schedule on demand, making the exercise due
// tomorrow.
func (s *Scheduler) RecordOutcome(ctx context.Context, studentID uuid.UUID, exerciseID string, success bool, quality int) (*Schedule, error) {
	schedule, err := s.store.Get(ctx, studentID, exerciseID)
	if errors.Is(err, domain.ErrScheduleNotFound) {
		if success {
			return nil, nil
		}
		return s.Create(ctx, studentID, exerciseID)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	now := s.now()
	if success {
		schedule.ReviewSuccess(quality, now)
	} else {
		schedule.ReviewFailure(now)
	}

	if err := s.store.Upsert(ctx, schedule); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return schedule, nil
}

// RecordSuccess applies a successful review with a 0-5 quality rating.
func (s *Scheduler) RecordSuccess(ctx context.Context, studentID uuid.UUID, exerciseID string, quality int) (*Schedule, error) {
	return s.RecordOutcome(ctx, studentID, exerciseID, true, quality)
}

// RecordFailure applies a failed review.
func (s *Scheduler) RecordFailure(ctx context.Context, studentID uuid.UUID, exerciseID string) (*Schedule, error) {
	return s.RecordOutcome(ctx, studentID, exerciseID, false, 0)
}

// Due returns every schedule due now, most overdue first.
func (s *Scheduler) Due(ctx context.Context, studentID uuid.UUID) ([]*Schedule, error) {
	due, err := s.store.ListDue(ctx, studentID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextReview.Before(due[j].NextReview)
	})
	return due, nil
}
