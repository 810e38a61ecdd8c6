package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// Store is the persistence contract for progress aggregates. Get returns
// domain.ErrProgressNotFound when no aggregate exists yet for the pair.
type Store interface {
	Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*domain.ConceptProgress, error)
	List(ctx context.Context, studentID uuid.UUID) ([]domain.ConceptProgress, error)
	Save(ctx context.Context, progress *domain.ConceptProgress) error
}

// Service is the read model over a student's attempt history. It assembles
// the inputs the engine components consume: full progress lists and recent
// attempt windows.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a progress service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// History returns every progress aggregate for the student.
func (s *Service) History(ctx context.Context, studentID uuid.UUID) ([]domain.ConceptProgress, error) {
	progress, err := s.store.List(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return progress, nil
}

// RecentWindow merges all attempt histories for the student and returns the
// n most recent records, newest first.
func (s *Service) RecentWindow(ctx context.Context, studentID uuid.UUID, n int) ([]domain.AttemptRecord, error) {
	progress, err := s.store.List(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	var window []domain.AttemptRecord
	for _, p := range progress {
		window = append(window, p.History...)
	}

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].At.After(window[j].At)
	})

	if n > 0 && len(window) > n {
		window = window[:n]
	}
	return window, nil
}

// RecordAttempt folds an attempt outcome into the student's aggregate for
// the exercise, creating the aggregate on first contact.
func (s *Service) RecordAttempt(ctx context.Context, studentID uuid.UUID, ex *domain.Exercise, outcome domain.AttemptOutcome) (*domain.ConceptProgress, error) {
	aggregate, err := s.store.Get(ctx, studentID, ex.ID)
	if errors.Is(err, domain.ErrProgressNotFound) {
		aggregate = domain.NewConceptProgress(studentID, ex)
	} else if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	aggregate.RecordAttempt(outcome.Record(ex.ID, s.now()))

	if err := s.store.Save(ctx, aggregate); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return aggregate, nil
}
