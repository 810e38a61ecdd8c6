package progress

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

type progressKey struct {
	studentID  uuid.UUID
	exerciseID string
}

// MemoryStore is an in-memory Store for tests and the local binary.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[progressKey]domain.ConceptProgress
}

// NewMemoryStore creates an empty in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[progressKey]domain.ConceptProgress)}
}

func (m *MemoryStore) Get(_ context.Context, studentID uuid.UUID, exerciseID string) (*domain.ConceptProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[progressKey{studentID, exerciseID}]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return copyProgress(item), nil
}

func (m *MemoryStore) List(_ context.Context, studentID uuid.UUID) ([]domain.ConceptProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ConceptProgress
	for key, item := range m.items {
		if key.studentID == studentID {
			out = append(out, *copyProgress(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExerciseID < out[j].ExerciseID })
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, progress *domain.ConceptProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *copyProgress(*progress)
	m.items[progressKey{progress.StudentID, progress.ExerciseID}] = stored
	return nil
}

func copyProgress(p domain.ConceptProgress) *domain.ConceptProgress {
	out := p
	out.History = append([]domain.AttemptRecord(nil), p.History...)
	return &out
}
