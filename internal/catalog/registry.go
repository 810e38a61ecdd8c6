package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/apprentio/apprentio/internal/domain"
)

// Registry provides read access to the loaded exercise catalog. It also
// serves as the type lookup for the adaptation engine.
type Registry struct {
	loader    *Loader
	mu        sync.RWMutex
	packs     map[string]*Pack
	exercises map[string]*domain.Exercise
}

// NewRegistry creates a registry over the given loader.
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:    loader,
		packs:     make(map[string]*Pack),
		exercises: make(map[string]*domain.Exercise),
	}
}

// Load loads all packs and exercises into memory.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	packs, err := r.loader.LoadAllPacks()
	if err != nil {
		return fmt.Errorf("load packs: %w", err)
	}

	for _, pack := range packs {
		r.packs[pack.ID] = pack

		exercises, err := r.loader.LoadPackExercises(pack)
		if err != nil {
			return fmt.Errorf("load exercises for pack %s: %w", pack.ID, err)
		}
		for _, ex := range exercises {
			r.exercises[ex.ID] = ex
		}
	}
	return nil
}

// Reload drops the in-memory catalog and loads it again.
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.packs = make(map[string]*Pack)
	r.exercises = make(map[string]*domain.Exercise)
	r.mu.Unlock()

	return r.Load()
}

// Get returns an exercise by ID.
func (r *Registry) Get(id string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercise, ok := r.exercises[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, id)
	}
	return exercise, nil
}

// TypeOf resolves an exercise ID to its type tag.
func (r *Registry) TypeOf(id string) (domain.ExerciseType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercise, ok := r.exercises[id]
	if !ok {
		return "", false
	}
	return exercise.Type, true
}

// All returns every exercise, ordered by ID for stable output.
func (r *Registry) All() []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercises := make([]*domain.Exercise, 0, len(r.exercises))
	for _, ex := range r.exercises {
		exercises = append(exercises, ex)
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// ByConcept returns the exercises tagged with a competency, ordered by ID.
func (r *Registry) ByConcept(concept string) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.Concept == concept {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// BySubject returns the exercises of one subject, ordered by ID.
func (r *Registry) BySubject(subject string) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.Subject == subject {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// ByLevel returns the exercises of one school level, ordered by ID.
func (r *Registry) ByLevel(level string) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.Level == level {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// Packs returns every loaded pack manifest, ordered by ID.
func (r *Registry) Packs() []*Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()

	packs := make([]*Pack, 0, len(r.packs))
	for _, pack := range r.packs {
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].ID < packs[j].ID })
	return packs
}

// Stats summarizes the loaded catalog.
type Stats struct {
	PackCount     int            `json:"pack_count"`
	ExerciseCount int            `json:"exercise_count"`
	ByTier        map[string]int `json:"by_tier"`
	ByType        map[string]int `json:"by_type"`
	ByConcept     map[string]int `json:"by_concept"`
}

// Stats returns statistics about the loaded catalog.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		PackCount:     len(r.packs),
		ExerciseCount: len(r.exercises),
		ByTier:        make(map[string]int),
		ByType:        make(map[string]int),
		ByConcept:     make(map[string]int),
	}
	for _, ex := range r.exercises {
		stats.ByTier[string(ex.Tier)]++
		stats.ByType[string(ex.Type)]++
		stats.ByConcept[ex.Concept]++
	}
	return stats
}
