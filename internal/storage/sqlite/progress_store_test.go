package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

func storeExercise(id string) *domain.Exercise {
	return &domain.Exercise{
		ID:      id,
		Title:   id,
		Concept: "addition_simple",
		Subject: "maths",
		Level:   "ce1",
		Tier:    domain.TierFacile,
		Type:    domain.TypeCalculation,
	}
}

func TestProgressStore_SaveAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	student := uuid.New()
	aggregate := domain.NewConceptProgress(student, storeExercise("ex-1"))
	aggregate.RecordAttempt(domain.AttemptRecord{
		ExerciseID:      "ex-1",
		At:              time.Now().UTC().Truncate(time.Second),
		Success:         true,
		ResponseSeconds: 12.5,
	})

	if err := store.Save(ctx, aggregate); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, student, "ex-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Attempts != 1 || got.Successes != 1 {
		t.Errorf("attempts/successes = %d/%d, want 1/1", got.Attempts, got.Successes)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusCompleted)
	}
	if len(got.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(got.History))
	}
	if got.History[0].ResponseSeconds != 12.5 {
		t.Errorf("History[0].ResponseSeconds = %v, want 12.5", got.History[0].ResponseSeconds)
	}
}

func TestProgressStore_GetMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	_, err := store.Get(context.Background(), uuid.New(), "nope")
	if !errors.Is(err, domain.ErrProgressNotFound) {
		t.Errorf("Get() error = %v, want ErrProgressNotFound", err)
	}
}

func TestProgressStore_SaveIsUpsert(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	student := uuid.New()
	aggregate := domain.NewConceptProgress(student, storeExercise("ex-1"))
	at := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		aggregate.RecordAttempt(domain.AttemptRecord{ExerciseID: "ex-1", At: at, Success: true})
		if err := store.Save(ctx, aggregate); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := store.Get(ctx, student, "ex-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", got.Attempts)
	}
	if got.Status != domain.StatusMastered {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusMastered)
	}
}

func TestProgressStore_ListFiltersByStudent(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	at := time.Now().UTC().Truncate(time.Second)

	for _, exID := range []string{"ex-b", "ex-a"} {
		aggregate := domain.NewConceptProgress(alice, storeExercise(exID))
		aggregate.RecordAttempt(domain.AttemptRecord{ExerciseID: exID, At: at, Success: true})
		if err := store.Save(ctx, aggregate); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	aliceList, err := store.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliceList) != 2 {
		t.Fatalf("len(aliceList) = %d, want 2", len(aliceList))
	}
	if aliceList[0].ExerciseID != "ex-a" || aliceList[1].ExerciseID != "ex-b" {
		t.Errorf("List() order = [%s %s], want sorted by exercise", aliceList[0].ExerciseID, aliceList[1].ExerciseID)
	}

	bobList, err := store.List(ctx, bob)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bobList) != 0 {
		t.Errorf("len(bobList) = %d, want 0", len(bobList))
	}
}
