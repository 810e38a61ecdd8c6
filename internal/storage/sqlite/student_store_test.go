package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

func TestStudentStore_SaveAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewStudentStore(db)
	ctx := context.Background()

	student := domain.NewStudent("Lea", "ce1")
	if err := store.Save(ctx, student); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Lea" || got.Level != "ce1" {
		t.Errorf("got %q/%q, want Lea/ce1", got.Name, got.Level)
	}
}

func TestStudentStore_GetMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewStudentStore(db)

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrStudentNotFound) {
		t.Errorf("Get() error = %v, want ErrStudentNotFound", err)
	}
}

func TestStudentStore_SaveIsUpsert(t *testing.T) {
	db := openTestDB(t)
	store := NewStudentStore(db)
	ctx := context.Background()

	student := domain.NewStudent("Lea", "ce1")
	if err := store.Save(ctx, student); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	student.Level = "ce2"
	if err := store.Save(ctx, student); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := store.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Level != "ce2" {
		t.Errorf("Level = %q, want ce2 after upsert", got.Level)
	}
}
