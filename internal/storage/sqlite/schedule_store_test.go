package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/revision"
)

func TestScheduleStore_UpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewScheduleStore(db)
	ctx := context.Background()

	student := uuid.New()
	schedule := revision.NewSchedule(student, "maths-ce1/addition-simple-1", time.Now().UTC())

	if err := store.Upsert(ctx, schedule); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if schedule.Version != 1 {
		t.Errorf("Version after insert = %d, want 1", schedule.Version)
	}

	got, err := store.Get(ctx, student, "maths-ce1/addition-simple-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != schedule.ID {
		t.Errorf("ID = %v, want %v", got.ID, schedule.ID)
	}
	if got.IntervalDays != 1 || got.Repetitions != 0 {
		t.Errorf("interval/repetitions = %d/%d, want 1/0", got.IntervalDays, got.Repetitions)
	}
	if got.Easiness != revision.EasinessDefault {
		t.Errorf("Easiness = %v, want %v", got.Easiness, revision.EasinessDefault)
	}
}

func TestScheduleStore_GetMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewScheduleStore(db)

	_, err := store.Get(context.Background(), uuid.New(), "nope")
	if !errors.Is(err, domain.ErrScheduleNotFound) {
		t.Errorf("Get() error = %v, want ErrScheduleNotFound", err)
	}
}

func TestScheduleStore_VersionConflict(t *testing.T) {
	db := openTestDB(t)
	store := NewScheduleStore(db)
	ctx := context.Background()

	student := uuid.New()
	schedule := revision.NewSchedule(student, "ex-1", time.Now().UTC())
	if err := store.Upsert(ctx, schedule); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Two readers, two writers: the second write must observe a stale
	// version and fail.
	first, err := store.Get(ctx, student, "ex-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := store.Get(ctx, student, "ex-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	first.ReviewSuccess(4, time.Now().UTC())
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	second.ReviewSuccess(5, time.Now().UTC())
	if err := store.Upsert(ctx, second); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second Upsert() error = %v, want ErrConflict", err)
	}
}

func TestScheduleStore_ListDue(t *testing.T) {
	db := openTestDB(t)
	store := NewScheduleStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	student := uuid.New()
	other := uuid.New()

	overdue := revision.NewSchedule(student, "overdue", now.AddDate(0, 0, -8))
	yesterday := revision.NewSchedule(student, "yesterday", now.AddDate(0, 0, -2))
	tomorrow := revision.NewSchedule(student, "tomorrow", now)
	foreign := revision.NewSchedule(other, "foreign", now.AddDate(0, 0, -2))

	for _, sch := range []*revision.Schedule{overdue, yesterday, tomorrow, foreign} {
		if err := store.Upsert(ctx, sch); err != nil {
			t.Fatalf("Upsert(%s) error = %v", sch.ExerciseID, err)
		}
	}

	due, err := store.ListDue(ctx, student, now)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("len(due) = %d, want 2", len(due))
	}
	if due[0].ExerciseID != "overdue" || due[1].ExerciseID != "yesterday" {
		t.Errorf("due order = [%s %s], want most overdue first", due[0].ExerciseID, due[1].ExerciseID)
	}
	for _, sch := range due {
		if sch.NextReview.After(now) {
			t.Errorf("schedule %s has future NextReview %v", sch.ExerciseID, sch.NextReview)
		}
	}
}
