package revision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

func testScheduler(now time.Time) (*Scheduler, *MemoryStore) {
	store := NewMemoryStore()
	s := NewScheduler(store)
	s.now = func() time.Time { return now }
	return s, store
}

func TestScheduler_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, _ := testScheduler(now)
	studentID := uuid.New()

	created, err := s.Create(ctx, studentID, "maths-ce1/addition-1")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.IntervalDays != 1 || created.Easiness != EasinessDefault {
		t.Errorf("unexpected initial state: %+v", created)
	}

	t.Run("create is idempotent", func(t *testing.T) {
		again, err := s.Create(ctx, studentID, "maths-ce1/addition-1")
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if again.ID != created.ID {
			t.Error("second Create() should return the existing schedule")
		}
	})
}

func TestScheduler_RecordOutcome(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	studentID := uuid.New()

	t.Run("success without a schedule is a no-op", func(t *testing.T) {
		s, store := testScheduler(now)

		schedule, err := s.RecordSuccess(ctx, studentID, "ex", 5)
		if err != nil {
			t.Fatalf("RecordSuccess() error: %v", err)
		}
		if schedule != nil {
			t.Error("no schedule should be created for a clean success")
		}
		if _, err := store.Get(ctx, studentID, "ex"); !errors.Is(err, domain.ErrScheduleNotFound) {
			t.Errorf("store should stay empty, got %v", err)
		}
	})

	t.Run("failure creates the schedule on demand", func(t *testing.T) {
		s, _ := testScheduler(now)

		schedule, err := s.RecordFailure(ctx, studentID, "ex")
		if err != nil {
			t.Fatalf("RecordFailure() error: %v", err)
		}
		if schedule == nil {
			t.Fatal("failure should create a schedule")
		}
		if !schedule.NextReview.Equal(now.AddDate(0, 0, 1)) {
			t.Errorf("NextReview = %v, want tomorrow", schedule.NextReview)
		}
	})

	t.Run("success advances an existing schedule", func(t *testing.T) {
		s, _ := testScheduler(now)
		if _, err := s.Create(ctx, studentID, "ex"); err != nil {
			t.Fatalf("Create() error: %v", err)
		}

		schedule, err := s.RecordSuccess(ctx, studentID, "ex", 4)
		if err != nil {
			t.Fatalf("RecordSuccess() error: %v", err)
		}
		if schedule.IntervalDays != 6 {
			t.Errorf("IntervalDays = %d, want 6", schedule.IntervalDays)
		}
		if schedule.Repetitions != 1 {
			t.Errorf("Repetitions = %d, want 1", schedule.Repetitions)
		}
	})
}

func TestScheduler_Due(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s, store := testScheduler(now)
	studentID := uuid.New()

	put := func(exerciseID string, next time.Time) {
		schedule := NewSchedule(studentID, exerciseID, now)
		schedule.NextReview = next
		if err := store.Upsert(ctx, schedule); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}

	put("due-yesterday", now.AddDate(0, 0, -1))
	put("due-last-week", now.AddDate(0, 0, -7))
	put("due-now", now)
	put("due-tomorrow", now.AddDate(0, 0, 1))

	due, err := s.Due(ctx, studentID)
	if err != nil {
		t.Fatalf("Due() error: %v", err)
	}

	if len(due) != 3 {
		t.Fatalf("Due() returned %d schedules, want 3", len(due))
	}
	// Most overdue first.
	wantOrder := []string{"due-last-week", "due-yesterday", "due-now"}
	for i, want := range wantOrder {
		if due[i].ExerciseID != want {
			t.Errorf("due[%d] = %s, want %s", i, due[i].ExerciseID, want)
		}
	}
	for _, schedule := range due {
		if schedule.NextReview.After(now) {
			t.Errorf("Due() returned a future schedule: %s", schedule.ExerciseID)
		}
	}
}

func TestScheduler_Due_OtherStudentInvisible(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, store := testScheduler(now)

	other := NewSchedule(uuid.New(), "ex", now.AddDate(0, 0, -2))
	if err := store.Upsert(ctx, other); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	due, err := s.Due(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Due() error: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Due() = %d schedules, want 0 for a different student", len(due))
	}
}

func TestMemoryStore_Upsert_VersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	schedule := NewSchedule(uuid.New(), "ex", now)
	if err := store.Upsert(ctx, schedule); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	// Two readers race on the same row; the slower writer must conflict.
	first, _ := store.Get(ctx, schedule.StudentID, "ex")
	second, _ := store.Get(ctx, schedule.StudentID, "ex")

	first.ReviewSuccess(5, now)
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert() error: %v", err)
	}

	second.ReviewFailure(now)
	if err := store.Upsert(ctx, second); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second Upsert() = %v, want ErrConflict", err)
	}
}

func TestMemoryStore_Get_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	schedule := NewSchedule(uuid.New(), "ex", time.Now())
	store.Upsert(ctx, schedule)

	got, _ := store.Get(ctx, schedule.StudentID, "ex")
	got.IntervalDays = 99

	again, _ := store.Get(ctx, schedule.StudentID, "ex")
	if again.IntervalDays == 99 {
		t.Error("Get() must return a copy, not the stored pointer")
	}
}
