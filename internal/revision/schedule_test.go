package revision

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSchedule(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := NewSchedule(uuid.New(), "maths-ce1/addition-1", now)

	if s.IntervalDays != 1 {
		t.Errorf("IntervalDays = %d, want 1", s.IntervalDays)
	}
	if s.Repetitions != 0 {
		t.Errorf("Repetitions = %d, want 0", s.Repetitions)
	}
	if s.Easiness != EasinessDefault {
		t.Errorf("Easiness = %f, want %f", s.Easiness, EasinessDefault)
	}
	if !s.NextReview.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("NextReview = %v, want tomorrow", s.NextReview)
	}
	if s.Due(now) {
		t.Error("new schedule should not be due immediately")
	}
	if !s.Due(now.AddDate(0, 0, 1)) {
		t.Error("new schedule should be due after one day")
	}
}

func TestSchedule_ReviewSuccess(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("first success jumps to six days", func(t *testing.T) {
		s := NewSchedule(uuid.New(), "ex", now)
		s.ReviewSuccess(5, now)

		if s.IntervalDays != 6 {
			t.Errorf("IntervalDays = %d, want 6", s.IntervalDays)
		}
		if s.Repetitions != 1 {
			t.Errorf("Repetitions = %d, want 1", s.Repetitions)
		}
		if !s.NextReview.Equal(now.AddDate(0, 0, 6)) {
			t.Errorf("NextReview = %v, want now+6d", s.NextReview)
		}
	})

	t.Run("interval six grows to nine with quality four", func(t *testing.T) {
		s := NewSchedule(uuid.New(), "ex", now)
		s.IntervalDays = 6
		s.Repetitions = 1
		s.Easiness = 2.0

		s.ReviewSuccess(4, now)

		if s.IntervalDays != 9 {
			t.Errorf("IntervalDays = %d, want round(6*1.5)=9", s.IntervalDays)
		}
		// 2.0 + (0.1 - 1*(0.08 + 1*0.02)) = 2.0
		if math.Abs(s.Easiness-2.0) > 1e-9 {
			t.Errorf("Easiness = %f, want 2.0", s.Easiness)
		}
		if s.Repetitions != 2 {
			t.Errorf("Repetitions = %d, want 2", s.Repetitions)
		}
	})

	t.Run("quality below three takes the failure path", func(t *testing.T) {
		s := NewSchedule(uuid.New(), "ex", now)
		s.IntervalDays = 12
		s.Repetitions = 3
		s.Easiness = 2.2

		s.ReviewSuccess(2, now)

		if s.IntervalDays != 1 {
			t.Errorf("IntervalDays = %d, want 1", s.IntervalDays)
		}
		if s.Repetitions != 0 {
			t.Errorf("Repetitions = %d, want 0", s.Repetitions)
		}
		if s.Easiness != EasinessMin {
			t.Errorf("Easiness = %f, want floor %f", s.Easiness, EasinessMin)
		}
	})

	t.Run("quality is clamped to the 0-5 range", func(t *testing.T) {
		s := NewSchedule(uuid.New(), "ex", now)
		s.IntervalDays = 6
		s.Easiness = 2.0

		s.ReviewSuccess(17, now) // clamps to 5

		// quality 5 delta: +0.1
		if math.Abs(s.Easiness-2.1) > 1e-9 {
			t.Errorf("Easiness = %f, want 2.1", s.Easiness)
		}
	})

	t.Run("easiness never exceeds the ceiling", func(t *testing.T) {
		s := NewSchedule(uuid.New(), "ex", now)
		s.IntervalDays = 6
		s.Easiness = EasinessMax

		s.ReviewSuccess(5, now)

		if s.Easiness != EasinessMax {
			t.Errorf("Easiness = %f, want ceiling %f", s.Easiness, EasinessMax)
		}
	})

	t.Run("success never shrinks the interval", func(t *testing.T) {
		for _, interval := range []int{1, 6, 9, 30, 365} {
			for quality := 3; quality <= 5; quality++ {
				s := NewSchedule(uuid.New(), "ex", now)
				s.IntervalDays = interval

				s.ReviewSuccess(quality, now)

				if s.IntervalDays < interval {
					t.Errorf("interval shrank from %d to %d at quality %d",
						interval, s.IntervalDays, quality)
				}
			}
		}
	})
}

func TestSchedule_ReviewFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Failure resets regardless of prior state.
	states := []*Schedule{
		NewSchedule(uuid.New(), "ex", now),
		{IntervalDays: 42, Repetitions: 7, Easiness: 2.5},
		{IntervalDays: 1, Repetitions: 0, Easiness: 1.3},
	}

	for _, s := range states {
		s.ReviewFailure(now)

		if s.IntervalDays != 1 {
			t.Errorf("IntervalDays = %d, want 1", s.IntervalDays)
		}
		if s.Repetitions != 0 {
			t.Errorf("Repetitions = %d, want 0", s.Repetitions)
		}
		if s.Easiness != EasinessMin {
			t.Errorf("Easiness = %f, want floor reset", s.Easiness)
		}
		if !s.NextReview.Equal(now.AddDate(0, 0, 1)) {
			t.Errorf("NextReview = %v, want tomorrow", s.NextReview)
		}
		if !s.Due(now.AddDate(0, 0, 1)) {
			t.Error("failed schedule should be due tomorrow")
		}
	}
}
