package revision

import (
	"time"

	"github.com/google/uuid"
)

// Easiness factor bounds (SM-2 family).
const (
	EasinessMin     = 1.3
	EasinessMax     = 2.5
	EasinessDefault = 2.5
)

// Interval progression in days.
const (
	initialIntervalDays = 1
	secondIntervalDays  = 6
	intervalGrowth      = 1.5
)

// Quality is the 0-5 recall rating of a review. Ratings below PassQuality
// take the failure path even when submitted through the success API.
const PassQuality = 3

// Schedule is the per (student, exercise) review state. It is created when
// an exercise first needs spaced review and thereafter only mutated by the
// scheduler; failure resets its state rather than deleting it.
type Schedule struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	ExerciseID   string
	NextReview   time.Time
	IntervalDays int
	Repetitions  int
	Easiness     float64
	// Version supports optimistic concurrency in the stores: rapid
	// successive updates to the same row must not silently overwrite
	// each other.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSchedule initializes a schedule due tomorrow.
func NewSchedule(studentID uuid.UUID, exerciseID string, now time.Time) *Schedule {
	return &Schedule{
		ID:           uuid.New(),
		StudentID:    studentID,
		ExerciseID:   exerciseID,
		NextReview:   now.AddDate(0, 0, initialIntervalDays),
		IntervalDays: initialIntervalDays,
		Repetitions:  0,
		Easiness:     EasinessDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Due reports whether the schedule is due at the given instant.
func (s *Schedule) Due(now time.Time) bool {
	return !s.NextReview.After(now)
}

// ReviewSuccess applies a successful recall with the given quality rating.
// Quality is clamped to 0-5; a rating below PassQuality is treated as a
// failed recall. On success the interval grows and the easiness factor
// shifts by the standard SM-2 delta, bounded to [EasinessMin, EasinessMax].
func (s *Schedule) ReviewSuccess(quality int, now time.Time) {
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}
	if quality < PassQuality {
		s.ReviewFailure(now)
		return
	}

	if s.IntervalDays <= initialIntervalDays {
		s.IntervalDays = secondIntervalDays
	} else {
		s.IntervalDays = int(float64(s.IntervalDays)*intervalGrowth + 0.5)
	}

	q := float64(quality)
	s.Easiness = clampEasiness(s.Easiness + (0.1 - (5-q)*(0.08+(5-q)*0.02)))
	s.Repetitions++
	s.NextReview = now.AddDate(0, 0, s.IntervalDays)
	s.UpdatedAt = now
}

// ReviewFailure resets the schedule: due tomorrow, repetition count cleared,
// easiness dropped to its floor. The hard easiness reset deviates from
// classical SM-2, which only adjusts the factor; the behavior is kept as the
// product defined it.
func (s *Schedule) ReviewFailure(now time.Time) {
	s.IntervalDays = initialIntervalDays
	s.Repetitions = 0
	s.Easiness = EasinessMin
	s.NextReview = now.AddDate(0, 0, initialIntervalDays)
	s.UpdatedAt = now
}

func clampEasiness(v float64) float64 {
	if v < EasinessMin {
		return EasinessMin
	}
	if v > EasinessMax {
		return EasinessMax
	}
	return v
}
