package domain

import "time"

// AttemptRecord is a single observed attempt at an exercise. Records are
// append-only: once created they are never mutated.
type AttemptRecord struct {
	ExerciseID      string
	At              time.Time
	Success         bool
	ResponseSeconds float64
	ErrorKind       string // empty when the attempt succeeded or no tag was captured
	HintsUsed       int
}

// AttemptOutcome is the caller-supplied result of an attempt submission.
// Quality follows the 0-5 recall scale used by the revision scheduler.
type AttemptOutcome struct {
	Success         bool
	Quality         int
	ResponseSeconds float64
	ErrorKind       string
	HintsUsed       int
}

// Record builds the immutable attempt record for this outcome.
func (o AttemptOutcome) Record(exerciseID string, at time.Time) AttemptRecord {
	return AttemptRecord{
		ExerciseID:      exerciseID,
		At:              at,
		Success:         o.Success,
		ResponseSeconds: o.ResponseSeconds,
		ErrorKind:       o.ErrorKind,
		HintsUsed:       o.HintsUsed,
	}
}
