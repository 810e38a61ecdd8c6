package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStatus tracks where a student stands on a single exercise.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
	StatusFailed     ProgressStatus = "failed"
	// StatusMastered is terminal. The source data distinguished easy mastery
	// from hard-won mastery; both collapse into this single status and both
	// count toward mastery in downstream heuristics.
	StatusMastered ProgressStatus = "mastered"
)

// Mastery thresholds for a single exercise.
const (
	masteryMinAttempts  = 3
	masterySuccessRate  = 0.8
	failedMinAttempts   = 3
	failedMaxSuccessRate = 0.34
)

// ConceptProgress is the per (student, exercise) aggregate of attempt
// history. Created on the first attempt, updated on every subsequent one,
// never deleted.
type ConceptProgress struct {
	StudentID   uuid.UUID
	ExerciseID  string
	Concept     string
	Subject     string
	Level       string
	Attempts    int
	Successes   int
	SuccessRate float64
	Status      ProgressStatus
	// AttemptsToMastery is the attempt count at the moment mastery was
	// reached, zero while not mastered.
	AttemptsToMastery int
	// History holds attempt records ordered most recent first.
	History   []AttemptRecord
	UpdatedAt time.Time
}

// NewConceptProgress creates the aggregate for a first attempt.
func NewConceptProgress(studentID uuid.UUID, ex *Exercise) *ConceptProgress {
	return &ConceptProgress{
		StudentID:  studentID,
		ExerciseID: ex.ID,
		Concept:    ex.Concept,
		Subject:    ex.Subject,
		Level:      ex.Level,
		Status:     StatusNotStarted,
	}
}

// RecordAttempt folds a new attempt into the aggregate and advances the
// status. Mastery is sticky: once reached, later failures do not demote it.
func (p *ConceptProgress) RecordAttempt(rec AttemptRecord) {
	p.Attempts++
	if rec.Success {
		p.Successes++
	}
	p.SuccessRate = float64(p.Successes) / float64(p.Attempts)
	p.History = append([]AttemptRecord{rec}, p.History...)
	p.UpdatedAt = rec.At

	if p.Status == StatusMastered {
		return
	}

	switch {
	case p.Attempts >= masteryMinAttempts && p.SuccessRate >= masterySuccessRate:
		p.Status = StatusMastered
		p.AttemptsToMastery = p.Attempts
	case rec.Success:
		p.Status = StatusCompleted
	case p.Attempts >= failedMinAttempts && p.SuccessRate < failedMaxSuccessRate:
		p.Status = StatusFailed
	default:
		p.Status = StatusInProgress
	}
}

// Mastered reports whether this exercise counts toward mastery heuristics.
func (p *ConceptProgress) Mastered() bool {
	return p.Status == StatusMastered
}

// Completed reports whether the student has at least one successful outcome.
func (p *ConceptProgress) Completed() bool {
	return p.Status == StatusCompleted || p.Status == StatusMastered
}

// LastAttempt returns the most recent attempt, or nil for an empty history.
func (p *ConceptProgress) LastAttempt() *AttemptRecord {
	if len(p.History) == 0 {
		return nil
	}
	return &p.History[0]
}
