package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrConceptNotFound     = errors.New("concept not found")
	ErrUnknownExerciseType = errors.New("unknown exercise type")
)

// Student and progress errors
var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrProgressNotFound = errors.New("progress not found")
)

// Revision schedule errors
var (
	ErrScheduleNotFound = errors.New("revision schedule not found")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
