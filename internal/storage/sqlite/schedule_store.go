package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/revision"
)

// ScheduleStore implements revision.Store backed by SQLite.
type ScheduleStore struct {
	db *DB
}

// NewScheduleStore creates a new SQLite-backed schedule store.
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Get retrieves the schedule for a (student, exercise) pair.
func (s *ScheduleStore) Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*revision.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, exercise_id, next_review, interval_days,
			repetitions, easiness, version, created_at, updated_at
		FROM revision_schedules
		WHERE student_id = ? AND exercise_id = ?`,
		studentID.String(), exerciseID)

	return scanSchedule(row)
}

// Upsert inserts or updates a schedule with an optimistic version check.
// The schedule's version is bumped on success; a stale version returns
// domain.ErrConflict.
func (s *ScheduleStore) Upsert(ctx context.Context, schedule *revision.Schedule) error {
	if schedule.Version == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO revision_schedules (id, student_id, exercise_id,
				next_review, interval_days, repetitions, easiness, version,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			schedule.ID.String(), schedule.StudentID.String(), schedule.ExerciseID,
			schedule.NextReview, schedule.IntervalDays, schedule.Repetitions,
			schedule.Easiness, schedule.CreatedAt, schedule.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return fmt.Errorf("insert schedule: %w", err)
		}
		schedule.Version = 1
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE revision_schedules
		SET next_review = ?, interval_days = ?, repetitions = ?, easiness = ?,
			version = version + 1, updated_at = ?
		WHERE student_id = ? AND exercise_id = ? AND version = ?`,
		schedule.NextReview, schedule.IntervalDays, schedule.Repetitions,
		schedule.Easiness, schedule.UpdatedAt,
		schedule.StudentID.String(), schedule.ExerciseID, schedule.Version)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected == 0 {
		return domain.ErrConflict
	}
	schedule.Version++
	return nil
}

// ListDue returns every schedule for the student whose review date is at or
// before now.
func (s *ScheduleStore) ListDue(ctx context.Context, studentID uuid.UUID, now time.Time) ([]*revision.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, exercise_id, next_review, interval_days,
			repetitions, easiness, version, created_at, updated_at
		FROM revision_schedules
		WHERE student_id = ? AND next_review <= ?
		ORDER BY next_review ASC`,
		studentID.String(), now)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*revision.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*revision.Schedule, error) {
	var (
		schedule      revision.Schedule
		id, studentID string
	)
	err := row.Scan(&id, &studentID, &schedule.ExerciseID, &schedule.NextReview,
		&schedule.IntervalDays, &schedule.Repetitions, &schedule.Easiness,
		&schedule.Version, &schedule.CreatedAt, &schedule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if schedule.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse schedule id: %w", err)
	}
	if schedule.StudentID, err = uuid.Parse(studentID); err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	return &schedule, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
