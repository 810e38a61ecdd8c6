// Package repository holds the PostgreSQL persistence used by the server
// deployment. The local binary uses the SQLite stores instead; both satisfy
// the same store interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/revision"
)

// ScheduleRepository implements revision.Store using PostgreSQL.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new PostgreSQL schedule repository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// Get retrieves the schedule for a (student, exercise) pair.
func (r *ScheduleRepository) Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*revision.Schedule, error) {
	query := `
		SELECT id, student_id, exercise_id, next_review, interval_days,
			repetitions, easiness, version, created_at, updated_at
		FROM revision_schedules
		WHERE student_id = $1 AND exercise_id = $2
	`
	schedule := &revision.Schedule{}
	err := r.pool.QueryRow(ctx, query, studentID, exerciseID).Scan(
		&schedule.ID, &schedule.StudentID, &schedule.ExerciseID,
		&schedule.NextReview, &schedule.IntervalDays, &schedule.Repetitions,
		&schedule.Easiness, &schedule.Version, &schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return schedule, nil
}

// Upsert inserts or updates a schedule with an optimistic version check.
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *revision.Schedule) error {
	if schedule.Version == 0 {
		query := `
			INSERT INTO revision_schedules (id, student_id, exercise_id,
				next_review, interval_days, repetitions, easiness, version,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
			ON CONFLICT (student_id, exercise_id) DO NOTHING
		`
		tag, err := r.pool.Exec(ctx, query,
			schedule.ID, schedule.StudentID, schedule.ExerciseID,
			schedule.NextReview, schedule.IntervalDays, schedule.Repetitions,
			schedule.Easiness, schedule.CreatedAt, schedule.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// A concurrent insert won the race.
			return domain.ErrConflict
		}
		schedule.Version = 1
		return nil
	}

	query := `
		UPDATE revision_schedules
		SET next_review = $1, interval_days = $2, repetitions = $3,
			easiness = $4, version = version + 1, updated_at = $5
		WHERE student_id = $6 AND exercise_id = $7 AND version = $8
	`
	tag, err := r.pool.Exec(ctx, query,
		schedule.NextReview, schedule.IntervalDays, schedule.Repetitions,
		schedule.Easiness, schedule.UpdatedAt,
		schedule.StudentID, schedule.ExerciseID, schedule.Version,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	schedule.Version++
	return nil
}

// ListDue returns every schedule for the student due at or before now.
func (r *ScheduleRepository) ListDue(ctx context.Context, studentID uuid.UUID, now time.Time) ([]*revision.Schedule, error) {
	query := `
		SELECT id, student_id, exercise_id, next_review, interval_days,
			repetitions, easiness, version, created_at, updated_at
		FROM revision_schedules
		WHERE student_id = $1 AND next_review <= $2
		ORDER BY next_review ASC
	`
	rows, err := r.pool.Query(ctx, query, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*revision.Schedule
	for rows.Next() {
		schedule := &revision.Schedule{}
		if err := rows.Scan(
			&schedule.ID, &schedule.StudentID, &schedule.ExerciseID,
			&schedule.NextReview, &schedule.IntervalDays, &schedule.Repetitions,
			&schedule.Easiness, &schedule.Version, &schedule.CreatedAt,
			&schedule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// Ensure ScheduleRepository implements revision.Store
var _ revision.Store = (*ScheduleRepository)(nil)
