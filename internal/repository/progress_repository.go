package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/progress"
)

// ProgressRepository implements progress.Store using PostgreSQL. The attempt
// history is stored as a JSONB column and always read back whole.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new PostgreSQL progress repository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Save persists a progress aggregate (create or update).
func (r *ProgressRepository) Save(ctx context.Context, p *domain.ConceptProgress) error {
	history, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	query := `
		INSERT INTO concept_progress (student_id, exercise_id, concept,
			subject, level, attempts, successes, success_rate, status,
			attempts_to_mastery, history, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_id, exercise_id) DO UPDATE SET
			concept = EXCLUDED.concept,
			subject = EXCLUDED.subject,
			level = EXCLUDED.level,
			attempts = EXCLUDED.attempts,
			successes = EXCLUDED.successes,
			success_rate = EXCLUDED.success_rate,
			status = EXCLUDED.status,
			attempts_to_mastery = EXCLUDED.attempts_to_mastery,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		p.StudentID, p.ExerciseID, p.Concept, p.Subject, p.Level,
		p.Attempts, p.Successes, p.SuccessRate, string(p.Status),
		p.AttemptsToMastery, history, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Get retrieves the aggregate for a (student, exercise) pair.
func (r *ProgressRepository) Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*domain.ConceptProgress, error) {
	query := `
		SELECT student_id, exercise_id, concept, subject, level, attempts,
			successes, success_rate, status, attempts_to_mastery, history,
			updated_at
		FROM concept_progress
		WHERE student_id = $1 AND exercise_id = $2
	`
	p, err := scanProgressRow(r.pool.QueryRow(ctx, query, studentID, exerciseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	return p, err
}

// List returns every aggregate for the student, ordered by exercise ID.
func (r *ProgressRepository) List(ctx context.Context, studentID uuid.UUID) ([]domain.ConceptProgress, error) {
	query := `
		SELECT student_id, exercise_id, concept, subject, level, attempts,
			successes, success_rate, status, attempts_to_mastery, history,
			updated_at
		FROM concept_progress
		WHERE student_id = $1
		ORDER BY exercise_id ASC
	`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []domain.ConceptProgress
	for rows.Next() {
		p, err := scanProgressRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProgressRow(row pgx.Row) (*domain.ConceptProgress, error) {
	var (
		p       domain.ConceptProgress
		status  string
		history []byte
	)
	err := row.Scan(&p.StudentID, &p.ExerciseID, &p.Concept, &p.Subject,
		&p.Level, &p.Attempts, &p.Successes, &p.SuccessRate, &status,
		&p.AttemptsToMastery, &history, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan progress: %w", err)
	}

	p.Status = domain.ProgressStatus(status)
	if err := json.Unmarshal(history, &p.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &p, nil
}

// Ensure ProgressRepository implements progress.Store
var _ progress.Store = (*ProgressRepository)(nil)
