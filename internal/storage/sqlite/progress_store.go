package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// ProgressStore implements progress.Store backed by SQLite. The attempt
// history rides along as a JSON column; it is only ever read back whole.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Save persists a progress aggregate (insert or update).
func (s *ProgressStore) Save(ctx context.Context, p *domain.ConceptProgress) error {
	history, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO concept_progress (student_id, exercise_id, concept,
			subject, level, attempts, successes, success_rate, status,
			attempts_to_mastery, history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, exercise_id) DO UPDATE SET
			concept=excluded.concept,
			subject=excluded.subject,
			level=excluded.level,
			attempts=excluded.attempts,
			successes=excluded.successes,
			success_rate=excluded.success_rate,
			status=excluded.status,
			attempts_to_mastery=excluded.attempts_to_mastery,
			history=excluded.history,
			updated_at=excluded.updated_at`,
		p.StudentID.String(), p.ExerciseID, p.Concept, p.Subject, p.Level,
		p.Attempts, p.Successes, p.SuccessRate, string(p.Status),
		p.AttemptsToMastery, string(history), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Get retrieves the aggregate for a (student, exercise) pair.
func (s *ProgressStore) Get(ctx context.Context, studentID uuid.UUID, exerciseID string) (*domain.ConceptProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, exercise_id, concept, subject, level, attempts,
			successes, success_rate, status, attempts_to_mastery, history,
			updated_at
		FROM concept_progress
		WHERE student_id = ? AND exercise_id = ?`,
		studentID.String(), exerciseID)

	return scanProgress(row)
}

// List returns every aggregate for the student, ordered by exercise ID.
func (s *ProgressStore) List(ctx context.Context, studentID uuid.UUID) ([]domain.ConceptProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, exercise_id, concept, subject, level, attempts,
			successes, success_rate, status, attempts_to_mastery, history,
			updated_at
		FROM concept_progress
		WHERE student_id = ?
		ORDER BY exercise_id ASC`,
		studentID.String())
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []domain.ConceptProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProgress(row rowScanner) (*domain.ConceptProgress, error) {
	var (
		p         domain.ConceptProgress
		studentID string
		status    string
		history   string
	)
	err := row.Scan(&studentID, &p.ExerciseID, &p.Concept, &p.Subject,
		&p.Level, &p.Attempts, &p.Successes, &p.SuccessRate, &status,
		&p.AttemptsToMastery, &history, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}

	if p.StudentID, err = uuid.Parse(studentID); err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	p.Status = domain.ProgressStatus(status)
	if err := json.Unmarshal([]byte(history), &p.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &p, nil
}
