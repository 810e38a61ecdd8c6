package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apprentio/apprentio/internal/domain"
)

// StudentRepository persists student records in PostgreSQL.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Save persists a student (create or update).
func (r *StudentRepository) Save(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (id, name, level, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			level = EXCLUDED.level
	`
	_, err := r.pool.Exec(ctx, query,
		student.ID, student.Name, student.Level, student.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// Get retrieves a student by ID.
func (r *StudentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	query := `SELECT id, name, level, created_at FROM students WHERE id = $1`

	student := &domain.Student{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&student.ID, &student.Name, &student.Level, &student.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}
