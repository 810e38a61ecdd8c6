package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// StudentStore persists student records in SQLite.
type StudentStore struct {
	db *DB
}

// NewStudentStore creates a new SQLite-backed student store.
func NewStudentStore(db *DB) *StudentStore {
	return &StudentStore{db: db}
}

// Save persists a student (insert or update).
func (s *StudentStore) Save(ctx context.Context, student *domain.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, level, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			level=excluded.level`,
		student.ID.String(), student.Name, student.Level, student.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// Get retrieves a student by ID.
func (s *StudentStore) Get(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	var (
		student domain.Student
		rawID   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, level, created_at FROM students WHERE id = ?`,
		id.String()).Scan(&rawID, &student.Name, &student.Level, &student.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	if student.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	return &student, nil
}
