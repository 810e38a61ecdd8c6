package domain

import (
	"time"

	"github.com/google/uuid"
)

// Student identifies a learner. The engine only needs identity and the
// school level used to scope catalog lookups.
type Student struct {
	ID        uuid.UUID
	Name      string
	Level     string // school level: "cp", "ce1", "ce2"
	CreatedAt time.Time
}

// NewStudent creates a student with a fresh identity.
func NewStudent(name, level string) *Student {
	return &Student{
		ID:        uuid.New(),
		Name:      name,
		Level:     level,
		CreatedAt: time.Now(),
	}
}
