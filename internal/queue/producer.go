package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
)

// Producer publishes attempt jobs to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishAttempt publishes an attempt job to the queue
func (p *Producer) PublishAttempt(ctx context.Context, job *AttemptJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, AttemptQueueName, job); err != nil {
		return fmt.Errorf("failed to publish attempt job: %w", err)
	}

	slog.Info("published attempt job",
		"job_id", job.ID,
		"student_id", job.StudentID,
		"exercise_id", job.ExerciseID,
		"success", job.Success,
	)

	return nil
}

// CreateAttemptJob builds an attempt job from a submitted outcome
func CreateAttemptJob(studentID uuid.UUID, exerciseID string, outcome domain.AttemptOutcome) *AttemptJob {
	return &AttemptJob{
		ID:              uuid.New(),
		StudentID:       studentID,
		ExerciseID:      exerciseID,
		Success:         outcome.Success,
		Quality:         outcome.Quality,
		ResponseSeconds: outcome.ResponseSeconds,
		ErrorKind:       outcome.ErrorKind,
		HintsUsed:       outcome.HintsUsed,
		SubmittedAt:     time.Now(),
	}
}

// Outcome converts the job back to the domain outcome it carries
func (j *AttemptJob) Outcome() domain.AttemptOutcome {
	return domain.AttemptOutcome{
		Success:         j.Success,
		Quality:         j.Quality,
		ResponseSeconds: j.ResponseSeconds,
		ErrorKind:       j.ErrorKind,
		HintsUsed:       j.HintsUsed,
	}
}
