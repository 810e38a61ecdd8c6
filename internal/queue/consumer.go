package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/apprentio/apprentio/internal/domain"
)

// AttemptHandler applies one attempt job. Returning domain.ErrConflict asks
// for a redelivery; any other error drops the message.
type AttemptHandler func(ctx context.Context, job *AttemptJob) error

// Consumer consumes attempt jobs from the queue
type Consumer struct {
	conn       *Connection
	handler    AttemptHandler
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // Number of concurrent workers
	Prefetch int // Prefetch count per worker
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // Process one at a time per worker for fairness
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler AttemptHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	// Set QoS (prefetch)
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Start consuming
	msgs, err := ch.Consume(
		AttemptQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting attempt queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	// Start worker goroutines
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single message
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var job AttemptJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal attempt job",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := c.handler(jobCtx, &job)
	duration := time.Since(start)

	switch {
	case err == nil:
		slog.Info("attempt applied",
			"worker_id", workerID,
			"job_id", job.ID,
			"student_id", job.StudentID,
			"exercise_id", job.ExerciseID,
			"duration", duration,
		)
		if err := msg.Ack(false); err != nil {
			slog.Error("failed to ack message",
				"worker_id", workerID,
				"job_id", job.ID,
				"error", err,
			)
		}

	case errors.Is(err, domain.ErrConflict):
		// The engine retries schedule conflicts itself and has already
		// folded the attempt into the progress aggregate. Redelivering
		// the job would apply that attempt a second time, so drop it.
		slog.Error("attempt dropped after persistent write conflict",
			"worker_id", workerID,
			"job_id", job.ID,
			"student_id", job.StudentID,
		)
		if err := msg.Reject(false); err != nil {
			slog.Error("failed to reject message",
				"worker_id", workerID,
				"job_id", job.ID,
				"error", err,
			)
		}

	default:
		slog.Error("attempt processing failed",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
			"duration", duration,
		)
		// Drop rather than poison-loop the queue.
		if err := msg.Reject(false); err != nil {
			slog.Error("failed to reject message",
				"worker_id", workerID,
				"job_id", job.ID,
				"error", err,
			)
		}
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
