//go:build integration

package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/queue"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Producer_PublishAttempt(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	producer := queue.NewProducer(conn)

	job := queue.CreateAttemptJob(uuid.New(), "maths-ce1/addition-simple-1", domain.AttemptOutcome{
		Success:         true,
		Quality:         4,
		ResponseSeconds: 8.2,
	})

	ctx := context.Background()

	if err := producer.PublishAttempt(ctx, job); err != nil {
		t.Fatalf("failed to publish attempt job: %v", err)
	}

	// Verify by checking the queue has a message
	ch := conn.Channel()
	q, err := ch.QueueInspect(queue.AttemptQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}

	if q.Messages != 1 {
		t.Errorf("expected 1 message in queue, got %d", q.Messages)
	}
}

func TestIntegration_Consumer_ProcessAttempts(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Track received jobs
	var receivedJobs []*queue.AttemptJob
	var mu sync.Mutex
	receivedCh := make(chan struct{}, 5)

	handler := func(ctx context.Context, job *queue.AttemptJob) error {
		mu.Lock()
		receivedJobs = append(receivedJobs, job)
		mu.Unlock()

		receivedCh <- struct{}{}
		return nil
	}

	consumer := queue.NewConsumer(conn, handler, queue.ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
	})

	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := queue.NewProducer(conn)
	jobCount := 3
	studentID := uuid.New()

	for i := 0; i < jobCount; i++ {
		job := queue.CreateAttemptJob(studentID, "maths-ce1/addition-simple-1", domain.AttemptOutcome{
			Success: true,
			Quality: 4,
		})

		if err := producer.PublishAttempt(ctx, job); err != nil {
			t.Fatalf("failed to publish job %d: %v", i, err)
		}
	}

	// Wait for all jobs to be processed
	for i := 0; i < jobCount; i++ {
		select {
		case <-receivedCh:
			// Job received
		case <-ctx.Done():
			t.Fatalf("timeout waiting for job %d", i)
		}
	}

	mu.Lock()
	if len(receivedJobs) != jobCount {
		t.Errorf("expected %d jobs, got %d", jobCount, len(receivedJobs))
	}
	for _, job := range receivedJobs {
		if job.StudentID != studentID {
			t.Errorf("expected student ID %s, got %s", studentID, job.StudentID)
		}
	}
	mu.Unlock()
}

func TestIntegration_Consumer_ConflictDropsWithoutRedelivery(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A conflict surfacing from the handler means the attempt already
	// reached the progress aggregate; the job must not come back.
	var mu sync.Mutex
	deliveries := 0
	firstCh := make(chan struct{}, 1)

	handler := func(ctx context.Context, job *queue.AttemptJob) error {
		mu.Lock()
		deliveries++
		n := deliveries
		mu.Unlock()

		if n == 1 {
			firstCh <- struct{}{}
		}
		return domain.ErrConflict
	}

	consumer := queue.NewConsumer(conn, handler, queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := queue.NewProducer(conn)
	job := queue.CreateAttemptJob(uuid.New(), "maths-ce1/addition-simple-1", domain.AttemptOutcome{Success: true, Quality: 5})

	if err := producer.PublishAttempt(ctx, job); err != nil {
		t.Fatalf("failed to publish job: %v", err)
	}

	select {
	case <-firstCh:
	case <-ctx.Done():
		t.Fatal("timeout waiting for delivery")
	}

	// Give a redelivery, if any, time to arrive.
	time.Sleep(2 * time.Second)

	mu.Lock()
	if deliveries != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", deliveries)
	}
	mu.Unlock()
}

func TestIntegration_Connection_PublishJSON(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	job := queue.CreateAttemptJob(uuid.New(), "maths-ce1/addition-simple-1", domain.AttemptOutcome{Success: true})

	// Direct publish using PublishJSON
	if err := conn.PublishJSON(ctx, queue.AttemptQueueName, job); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	// Verify
	ch := conn.Channel()
	q, err := ch.QueueInspect(queue.AttemptQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}

	if q.Messages != 1 {
		t.Errorf("expected 1 message, got %d", q.Messages)
	}
}
