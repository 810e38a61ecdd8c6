package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apprentio/apprentio/internal/api"
	"github.com/apprentio/apprentio/internal/cache"
	"github.com/apprentio/apprentio/internal/config"
	"github.com/apprentio/apprentio/internal/queue"
	"github.com/apprentio/apprentio/internal/repository"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// RabbitMQ
	conn, err := queue.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	producer := queue.NewProducer(conn)

	// Recommendation cache
	recCache, closeCache, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}
	if closeCache != nil {
		defer closeCache()
	}

	app, err := api.NewApp(ctx, api.AppConfig{
		Config:    cfg,
		Progress:  repository.NewProgressRepository(pool),
		Schedules: repository.NewScheduleRepository(pool),
		Students:  repository.NewStudentRepository(pool),
		Cache:     recCache,
		Publisher: producer,
		ReadyCheck: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Attempt consumer applies queued outcomes through the engine
	consumer := queue.NewConsumer(conn, func(ctx context.Context, job *queue.AttemptJob) error {
		_, err := app.Engine.RecordOutcome(ctx, job.StudentID, job.ExerciseID, job.Outcome())
		return err
	}, queue.DefaultConsumerConfig())

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumer.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
		close(done)
	}()

	slog.Info("apprentiod listening", "port", cfg.Port, "debug", cfg.Debug)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// buildCache picks the recommendation cache backend. Redis is the
// default; a resilient wrapper keeps cache outages from taking the API
// down with them.
func buildCache(cfg *config.Config) (cache.Cache, func() error, error) {
	if cfg.CacheDisabled {
		return cache.NewMemory(cfg.CacheMaxEntries), nil, nil
	}

	redisCache, err := cache.NewRedis(cfg.RedisURL, "apprentio")
	if err != nil {
		return nil, nil, err
	}

	resilient := cache.NewResilient(redisCache, cache.ResilientConfig{})
	return resilient, redisCache.Close, nil
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
