package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/adaptive"
	"github.com/apprentio/apprentio/internal/cache"
	"github.com/apprentio/apprentio/internal/catalog"
	"github.com/apprentio/apprentio/internal/config"
	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/prereq"
	"github.com/apprentio/apprentio/internal/progress"
	"github.com/apprentio/apprentio/internal/queue"
	"github.com/apprentio/apprentio/internal/recommend"
	"github.com/apprentio/apprentio/internal/revision"
	"github.com/apprentio/apprentio/internal/sequence"
)

// StudentStore persists student identities.
type StudentStore interface {
	Save(ctx context.Context, student *domain.Student) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Student, error)
}

// AttemptPublisher hands submitted attempts to the queue. When no
// publisher is configured the API applies attempts synchronously.
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, job *queue.AttemptJob) error
}

// App holds all application dependencies
type App struct {
	Config    *config.Config
	Catalog   *catalog.Registry
	Engine    *sequence.Engine
	Students  StudentStore
	Progress  *progress.Service
	Publisher AttemptPublisher

	// ReadyCheck probes the backing store for the readiness endpoint.
	ReadyCheck func(ctx context.Context) error
}

// AppConfig holds configuration for application initialization
type AppConfig struct {
	Config    *config.Config
	Progress  progress.Store
	Schedules revision.Store
	Students  StudentStore
	Cache     cache.Cache
	Publisher AttemptPublisher

	ReadyCheck func(ctx context.Context) error
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(ctx context.Context, cfg AppConfig) (*App, error) {
	app := &App{
		Config:     cfg.Config,
		Students:   cfg.Students,
		Publisher:  cfg.Publisher,
		ReadyCheck: cfg.ReadyCheck,
	}

	// Load the exercise catalog
	loader := catalog.NewLoader(cfg.Config.CatalogPath)
	app.Catalog = catalog.NewRegistry(loader)
	if err := app.Catalog.Load(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// Load the prerequisite graph. A missing file means no concept is
	// gated, which is the right behavior for a fresh install.
	graph, err := prereq.LoadGraph(cfg.Config.GraphPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load prerequisite graph: %w", err)
		}
		graph = prereq.NewGraph(nil)
	}

	app.Progress = progress.NewService(cfg.Progress)

	app.Engine = sequence.New(sequence.Config{
		Catalog:   app.Catalog,
		Progress:  app.Progress,
		Adaptive:  adaptive.NewEngine(app.Catalog),
		Checker:   prereq.NewChecker(graph),
		Scorer:    recommend.NewScorer(),
		Scheduler: revision.NewScheduler(cfg.Schedules),
		Cache:     cfg.Cache,
		CacheTTL:  cfg.Config.CacheTTL,
	})

	return app, nil
}
