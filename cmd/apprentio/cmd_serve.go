package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apprentio/apprentio/internal/api"
	"github.com/apprentio/apprentio/internal/cache"
	"github.com/apprentio/apprentio/internal/config"
	"github.com/apprentio/apprentio/internal/storage/sqlite"
)

// cmdServe runs the local single-user daemon in the foreground. It uses
// SQLite for storage and an in-memory cache; attempts are applied
// synchronously since there is no queue in local mode.
func cmdServe() error {
	appDir, err := config.EnsureAppDir()
	if err != nil {
		return fmt.Errorf("ensure app dir: %w", err)
	}

	local, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := setupServeLogging(appDir, parseLogLevel(local.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	pidPath := filepath.Join(appDir, pidFile)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	dbPath, err := local.DatabasePath()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Catalog lives next to the working directory in dev mode, under
	// ~/.apprentio otherwise.
	catalogPath := local.Catalog.Path
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		catalogPath = filepath.Join(appDir, "catalog")
	}
	graphPath := local.Catalog.GraphPath
	if _, err := os.Stat(graphPath); os.IsNotExist(err) {
		graphPath = filepath.Join(catalogPath, "prerequisites.yaml")
	}

	cfg := &config.Config{
		Port:            local.Daemon.Port,
		Debug:           local.Daemon.LogLevel == "debug",
		CatalogPath:     catalogPath,
		GraphPath:       graphPath,
		CacheTTL:        time.Duration(local.Cache.TTLSeconds) * time.Second,
		CacheMaxEntries: local.Cache.MaxEntries,
	}

	app, err := api.NewApp(context.Background(), api.AppConfig{
		Config:    cfg,
		Progress:  sqlite.NewProgressStore(db),
		Schedules: sqlite.NewScheduleStore(db),
		Students:  sqlite.NewStudentStore(db),
		Cache:     cache.NewMemory(cfg.CacheMaxEntries),
		ReadyCheck: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", local.Daemon.Bind, local.Daemon.Port),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	slog.Info("apprentio daemon listening",
		"addr", server.Addr,
		"database", dbPath,
		"catalog", catalogPath,
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupServeLogging(appDir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(appDir, "logs", "apprentio.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// JSON to the log file, text to stderr for foreground mode
	multi := &multiHandler{
		handlers: []slog.Handler{
			slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		},
	}

	slog.SetDefault(slog.New(multi))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
