package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/apprentio/apprentio/internal/api/handlers"
	"github.com/apprentio/apprentio/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux      *http.ServeMux
	app      *App
	exercise *handlers.ExerciseHandler
	student  *handlers.StudentHandler
	attempt  *handlers.AttemptHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	// Initialize handlers
	r.exercise = handlers.NewExerciseHandler(app.Catalog)
	r.student = handlers.NewStudentHandler(app.Students, app.Engine, app.Progress, DomainError, app.Config.SequenceCount)
	r.attempt = handlers.NewAttemptHandler(app.Catalog, app.Engine, app.Publisher, DomainError)

	// Register routes
	r.registerRoutes()

	// Build middleware chain
	return r.buildMiddlewareChain(r.mux, app)
}

func (r *Router) registerRoutes() {
	// Health checks
	r.mux.HandleFunc("GET /v1/health", r.handleHealth)
	r.mux.HandleFunc("GET /v1/ready", r.handleReady)

	// Catalog
	r.mux.HandleFunc("GET /v1/packs", r.exercise.ListPacks)
	r.mux.HandleFunc("GET /v1/exercises", r.exercise.ListExercises)
	r.mux.HandleFunc("GET /v1/exercises/{pack}/{slug}", r.exercise.GetExercise)
	r.mux.HandleFunc("GET /v1/catalog/stats", r.exercise.GetStats)

	// Students
	r.mux.HandleFunc("POST /v1/students", r.student.Create)
	r.mux.HandleFunc("GET /v1/students/{id}", r.student.Get)
	r.mux.HandleFunc("GET /v1/students/{id}/progress", r.student.GetProgress)

	// Learning engine
	r.mux.HandleFunc("GET /v1/students/{id}/sequence", r.student.GetSequence)
	r.mux.HandleFunc("GET /v1/students/{id}/recommendations", r.student.GetRecommendations)
	r.mux.HandleFunc("GET /v1/students/{id}/metrics", r.student.GetMetrics)
	r.mux.HandleFunc("GET /v1/students/{id}/prerequisites/{concept}", r.student.GetPrerequisites)
	r.mux.HandleFunc("GET /v1/students/{id}/revisions/due", r.student.GetDueRevisions)

	// Attempts, behind the stricter limiter
	submit := http.HandlerFunc(r.attempt.Submit)
	if r.app.Config.Debug {
		r.mux.Handle("POST /v1/students/{id}/attempts", submit)
	} else {
		limited := middleware.AttemptRateLimitMiddleware(middleware.DefaultRateLimitConfig())(submit)
		r.mux.Handle("POST /v1/students/{id}/attempts", limited)
	}
}

func (r *Router) buildMiddlewareChain(handler http.Handler, app *App) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Apply rate limiting (skip in debug mode for easier development)
	if !app.Config.Debug {
		handler = middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig())(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	checks := map[string]string{
		"catalog": "healthy",
		"storage": "healthy",
	}
	ready := true

	if r.app.Catalog.Stats().ExerciseCount == 0 {
		checks["catalog"] = "empty"
	}

	if r.app.ReadyCheck != nil {
		if err := r.app.ReadyCheck(req.Context()); err != nil {
			slog.Error("storage health check failed",
				"error", err,
				"request_id", middleware.GetRequestID(req.Context()),
			)
			checks["storage"] = "unhealthy"
			ready = false
		}
	}

	if !ready {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": checks,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
