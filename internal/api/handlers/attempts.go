package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/queue"
	"github.com/apprentio/apprentio/internal/sequence"
)

// AttemptPublisher hands attempt jobs to the queue
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, job *queue.AttemptJob) error
}

// ExerciseResolver validates exercise IDs before an attempt is accepted
type ExerciseResolver interface {
	Get(id string) (*domain.Exercise, error)
}

// AttemptHandler handles attempt submission. With a publisher configured
// attempts are queued and applied by the consumer; without one they are
// applied synchronously, which is how the local daemon runs.
type AttemptHandler struct {
	catalog    ExerciseResolver
	engine     *sequence.Engine
	publisher  AttemptPublisher
	writeError ErrorWriter
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(catalog ExerciseResolver, engine *sequence.Engine, publisher AttemptPublisher, writeError ErrorWriter) *AttemptHandler {
	return &AttemptHandler{
		catalog:    catalog,
		engine:     engine,
		publisher:  publisher,
		writeError: writeError,
	}
}

// SubmitAttemptRequest is the payload for an attempt submission
type SubmitAttemptRequest struct {
	ExerciseID      string  `json:"exercise_id"`
	Success         bool    `json:"success"`
	Quality         int     `json:"quality"`
	ResponseSeconds float64 `json:"response_seconds"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	HintsUsed       int     `json:"hints_used"`
}

// Submit records an attempt outcome for a student
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.jsonError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ExerciseID == "" {
		h.jsonError(w, http.StatusBadRequest, "exercise_id is required")
		return
	}
	if req.Quality < 0 || req.Quality > 5 {
		h.jsonError(w, http.StatusBadRequest, "quality must be between 0 and 5")
		return
	}
	if req.ResponseSeconds < 0 {
		h.jsonError(w, http.StatusBadRequest, "response_seconds must not be negative")
		return
	}

	// Reject unknown exercises up front so queued jobs cannot fail later
	if _, err := h.catalog.Get(req.ExerciseID); err != nil {
		h.writeError(w, r, err)
		return
	}

	outcome := domain.AttemptOutcome{
		Success:         req.Success,
		Quality:         req.Quality,
		ResponseSeconds: req.ResponseSeconds,
		ErrorKind:       req.ErrorKind,
		HintsUsed:       req.HintsUsed,
	}

	if h.publisher != nil {
		job := queue.CreateAttemptJob(studentID, req.ExerciseID, outcome)
		if err := h.publisher.PublishAttempt(r.Context(), job); err != nil {
			h.writeError(w, r, err)
			return
		}

		h.jsonResponse(w, http.StatusAccepted, map[string]any{
			"job_id": job.ID.String(),
			"status": "queued",
		})
		return
	}

	prog, err := h.engine.RecordOutcome(r.Context(), studentID, req.ExerciseID, outcome)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "recorded",
		"progress": ProgressResponse{
			ExerciseID:  prog.ExerciseID,
			Concept:     prog.Concept,
			Subject:     prog.Subject,
			Level:       prog.Level,
			Attempts:    prog.Attempts,
			Successes:   prog.Successes,
			SuccessRate: prog.SuccessRate,
			Status:      string(prog.Status),
			UpdatedAt:   prog.UpdatedAt.Format(time.RFC3339),
		},
	})
}

func (h *AttemptHandler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *AttemptHandler) jsonError(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
