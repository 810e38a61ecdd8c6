package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/progress"
	"github.com/apprentio/apprentio/internal/sequence"
)

// StudentStore persists student identities.
type StudentStore interface {
	Save(ctx context.Context, student *domain.Student) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Student, error)
}

// ErrorWriter maps domain errors to HTTP responses. The api package
// provides the implementation; the indirection keeps handlers free of
// an import cycle.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// StudentHandler handles student identity and learning endpoints
type StudentHandler struct {
	students     StudentStore
	engine       *sequence.Engine
	progress     *progress.Service
	writeError   ErrorWriter
	defaultCount int
}

// NewStudentHandler creates a new student handler. defaultCount sets
// the sequence length when the request does not specify one.
func NewStudentHandler(students StudentStore, engine *sequence.Engine, progressSvc *progress.Service, writeError ErrorWriter, defaultCount int) *StudentHandler {
	if defaultCount <= 0 {
		defaultCount = sequence.DefaultCount
	}
	return &StudentHandler{
		students:     students,
		engine:       engine,
		progress:     progressSvc,
		writeError:   writeError,
		defaultCount: defaultCount,
	}
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     string `json:"level"`
	CreatedAt string `json:"created_at"`
}

func studentResponse(s *domain.Student) StudentResponse {
	return StudentResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Level:     s.Level,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// CreateStudentRequest is the payload for student registration
type CreateStudentRequest struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Create registers a new student
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.jsonError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Level == "" {
		h.jsonError(w, http.StatusBadRequest, "level is required")
		return
	}

	student := domain.NewStudent(req.Name, req.Level)
	if err := h.students.Save(r.Context(), student); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jsonResponse(w, http.StatusCreated, studentResponse(student))
}

// Get returns a student by ID
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, studentResponse(student))
}

// ProgressResponse represents one concept-progress aggregate
type ProgressResponse struct {
	ExerciseID  string  `json:"exercise_id"`
	Concept     string  `json:"concept"`
	Subject     string  `json:"subject"`
	Level       string  `json:"level"`
	Attempts    int     `json:"attempts"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
	Status      string  `json:"status"`
	UpdatedAt   string  `json:"updated_at"`
}

// GetProgress lists the student's progress aggregates
func (h *StudentHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	history, err := h.progress.History(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]ProgressResponse, 0, len(history))
	for _, p := range history {
		response = append(response, ProgressResponse{
			ExerciseID:  p.ExerciseID,
			Concept:     p.Concept,
			Subject:     p.Subject,
			Level:       p.Level,
			Attempts:    p.Attempts,
			Successes:   p.Successes,
			SuccessRate: p.SuccessRate,
			Status:      string(p.Status),
			UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
		})
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"progress": response,
		"total":    len(response),
	})
}

// GetSequence returns an adaptive exercise sequence for the student.
// Query parameters: concept (target concept), count (sequence length).
func (h *StudentHandler) GetSequence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	concept := r.URL.Query().Get("concept")
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.jsonError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = parsed
	}

	exercises, err := h.engine.GetAdaptiveSequence(r.Context(), id, concept, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]ExerciseSummary, 0, len(exercises))
	for _, ex := range exercises {
		response = append(response, summarize(ex))
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"sequence": response,
		"concept":  concept,
		"total":    len(response),
	})
}

// RecommendationResponse represents a scored exercise
type RecommendationResponse struct {
	Exercise ExerciseSummary `json:"exercise"`
	Score    int             `json:"score"`
	Reasons  []string        `json:"reasons"`
}

// GetRecommendations returns scored exercise recommendations
func (h *StudentHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	scored, err := h.engine.ScoreRecommendations(r.Context(), id, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]RecommendationResponse, 0, len(scored))
	for _, s := range scored {
		response = append(response, RecommendationResponse{
			Exercise: summarize(s.Exercise),
			Score:    s.Score,
			Reasons:  s.Reasons,
		})
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"recommendations": response,
		"total":           len(response),
	})
}

// GetMetrics returns adaptive difficulty metrics for an exercise.
// Query parameter: exercise (required).
func (h *StudentHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	exerciseID := r.URL.Query().Get("exercise")
	if exerciseID == "" {
		h.jsonError(w, http.StatusBadRequest, "exercise query parameter is required")
		return
	}

	metrics, err := h.engine.GetAdaptiveMetrics(r.Context(), id, exerciseID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, metrics)
}

// GetPrerequisites returns prerequisite mastery for a concept
func (h *StudentHandler) GetPrerequisites(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	concept := r.PathValue("concept")
	statuses, err := h.engine.CheckPrerequisites(r.Context(), id, concept)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ready := true
	for _, s := range statuses {
		if !s.Mastered {
			ready = false
			break
		}
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"concept":       concept,
		"ready":         ready,
		"prerequisites": statuses,
	})
}

// RevisionResponse represents a due revision schedule
type RevisionResponse struct {
	ExerciseID   string `json:"exercise_id"`
	NextReview   string `json:"next_review"`
	IntervalDays int    `json:"interval_days"`
	Repetitions  int    `json:"repetitions"`
}

// GetDueRevisions returns the student's due revision schedules
func (h *StudentHandler) GetDueRevisions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	due, err := h.engine.GetDueRevisions(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]RevisionResponse, 0, len(due))
	for _, s := range due {
		response = append(response, RevisionResponse{
			ExerciseID:   s.ExerciseID,
			NextReview:   s.NextReview.Format(time.RFC3339),
			IntervalDays: s.IntervalDays,
			Repetitions:  s.Repetitions,
		})
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"revisions": response,
		"total":     len(response),
	})
}

// studentID parses the {id} path segment, writing a 400 on failure.
func (h *StudentHandler) studentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.jsonError(w, http.StatusBadRequest, "invalid student id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *StudentHandler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *StudentHandler) jsonError(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
