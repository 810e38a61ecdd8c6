package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/apprentio/apprentio/internal/catalog"
	"github.com/apprentio/apprentio/internal/domain"
)

// ExerciseHandler handles catalog endpoints
type ExerciseHandler struct {
	registry *catalog.Registry
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(registry *catalog.Registry) *ExerciseHandler {
	return &ExerciseHandler{registry: registry}
}

// PackResponse represents a pack in API responses
type PackResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Subject     string `json:"subject"`
	Level       string `json:"level"`
}

// ExerciseSummary represents an exercise summary in API responses
type ExerciseSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Concept          string `json:"concept"`
	Subject          string `json:"subject"`
	Level            string `json:"level"`
	Tier             string `json:"tier"`
	Type             string `json:"type"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// ExerciseDetail represents detailed exercise info, config included
type ExerciseDetail struct {
	ExerciseSummary
	Config domain.ExerciseConfig `json:"config"`
}

func summarize(ex *domain.Exercise) ExerciseSummary {
	return ExerciseSummary{
		ID:               ex.ID,
		Title:            ex.Title,
		Concept:          ex.Concept,
		Subject:          ex.Subject,
		Level:            ex.Level,
		Tier:             string(ex.Tier),
		Type:             string(ex.Type),
		EstimatedSeconds: ex.EstimatedSeconds,
	}
}

func packResponse(p *catalog.Pack) PackResponse {
	return PackResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Version:     p.Version,
		Subject:     p.Subject,
		Level:       p.Level,
	}
}

// ListPacks lists all available exercise packs
func (h *ExerciseHandler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs := h.registry.Packs()

	response := make([]PackResponse, 0, len(packs))
	for _, p := range packs {
		response = append(response, packResponse(p))
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"packs": response,
		"total": len(response),
	})
}

// ListExercises lists exercises, optionally filtered by concept, subject
// or level query parameters.
func (h *ExerciseHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	var exercises []*domain.Exercise
	switch {
	case r.URL.Query().Get("concept") != "":
		exercises = h.registry.ByConcept(r.URL.Query().Get("concept"))
	case r.URL.Query().Get("subject") != "":
		exercises = h.registry.BySubject(r.URL.Query().Get("subject"))
	case r.URL.Query().Get("level") != "":
		exercises = h.registry.ByLevel(r.URL.Query().Get("level"))
	default:
		exercises = h.registry.All()
	}

	response := make([]ExerciseSummary, 0, len(exercises))
	for _, ex := range exercises {
		response = append(response, summarize(ex))
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"exercises": response,
		"total":     len(response),
	})
}

// GetExercise gets a specific exercise
func (h *ExerciseHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	packID := r.PathValue("pack")
	slug := r.PathValue("slug")

	// Exercise ID format: pack/slug
	ex, err := h.registry.Get(packID + "/" + slug)
	if err != nil {
		h.jsonError(w, http.StatusNotFound, "exercise not found")
		return
	}

	h.jsonResponse(w, http.StatusOK, ExerciseDetail{
		ExerciseSummary: summarize(ex),
		Config:          ex.Config,
	})
}

// GetStats returns catalog statistics
func (h *ExerciseHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.registry.Stats())
}

func (h *ExerciseHandler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ExerciseHandler) jsonError(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
