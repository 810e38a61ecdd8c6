package prereq

import "github.com/apprentio/apprentio/internal/domain"

// Mastery thresholds for a prerequisite concept.
const (
	masteredSuccessRate    = 0.8
	masteredCompletedCount = 3
)

// Status is the computed standing of a student on one prerequisite concept.
type Status struct {
	Concept      string  `json:"concept"`
	MasteryLevel float64 `json:"mastery_level"` // 0-100
	Mastered     bool    `json:"mastered"`
	Attempted    int     `json:"attempted"` // progress records on this concept
}

// Checker evaluates prerequisite mastery against a static graph. It is a
// pure function of its inputs and safe for concurrent use.
type Checker struct {
	graph *Graph
}

// NewChecker creates a checker over the given graph.
func NewChecker(graph *Graph) *Checker {
	return &Checker{graph: graph}
}

// Check returns one status per direct prerequisite of the concept. A concept
// with no prerequisite edges yields an empty list, never an error.
func (c *Checker) Check(concept string, progress []domain.ConceptProgress) []Status {
	prereqs := c.graph.Prerequisites(concept)
	statuses := make([]Status, 0, len(prereqs))
	for _, p := range prereqs {
		statuses = append(statuses, conceptStatus(p, progress))
	}
	return statuses
}

// Unmastered returns the prerequisite concepts the student has not yet
// mastered, in graph order.
func (c *Checker) Unmastered(concept string, progress []domain.ConceptProgress) []string {
	var out []string
	for _, st := range c.Check(concept, progress) {
		if !st.Mastered {
			out = append(out, st.Concept)
		}
	}
	return out
}

// conceptStatus aggregates every progress record tagged with the concept.
// masteryLevel weights sustained success over mere completion.
func conceptStatus(concept string, progress []domain.ConceptProgress) Status {
	var (
		records   int
		rateSum   float64
		completed int
	)
	for _, p := range progress {
		if p.Concept != concept {
			continue
		}
		records++
		rateSum += p.SuccessRate
		if p.Completed() {
			completed++
		}
	}

	st := Status{Concept: concept, Attempted: records}
	if records == 0 {
		return st
	}

	avgSuccess := rateSum / float64(records)
	completionRate := float64(completed) / float64(records)

	st.MasteryLevel = 100 * (0.7*avgSuccess + 0.3*completionRate)
	st.Mastered = avgSuccess >= masteredSuccessRate && completed >= masteredCompletedCount
	return st
}
