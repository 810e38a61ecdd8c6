package recommend

import (
	"sort"

	"github.com/apprentio/apprentio/internal/domain"
)

// Score bounds and weights. Adjustments are additive and independent; only
// the final clamp bounds the result.
const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100
)

// Scored is one ranked candidate with its human-readable reasons.
type Scored struct {
	Exercise *domain.Exercise `json:"exercise"`
	Score    int              `json:"score"`
	Reasons  []string         `json:"reasons"`
}

// Scorer ranks candidate exercises for a student from their full progress
// history. It is a pure function of its inputs and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a recommendation scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Rank scores every candidate and sorts descending by score. Ties keep the
// original catalog order.
func (s *Scorer) Rank(pool []*domain.Exercise, progress []domain.ConceptProgress) []Scored {
	byExercise := indexProgress(progress)

	scored := make([]Scored, 0, len(pool))
	for _, ex := range pool {
		score, reasons := s.score(ex, byExercise, progress)
		scored = append(scored, Scored{Exercise: ex, Score: score, Reasons: reasons})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Score evaluates a single candidate.
func (s *Scorer) Score(ex *domain.Exercise, progress []domain.ConceptProgress) (int, []string) {
	return s.score(ex, indexProgress(progress), progress)
}

func (s *Scorer) score(ex *domain.Exercise, byExercise map[string]*domain.ConceptProgress, progress []domain.ConceptProgress) (int, []string) {
	score := baseScore
	var reasons []string

	// Attempt-history weight.
	if prior, attempted := byExercise[ex.ID]; !attempted {
		score += 20
		reasons = append(reasons, "never attempted")
	} else if last := prior.LastAttempt(); last != nil && !last.Success {
		score += 30
		reasons = append(reasons, "failed on last attempt")
	} else if prior.SuccessRate < 0.7 {
		score += 25
		reasons = append(reasons, "success rate below 70%")
	}

	// Difficulty weight.
	score += tierWeight(ex.Tier)
	reasons = append(reasons, "difficulty "+string(ex.Tier))

	// Subject weight.
	subjectAttempts, subjectRate := subjectStats(progress, ex.Subject)
	switch {
	case subjectAttempts == 0:
		score += 15
		reasons = append(reasons, "new subject")
	case subjectRate < 0.5:
		score += 25
		reasons = append(reasons, "subject needs work")
	default:
		score += 5
		reasons = append(reasons, "familiar subject")
	}

	// Level weight, same shape over the exercise's school level.
	levelAttempts, levelRate := levelStats(progress, ex.Level)
	switch {
	case levelAttempts == 0:
		score += 10
		reasons = append(reasons, "new level")
	case levelRate < 0.6:
		score += 20
		reasons = append(reasons, "level needs work")
	}

	if score > maxScore {
		score = maxScore
	}
	if score < minScore {
		score = minScore
	}
	return score, reasons
}

func tierWeight(t domain.Tier) int {
	switch t {
	case domain.TierFacile:
		return 10
	case domain.TierMoyen:
		return 20
	case domain.TierDifficile:
		return 30
	default:
		return 15
	}
}

func indexProgress(progress []domain.ConceptProgress) map[string]*domain.ConceptProgress {
	byExercise := make(map[string]*domain.ConceptProgress, len(progress))
	for i := range progress {
		byExercise[progress[i].ExerciseID] = &progress[i]
	}
	return byExercise
}

func subjectStats(progress []domain.ConceptProgress, subject string) (attempts int, avgRate float64) {
	return groupStats(progress, func(p *domain.ConceptProgress) bool {
		return p.Subject == subject
	})
}

func levelStats(progress []domain.ConceptProgress, level string) (attempts int, avgRate float64) {
	return groupStats(progress, func(p *domain.ConceptProgress) bool {
		return p.Level == level
	})
}

func groupStats(progress []domain.ConceptProgress, match func(*domain.ConceptProgress) bool) (int, float64) {
	count := 0
	rateSum := 0.0
	for i := range progress {
		if !match(&progress[i]) {
			continue
		}
		count++
		rateSum += progress[i].SuccessRate
	}
	if count == 0 {
		return 0, 0
	}
	return count, rateSum / float64(count)
}
