package adaptive

import (
	"math"

	"github.com/apprentio/apprentio/internal/domain"
)

// WindowSize is the number of most recent attempts the engine considers.
const WindowSize = 20

// Trend describes the direction of recent performance.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Adjustment is the recommended difficulty move.
type Adjustment string

const (
	AdjustIncrease Adjustment = "increase"
	AdjustMaintain Adjustment = "maintain"
	AdjustDecrease Adjustment = "decrease"
)

// Metrics is the derived performance profile for a student. It is a pure
// function of the attempt history: recomputed on every request, never stored.
type Metrics struct {
	CurrentDifficulty float64    `json:"current_difficulty"`
	OptimalDifficulty float64    `json:"optimal_difficulty"`
	Trend             Trend      `json:"performance_trend"`
	LearningVelocity  float64    `json:"learning_velocity"`
	FrustrationIndex  float64    `json:"frustration_index"`
	EngagementScore   float64    `json:"engagement_score"`
	Recommended       Adjustment `json:"recommended_adjustment"`
}

// ExerciseInfo resolves the exercise-type tag for an attempt. The catalog
// registry implements this; the engine only needs the type to look up its
// expected-duration table.
type ExerciseInfo interface {
	TypeOf(exerciseID string) (domain.ExerciseType, bool)
}

// defaultExpectedSeconds is the per-exercise-type expected response time used
// by the engagement score. Attempts far outside this band, in either
// direction, count against engagement.
var defaultExpectedSeconds = map[domain.ExerciseType]float64{
	domain.TypeCalculation:    30,
	domain.TypeMultipleChoice: 20,
	domain.TypeDictation:      90,
	domain.TypeProblem:        120,
}

const fallbackExpectedSeconds = 60

// Engine computes adaptive metrics from attempt windows. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	info     ExerciseInfo
	expected map[domain.ExerciseType]float64
}

// NewEngine creates an adaptation engine. info may be nil, in which case
// every attempt falls back to the default expected duration.
func NewEngine(info ExerciseInfo) *Engine {
	return &Engine{info: info, expected: defaultExpectedSeconds}
}

// Compute derives the full metrics set from a student's recent attempt
// window and overall progress records. The window must be ordered most
// recent first; only the first WindowSize entries are considered.
// currentDifficulty is the numeric difficulty of the reference exercise.
//
// An empty window yields neutral defaults rather than an error.
func (e *Engine) Compute(window []domain.AttemptRecord, progress []domain.ConceptProgress, currentDifficulty float64) Metrics {
	current := snapHalf(clampDifficulty(currentDifficulty))

	if len(window) == 0 {
		return Metrics{
			CurrentDifficulty: current,
			OptimalDifficulty: current,
			Trend:             TrendStable,
			LearningVelocity:  1.0,
			FrustrationIndex:  0,
			EngagementScore:   0.5,
			Recommended:       AdjustMaintain,
		}
	}

	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	successRate := successRate(window)
	velocity := learningVelocity(progress)
	frustration := e.frustrationIndex(window)
	engagement := e.engagementScore(window, successRate)
	optimal := optimalDifficulty(current, successRate, frustration, velocity)

	return Metrics{
		CurrentDifficulty: current,
		OptimalDifficulty: optimal,
		Trend:             performanceTrend(window),
		LearningVelocity:  velocity,
		FrustrationIndex:  frustration,
		EngagementScore:   engagement,
		Recommended:       recommendAdjustment(current, optimal, frustration),
	}
}

func successRate(window []domain.AttemptRecord) float64 {
	if len(window) == 0 {
		return 0
	}
	successes := 0
	for _, rec := range window {
		if rec.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(window))
}

// performanceTrend splits the window into a recent half and an older half
// and compares success rates. Windows smaller than 5 attempts are too noisy
// to call either way.
func performanceTrend(window []domain.AttemptRecord) Trend {
	if len(window) < 5 {
		return TrendStable
	}

	half := len(window) / 2
	recent := successRate(window[:half])
	older := successRate(window[half:])

	diff := recent - older
	switch {
	case diff > 0.1:
		return TrendImproving
	case diff < -0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// learningVelocity averages attempts-to-mastery over every mastered record.
// Fewer attempts to mastery means faster learning. A student with no
// mastered exercises yet gets the neutral 1.0.
func learningVelocity(progress []domain.ConceptProgress) float64 {
	total, count := 0, 0
	for _, p := range progress {
		if p.Mastered() && p.AttemptsToMastery > 0 {
			total += p.AttemptsToMastery
			count++
		}
	}
	if count == 0 {
		return 1.0
	}

	avgAttempts := float64(total) / float64(count)
	return clamp(10/avgAttempts, 0.5, 2.0)
}

// frustrationIndex blends three signals: an unbroken run of recent failures,
// repetition of the same error kind, and response times trending up.
func (e *Engine) frustrationIndex(window []domain.AttemptRecord) float64 {
	consecutiveFailures := 0
	for _, rec := range window {
		if rec.Success {
			break
		}
		consecutiveFailures++
	}

	totalErrors, distinctErrors := errorPattern(window)
	errorVariety := 1.0
	if totalErrors > 0 {
		errorVariety = float64(distinctErrors) / float64(totalErrors)
	}

	index := 0.4*float64(consecutiveFailures) +
		0.3*(1-errorVariety) +
		0.3*math.Max(0, responseTimeIncreaseRate(window))
	return clamp01(index)
}

// errorPattern counts failed attempts and the distinct error kinds among
// them. Failures without a captured tag count as a single "unknown" kind.
func errorPattern(window []domain.AttemptRecord) (total, distinct int) {
	kinds := make(map[string]struct{})
	for _, rec := range window {
		if rec.Success {
			continue
		}
		total++
		kind := rec.ErrorKind
		if kind == "" {
			kind = "unknown"
		}
		kinds[kind] = struct{}{}
	}
	return total, len(kinds)
}

// responseTimeIncreaseRate compares the average of the 3 most recent
// response times against the 3 oldest in the window. Positive means the
// student is slowing down.
func responseTimeIncreaseRate(window []domain.AttemptRecord) float64 {
	if len(window) < 2 {
		return 0
	}

	n := 3
	if len(window) < n {
		n = len(window)
	}

	recent := 0.0
	for _, rec := range window[:n] {
		recent += rec.ResponseSeconds
	}
	recent /= float64(n)

	oldest := 0.0
	for _, rec := range window[len(window)-n:] {
		oldest += rec.ResponseSeconds
	}
	oldest /= float64(n)

	if oldest <= 0 {
		return 0
	}
	return (recent - oldest) / oldest
}

// engagementScore blends response-time consistency, completion rate, and the
// share of attempts answered in a plausible time band for their exercise
// type. Both rushing and stalling count against the time band.
func (e *Engine) engagementScore(window []domain.AttemptRecord, completionRate float64) float64 {
	consistency := responseTimeConsistency(window)

	inBand := 0
	for _, rec := range window {
		expected := e.expectedSeconds(rec.ExerciseID)
		if rec.ResponseSeconds >= 0.5*expected && rec.ResponseSeconds <= 1.5*expected {
			inBand++
		}
	}
	optimalTimeRatio := float64(inBand) / float64(len(window))

	return clamp01(0.3*consistency + 0.4*completionRate + 0.3*optimalTimeRatio)
}

// responseTimeConsistency is 1 minus the normalized standard deviation of
// response times.
func responseTimeConsistency(window []domain.AttemptRecord) float64 {
	mean := 0.0
	for _, rec := range window {
		mean += rec.ResponseSeconds
	}
	mean /= float64(len(window))
	if mean <= 0 {
		return 0
	}

	variance := 0.0
	for _, rec := range window {
		d := rec.ResponseSeconds - mean
		variance += d * d
	}
	variance /= float64(len(window))

	return clamp01(1 - math.Sqrt(variance)/mean)
}

func (e *Engine) expectedSeconds(exerciseID string) float64 {
	if e.info != nil {
		if typ, ok := e.info.TypeOf(exerciseID); ok {
			if expected, ok := e.expected[typ]; ok {
				return expected
			}
		}
	}
	return fallbackExpectedSeconds
}

// optimalDifficulty moves the reference difficulty toward the student's
// productive-struggle zone: up when they cruise, down when they struggle or
// frustration climbs, nudged by learning velocity.
func optimalDifficulty(current, successRate, frustration, velocity float64) float64 {
	optimal := current

	if successRate > 0.85 && frustration < 0.3 {
		optimal = math.Min(optimal+0.5, 5)
	}
	if successRate < 0.6 || frustration > 0.7 {
		optimal = math.Max(optimal-0.5, 1)
	}

	if velocity > 1.2 {
		optimal += 0.25
	} else if velocity < 0.8 {
		optimal -= 0.25
	}

	return clampDifficulty(snapHalf(optimal))
}

func recommendAdjustment(current, optimal, frustration float64) Adjustment {
	// High frustration overrides everything.
	if frustration > 0.7 {
		return AdjustDecrease
	}

	diff := optimal - current
	switch {
	case diff > 0.5:
		return AdjustIncrease
	case diff < -0.5:
		return AdjustDecrease
	default:
		return AdjustMaintain
	}
}

// snapHalf rounds to the nearest 0.5 step.
func snapHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

func clampDifficulty(v float64) float64 {
	return clamp(v, 1, 5)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
