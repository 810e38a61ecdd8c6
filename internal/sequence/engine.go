// Package sequence is the engine facade. It orchestrates the difficulty
// adaptation engine, the prerequisite checker, the recommendation scorer and
// the revision scheduler into the operations the API layer consumes.
package sequence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apprentio/apprentio/internal/adaptive"
	"github.com/apprentio/apprentio/internal/cache"
	"github.com/apprentio/apprentio/internal/domain"
	"github.com/apprentio/apprentio/internal/prereq"
	"github.com/apprentio/apprentio/internal/progress"
	"github.com/apprentio/apprentio/internal/recommend"
	"github.com/apprentio/apprentio/internal/revision"
)

const (
	// DefaultCount is the sequence length when the caller does not ask
	// for a specific one.
	DefaultCount = 5

	// prereqPerConcept caps remediation exercises per unmet prerequisite.
	prereqPerConcept = 2

	// difficultyBand is the half-width of the accepted difficulty window
	// around the optimal difficulty.
	difficultyBand = 1.0

	defaultCacheTTL = 5 * time.Minute
)

// Catalog is the exercise lookup the engine consumes. Absence of exercises
// for a concept is an empty result, not an error.
type Catalog interface {
	Get(id string) (*domain.Exercise, error)
	ByConcept(concept string) []*domain.Exercise
	All() []*domain.Exercise
}

// Engine wires the engine components together. All methods are safe for
// concurrent use; the only mutable state lives behind the scheduler store
// and the cache.
type Engine struct {
	catalog   Catalog
	progress  *progress.Service
	adaptive  *adaptive.Engine
	checker   *prereq.Checker
	scorer    *recommend.Scorer
	scheduler *revision.Scheduler
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// Config collects the engine's collaborators. Cache is optional; a nil
// cache disables recommendation caching.
type Config struct {
	Catalog   Catalog
	Progress  *progress.Service
	Adaptive  *adaptive.Engine
	Checker   *prereq.Checker
	Scorer    *recommend.Scorer
	Scheduler *revision.Scheduler
	Cache     cache.Cache
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// New creates the engine facade.
func New(cfg Config) *Engine {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:   cfg.Catalog,
		progress:  cfg.Progress,
		adaptive:  cfg.Adaptive,
		checker:   cfg.Checker,
		scorer:    cfg.Scorer,
		scheduler: cfg.Scheduler,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		logger:    logger,
	}
}

// GetAdaptiveSequence builds the next run of exercises for a student. With a
// target concept it prepends remediation for unmastered prerequisites and
// filters the target pool around the student's optimal difficulty. Without
// one it ranks the whole catalog.
func (e *Engine) GetAdaptiveSequence(ctx context.Context, studentID uuid.UUID, targetConcept string, count int) ([]*domain.Exercise, error) {
	if count <= 0 {
		count = DefaultCount
	}

	history, err := e.progress.History(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if targetConcept == "" {
		ranked := e.scorer.Rank(e.catalog.All(), history)
		return takeExercises(ranked, count), nil
	}

	var sequence []*domain.Exercise
	seen := make(map[string]bool)

	// Remediation first: top exercises for every unmastered prerequisite,
	// in the order the graph lists them.
	for _, concept := range e.checker.Unmastered(targetConcept, history) {
		ranked := e.scorer.Rank(e.catalog.ByConcept(concept), history)
		for _, ex := range takeExercises(ranked, prereqPerConcept) {
			if !seen[ex.ID] {
				seen[ex.ID] = true
				sequence = append(sequence, ex)
			}
		}
	}

	pool := e.catalog.ByConcept(targetConcept)
	if len(pool) == 0 {
		return sequence, nil
	}

	metrics, err := e.metricsForDifficulty(ctx, studentID, history, pool[0].NumericDifficulty())
	if err != nil {
		return nil, err
	}

	var filtered []*domain.Exercise
	for _, ex := range pool {
		diff := ex.NumericDifficulty() - metrics.OptimalDifficulty
		if diff >= -difficultyBand && diff <= difficultyBand {
			filtered = append(filtered, ex)
		}
	}

	ranked := e.scorer.Rank(filtered, history)
	added := 0
	for _, ex := range orderUnattemptedFirst(ranked, history) {
		if added >= count {
			break
		}
		if !seen[ex.ID] {
			seen[ex.ID] = true
			sequence = append(sequence, ex)
			added++
		}
	}
	return sequence, nil
}

// ScoreRecommendations ranks a candidate pool for a student. A nil pool
// means the whole catalog. Results are cached per student and pool when a
// cache is configured.
func (e *Engine) ScoreRecommendations(ctx context.Context, studentID uuid.UUID, pool []*domain.Exercise) ([]recommend.Scored, error) {
	if pool == nil {
		pool = e.catalog.All()
	}

	key := ""
	if e.cache != nil {
		epoch, err := e.cacheEpoch(ctx, studentID)
		if err == nil {
			key = recommendationKey(studentID, epoch, pool)
			if scored, ok := e.cachedScores(ctx, key); ok {
				return scored, nil
			}
		}
	}

	history, err := e.progress.History(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	scored := e.scorer.Rank(pool, history)

	if e.cache != nil && key != "" {
		e.storeScores(ctx, key, scored)
	}
	return scored, nil
}

// GetAdaptiveMetrics computes the student's adaptation metrics relative to
// one exercise's difficulty.
func (e *Engine) GetAdaptiveMetrics(ctx context.Context, studentID uuid.UUID, exerciseID string) (adaptive.Metrics, error) {
	ex, err := e.catalog.Get(exerciseID)
	if err != nil {
		return adaptive.Metrics{}, err
	}

	history, err := e.progress.History(ctx, studentID)
	if err != nil {
		return adaptive.Metrics{}, fmt.Errorf("load history: %w", err)
	}
	return e.metricsForDifficulty(ctx, studentID, history, ex.NumericDifficulty())
}

// CheckPrerequisites reports mastery for every direct prerequisite of a
// concept. A concept with no edges yields an empty list.
func (e *Engine) CheckPrerequisites(ctx context.Context, studentID uuid.UUID, concept string) ([]prereq.Status, error) {
	history, err := e.progress.History(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return e.checker.Check(concept, history), nil
}

// GetDueRevisions returns the student's due schedules, most overdue first.
func (e *Engine) GetDueRevisions(ctx context.Context, studentID uuid.UUID) ([]*revision.Schedule, error) {
	return e.scheduler.Due(ctx, studentID)
}

// RecordOutcome applies an attempt outcome: it folds the attempt into the
// progress aggregate and advances the revision schedule. The exercise must
// exist in the catalog.
func (e *Engine) RecordOutcome(ctx context.Context, studentID uuid.UUID, exerciseID string, outcome domain.AttemptOutcome) (*domain.ConceptProgress, error) {
	ex, err := e.catalog.Get(exerciseID)
	if err != nil {
		return nil, err
	}

	aggregate, err := e.progress.RecordAttempt(ctx, studentID, ex, outcome)
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	// The attempt is already folded into the progress aggregate at this
	// point, so a schedule version conflict must be resolved here: the
	// scheduler re-reads the fresh row on each pass. Bubbling the conflict
	// up would make the caller replay the whole outcome and double-count
	// the attempt.
	if err := e.updateSchedule(ctx, studentID, exerciseID, outcome); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	e.invalidateRecommendations(ctx, studentID)
	return aggregate, nil
}

// scheduleRetries bounds conflict retries on the schedule upsert.
const scheduleRetries = 3

func (e *Engine) updateSchedule(ctx context.Context, studentID uuid.UUID, exerciseID string, outcome domain.AttemptOutcome) error {
	var err error
	for i := 0; i < scheduleRetries; i++ {
		_, err = e.scheduler.RecordOutcome(ctx, studentID, exerciseID, outcome.Success, outcome.Quality)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

func (e *Engine) metricsForDifficulty(ctx context.Context, studentID uuid.UUID, history []domain.ConceptProgress, currentDifficulty float64) (adaptive.Metrics, error) {
	window, err := e.progress.RecentWindow(ctx, studentID, adaptive.WindowSize)
	if err != nil {
		return adaptive.Metrics{}, fmt.Errorf("load attempt window: %w", err)
	}
	return e.adaptive.Compute(window, history, currentDifficulty), nil
}

func takeExercises(scored []recommend.Scored, n int) []*domain.Exercise {
	if len(scored) > n {
		scored = scored[:n]
	}
	exercises := make([]*domain.Exercise, len(scored))
	for i, s := range scored {
		exercises[i] = s.Exercise
	}
	return exercises
}

// orderUnattemptedFirst partitions a ranked list so never-attempted
// exercises come first, preserving the scorer's order inside each half.
func orderUnattemptedFirst(scored []recommend.Scored, history []domain.ConceptProgress) []*domain.Exercise {
	attempted := make(map[string]bool, len(history))
	for i := range history {
		if history[i].Attempts > 0 {
			attempted[history[i].ExerciseID] = true
		}
	}

	out := make([]*domain.Exercise, 0, len(scored))
	for _, s := range scored {
		if !attempted[s.Exercise.ID] {
			out = append(out, s.Exercise)
		}
	}
	for _, s := range scored {
		if attempted[s.Exercise.ID] {
			out = append(out, s.Exercise)
		}
	}
	return out
}

// Cached recommendation entry. Exercises are stored by ID and resolved
// against the catalog on read so stale catalog entries invalidate naturally.
type cachedScore struct {
	ExerciseID string   `json:"exercise_id"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons"`
}

func (e *Engine) cacheEpoch(ctx context.Context, studentID uuid.UUID) (string, error) {
	key := "recommend:epoch:" + studentID.String()
	value, err := e.cache.Get(ctx, key)
	if err == nil {
		return string(value), nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return "", err
	}

	epoch := strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := e.cache.Set(ctx, key, []byte(epoch), 24*time.Hour); err != nil {
		return "", err
	}
	return epoch, nil
}

func (e *Engine) invalidateRecommendations(ctx context.Context, studentID uuid.UUID) {
	if e.cache == nil {
		return
	}
	// Dropping the epoch key orphans every cached pool for the student;
	// orphans age out by TTL.
	if err := e.cache.Delete(ctx, "recommend:epoch:"+studentID.String()); err != nil {
		e.logger.Warn("recommendation cache invalidation failed",
			"student_id", studentID, "error", err)
	}
}

func recommendationKey(studentID uuid.UUID, epoch string, pool []*domain.Exercise) string {
	h := fnv.New64a()
	for _, ex := range pool {
		h.Write([]byte(ex.ID))
		h.Write([]byte{0})
	}
	var b strings.Builder
	b.WriteString("recommend:")
	b.WriteString(studentID.String())
	b.WriteString(":")
	b.WriteString(epoch)
	b.WriteString(":")
	b.WriteString(strconv.FormatUint(h.Sum64(), 36))
	return b.String()
}

func (e *Engine) cachedScores(ctx context.Context, key string) ([]recommend.Scored, bool) {
	payload, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var entries []cachedScore
	if err := json.Unmarshal(payload, &entries); err != nil {
		e.logger.Warn("recommendation cache entry corrupt", "key", key, "error", err)
		return nil, false
	}

	scored := make([]recommend.Scored, 0, len(entries))
	for _, entry := range entries {
		ex, err := e.catalog.Get(entry.ExerciseID)
		if err != nil {
			return nil, false
		}
		scored = append(scored, recommend.Scored{
			Exercise: ex,
			Score:    entry.Score,
			Reasons:  entry.Reasons,
		})
	}
	return scored, true
}

func (e *Engine) storeScores(ctx context.Context, key string, scored []recommend.Scored) {
	entries := make([]cachedScore, len(scored))
	for i, s := range scored {
		entries[i] = cachedScore{
			ExerciseID: s.Exercise.ID,
			Score:      s.Score,
			Reasons:    s.Reasons,
		}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, payload, e.cacheTTL); err != nil {
		e.logger.Warn("recommendation cache write failed", "key", key, "error", err)
	}
}
