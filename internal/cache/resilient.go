package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Resilient wraps a networked Cache with a circuit breaker and short
// retries. A tripped breaker or an exhausted retry degrades to a miss so
// callers fall back to recomputing instead of failing the request.
type Resilient struct {
	inner   Cache
	breaker circuitbreaker.CircuitBreaker[[]byte]
	retrier retry.Retry[[]byte]
	logger  *slog.Logger
}

// ResilientConfig tunes the resilience wrapper.
type ResilientConfig struct {
	// MaxAttempts bounds retries per operation (default: 2).
	MaxAttempts int

	// Logger receives breaker state changes.
	Logger *slog.Logger
}

// NewResilient wraps a cache with fortify resilience patterns.
func NewResilient(inner Cache, cfg ResilientConfig) *Resilient {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	r := &Resilient{inner: inner, logger: cfg.Logger}

	r.breaker = circuitbreaker.New[[]byte](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			if r.logger != nil {
				r.logger.Warn("cache circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			}
		},
	})

	r.retrier = retry.New[[]byte](retry.Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable: func(err error) bool {
			return !errors.Is(err, ErrMiss)
		},
	})

	return r
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	// A miss is a normal outcome and must not count against the breaker.
	var missed bool
	value, err := r.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		v, err := r.retrier.Do(ctx, func(ctx context.Context) ([]byte, error) {
			return r.inner.Get(ctx, key)
		})
		if errors.Is(err, ErrMiss) {
			missed = true
			return nil, nil
		}
		return v, err
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("cache get degraded to miss", "key", key, "error", err)
		}
		return nil, ErrMiss
	}
	if missed {
		return nil, ErrMiss
	}
	return value, nil
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, r.inner.Set(ctx, key, value, ttl)
	})
	if err != nil && r.logger != nil {
		r.logger.Warn("cache set dropped", "key", key, "error", err)
	}
	// Set failures are not surfaced; the cache is an optimization.
	return nil
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	_, err := r.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, r.inner.Delete(ctx, key)
	})
	if err != nil && r.logger != nil {
		r.logger.Warn("cache delete dropped", "key", key, "error", err)
	}
	return nil
}
