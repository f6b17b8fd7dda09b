// Package resilience wraps outbound calls (today only the ViaCEP lookup) in a
// bulkhead, a circuit breaker and retries with backoff.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as final. RetryWithBackoff stops at once and returns
// the unmarked error, so an unknown CEP costs one request.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// backoffFor returns the wait before retry number attempt+1: doubling from
// InitialBackoff plus up to 50% jitter.
func backoffFor(cfg Config, attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
	if half := int64(base / 2); half > 0 {
		return base + time.Duration(rand.Int63n(half))
	}
	return base
}

// RetryWithBackoff runs fn up to MaxRetries+1 times until it succeeds, returns
// a Permanent error, or ctx is done.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var p *permanentError
		if errors.As(lastErr, &p) {
			return p.err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffFor(cfg, attempt)):
		}
	}
	return lastErr
}

// NewCircuitBreaker opens after 5+ requests with a 60% failure ratio and
// half-opens after 10s. Errors for which isSuccessful returns true (an unknown
// CEP, say) do not count as failures; nil counts every error.
func NewCircuitBreaker(name string, isSuccessful func(error) bool) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
	})
}

// Bulkhead caps the number of in-flight calls to one upstream.
type Bulkhead struct {
	sem chan struct{}
}

func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot frees up or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) Release() {
	<-b.sem
}

// Guard bundles the three patterns for a single upstream.
type Guard struct {
	Breaker  *gobreaker.CircuitBreaker
	Bulkhead *Bulkhead
	Config   Config
}

func NewGuard(cb *gobreaker.CircuitBreaker, cfg Config) *Guard {
	return &Guard{Breaker: cb, Bulkhead: NewBulkhead(cfg.MaxConcurrency), Config: cfg}
}

// Call runs fn inside g: bulkhead slot first, then one breaker execution that
// retries fn with backoff. Breaker rejections come back as gobreaker errors.
func Call[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.Bulkhead.Acquire(ctx); err != nil {
		return zero, err
	}
	defer g.Bulkhead.Release()

	result, err := g.Breaker.Execute(func() (any, error) {
		var out T
		err := RetryWithBackoff(ctx, g.Config, func() error {
			var err error
			out, err = fn(ctx)
			return err
		})
		return out, err
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// Rejected reports whether err came from an open or saturated breaker.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
