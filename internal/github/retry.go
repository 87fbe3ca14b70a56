// internal/github/retry.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// backoffCap bounds a single backoff delay regardless of attempt number.
const backoffCap = 30 * time.Second

// RetryPolicy resubmits a logical request when it fails with a retryable
// *Error, sleeping with bounded exponential backoff between attempts. Fatal
// kinds propagate on first occurrence. The policy holds no state across
// calls; the attempt counter is local to each Do invocation.
type RetryPolicy struct {
	maxAttempts int
	logger      *slog.Logger

	// Injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewRetryPolicy creates a policy that allows maxAttempts total submissions
// of a request before surfacing the last classified failure.
func NewRetryPolicy(maxAttempts int, logger *slog.Logger) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepContext,
		jitter:      rand.Float64,
	}
}

// Do runs fn until it succeeds, fails fatally, or the attempt ceiling is
// reached. The error returned after exhausting attempts is the last one fn
// produced, unchanged.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var apiErr *Error
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}
		if attempt >= p.maxAttempts {
			p.logger.Error("request failed after exhausting retries",
				"attempts", attempt,
				"kind", apiErr.Kind.String(),
				"status", apiErr.StatusCode,
			)
			return err
		}

		delay := p.backoff(attempt)
		p.logger.Warn("retryable request failure, backing off",
			"attempt", attempt,
			"kind", apiErr.Kind.String(),
			"status", apiErr.StatusCode,
			"delay", delay.String(),
		)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// backoff computes min(2^attempt seconds + jitter, 30s) where jitter is a
// uniform sub-second fraction.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	base := math.Pow(2, float64(attempt))
	if base > backoffCap.Seconds() {
		return backoffCap
	}
	delay := time.Duration(base*float64(time.Second)) + time.Duration(p.jitter()*float64(time.Second))
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
