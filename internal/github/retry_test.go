// internal/github/retry_test.go
package github

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(maxAttempts int) (*RetryPolicy, *[]time.Duration) {
	p := NewRetryPolicy(maxAttempts, discardLogger())
	delays := new([]time.Duration)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	p.jitter = func() float64 { return 0 }
	return p, delays
}

func TestRetryPolicy_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds on first try without sleeping", func(t *testing.T) {
		p, delays := newTestPolicy(3)
		calls := 0

		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *delays)
	})

	t.Run("retries a retryable failure and succeeds", func(t *testing.T) {
		p, delays := newTestPolicy(3)
		calls := 0

		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &Error{Kind: KindTransient, StatusCode: 503}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Len(t, *delays, 2)
	})

	t.Run("surfaces the last failure after exhausting attempts", func(t *testing.T) {
		p, delays := newTestPolicy(3)
		calls := 0

		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			return &Error{Kind: KindRateLimit, StatusCode: 429}
		})

		require.Error(t, err)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindRateLimit, apiErr.Kind)
		assert.Equal(t, 3, calls, "should have made exactly maxAttempts requests")
		assert.Len(t, *delays, 2, "no sleep after the final attempt")
	})

	t.Run("never retries a fatal failure", func(t *testing.T) {
		for _, kind := range []ErrorKind{KindAuthentication, KindForbidden, KindNotFound, KindValidation, KindAPI} {
			p, delays := newTestPolicy(5)
			calls := 0

			err := p.Do(ctx, func(ctx context.Context) error {
				calls++
				return &Error{Kind: kind, StatusCode: 400}
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls, "kind %s must not be retried", kind)
			assert.Empty(t, *delays)
		}
	})

	t.Run("never retries an unclassified error", func(t *testing.T) {
		p, _ := newTestPolicy(5)
		calls := 0

		err := p.Do(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("decode failure")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Run("grows exponentially with zero jitter", func(t *testing.T) {
		p, _ := newTestPolicy(10)
		assert.Equal(t, 2*time.Second, p.backoff(1))
		assert.Equal(t, 4*time.Second, p.backoff(2))
		assert.Equal(t, 8*time.Second, p.backoff(3))
		assert.Equal(t, 16*time.Second, p.backoff(4))
	})

	t.Run("is monotonically non-decreasing and capped", func(t *testing.T) {
		p := NewRetryPolicy(10, discardLogger())
		p.jitter = func() float64 { return 0.999 }

		prev := time.Duration(0)
		for attempt := 1; attempt <= 20; attempt++ {
			d := p.backoff(attempt)
			assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
			assert.LessOrEqual(t, d, backoffCap, "attempt %d", attempt)
			prev = d
		}
		assert.Equal(t, backoffCap, p.backoff(20))
	})
}
