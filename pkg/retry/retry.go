// Package retry implements bounded retry with exponential backoff and
// jitter for external calls.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes one retry regime. The zero value is not usable; use
// Default or construct explicitly.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64

	// Jitter is the symmetric fractional spread applied to each delay,
	// e.g. 0.2 draws uniformly from [0.8d, 1.2d].
	Jitter float64

	// Retryable decides whether an error is worth another attempt. Nil
	// means every error is retryable.
	Retryable func(error) bool
}

// Default is the standard external-call policy: three attempts, 1s base
// delay doubling each attempt, 20% jitter.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		Jitter:      0.2,
	}
}

// Do runs fn up to p.MaxAttempts times, sleeping between attempts. It
// stops early when fn succeeds, when the error is not retryable, or when
// ctx is done. A per-call deadline expiring inside fn is a transport
// failure like any other and goes back through the retry path; only the
// caller's ctx ends the loop. The returned error is the last attempt's
// error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be >= 1, got %d", p.MaxAttempts)
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// delay computes the sleep before attempt+1: BaseDelay * Factor^(attempt-1),
// spread by Jitter.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Factor
	}
	if p.Jitter > 0 {
		spread := 1 + p.Jitter*(2*rand.Float64()-1)
		d *= spread
	}
	return time.Duration(d)
}
