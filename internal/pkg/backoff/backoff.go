// Package backoff provides exponential-backoff-with-jitter retry logic for
// transient failures in the Object Store Adapter and the job queue.
package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy configures a retry run.
type Policy struct {
	MaxAttempts int           // total attempts including the first, default 3
	BaseDelay   time.Duration // default 2s, matches the queue's redelivery policy
	MaxDelay    time.Duration // default 30s
}

// DefaultPolicy matches the queue's documented retry contract: initial 2s,
// up to 3 attempts.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// Retryable is satisfied by errors that should trigger another attempt.
// Implementations wrap transient I/O errors (network, timeout, 5xx, 429-style
// throttling) from their respective backends.
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err should trigger another attempt. Errors that
// don't implement Retryable are treated as non-retryable (permanent) by
// default — callers that want "retry anything" semantics should wrap their
// error type accordingly.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	return errors.As(err, &r) && r.Retryable()
}

// Do runs fn up to p.MaxAttempts times, sleeping with exponential backoff and
// full jitter between attempts. It stops retrying as soon as fn returns a nil
// error or a non-retryable error, or when ctx is done. The error from the
// final attempt is returned.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		if attempt > 0 {
			delay := calculateDelay(p, attempt)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				if lastErr != nil {
					return lastErr
				}
				return ctx.Err()
			}
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}
	return lastErr
}

// calculateDelay returns the backoff duration for the given retry attempt
// (1-indexed: attempt 1 is the first retry after the initial try).
// Exponential backoff with full jitter: random(0, min(maxDelay, baseDelay * 2^(attempt-1))),
// never less than 100ms.
func calculateDelay(p Policy, attempt int) time.Duration {
	expDelay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if expDelay > float64(p.MaxDelay) {
		expDelay = float64(p.MaxDelay)
	}
	jittered := time.Duration(rand.Float64() * expDelay)
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}
	return jittered
}
