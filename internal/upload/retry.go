package upload

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries an operation for transient failures only. It is a
// plain value so callers can test it without a network.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy matches the part-upload budget: 4 attempts,
// exponential backoff with jitter, base 500ms, capped at 4s.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		Base:        500 * time.Millisecond,
		Cap:         4 * time.Second,
		Retryable:   retryable,
	}
}

// Do runs op, retrying per the policy. Non-retryable errors and retry
// budget exhaustion surface the last error unchanged.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Base
	bo.MaxInterval = p.Cap
	bo.MaxElapsedTime = 0 // attempts bound the loop, not wall clock

	attempts := 0
	return backoff.Retry(func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		if attempts >= p.MaxAttempts {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
