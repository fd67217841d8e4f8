package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ms-canteen/internal/models"
)

type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialInterval: 20 * time.Millisecond}
}

// Retry runs op until it succeeds, fails with a non-conflict error, or the
// attempts run out. Exhausted conflicts surface as models.ErrTransientFailure.
func Retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)

	attempts := 0
	var lastConflict error
	err := backoff.Retry(func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if IsConflict(err) {
			lastConflict = err
			return err
		}
		return backoff.Permanent(err)
	}, b)

	if err != nil && IsConflict(err) {
		return fmt.Errorf("%w: gave up after %d attempts (%v)", models.ErrTransientFailure, attempts, lastConflict)
	}
	return err
}
