package services

import (
	"context"
	"errors"
	"log"
	"procurement/storage"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy bounds how often a contended write is attempted.
type retryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func defaultRetryPolicy(maxAttempts int) retryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

// retryOnContention runs fn until it succeeds, fails with a non-contention error, or the
// attempt budget is spent. Exhaustion is reported as *ConflictError.
func retryOnContention(ctx context.Context, op string, policy retryPolicy, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrContention) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, wait time.Duration) {
		contentionRetries.WithLabelValues(op).Inc()
		log.Printf("%s: contention on attempt %d, retrying in %s: %v", op, attempts, wait, err)
	})

	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrContention) {
		return &ConflictError{Op: op, Attempts: attempts, Err: err}
	}
	return err
}
