package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBackend is wrapped by errors from a remote cache or store.
var ErrBackend = errors.New("backend unavailable")

// RetryableError marks a transient failure.
type RetryableError struct{ Err error }

// Retryable wraps err so RetryWithBackoff will try again. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// backendError wraps a transport failure as a retryable ErrBackend.
func backendError(op string, err error) error {
	return Retryable(fmt.Errorf("%s: %w: %v", op, ErrBackend, err))
}

// retryDelay is the first backoff interval; it doubles per attempt.
var retryDelay = 200 * time.Millisecond

// RetryWithBackoff calls fn up to three times, backing off between
// attempts. Only Retryable errors are retried.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
