// Package retry re-runs operations that lost an optimistic concurrency race.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerd/internal/domain"
)

// Retrier re-runs an operation with exponential backoff while its error is retryable.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	retryable       func(error) bool
	logger          zerolog.Logger
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithIntervals overrides the backoff schedule.
func WithIntervals(initial, max, maxElapsed time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = initial
		r.maxInterval = max
		r.maxElapsedTime = maxElapsed
	}
}

// WithClassifier overrides which errors are retried.
func WithClassifier(retryable func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = retryable
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// NewConflictRetrier retries domain.ErrConflict up to maxRetries times.
// A maxRetries of zero runs the operation exactly once.
func NewConflictRetrier(maxRetries int, opts ...Option) *Retrier {
	r := &Retrier{
		maxRetries:      maxRetries,
		initialInterval: 10 * time.Millisecond,
		maxInterval:     500 * time.Millisecond,
		maxElapsedTime:  5 * time.Second,
		retryable:       IsConflict,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry executes operation, retrying retryable errors with exponential backoff.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !r.retryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().Err(err).Int("retry", retryCount).Msg("commit lost a concurrent race, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// IsConflict reports whether err is a lost optimistic concurrency race.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
