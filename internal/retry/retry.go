// Package retry provides the single retry policy applied at every network
// and remote-storage call boundary: a fixed attempt budget with exponential
// backoff and no jitter. Every error is retried identically; classification
// of retryable vs non-retryable failures is intentionally absent (the retry
// budget is small enough that retrying a hopeless call is cheap, and
// misclassifying a transient one is not).
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy wraps fallible operations with bounded retry.
type Policy struct {
	// Attempts is the total attempt budget, first try included.
	Attempts int

	// InitialInterval is the sleep after the first failure; each subsequent
	// sleep doubles (2^attempt seconds with the default interval).
	InitialInterval time.Duration

	logger *zap.Logger
}

// Default returns the standard policy: 5 attempts, sleeps of 1, 2, 4 and 8
// seconds between them.
func Default(logger *zap.Logger) Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Policy{
		Attempts:        5,
		InitialInterval: time.Second,
		logger:          logger,
	}
}

// Do runs fn, retrying on any error until the attempt budget is exhausted.
// The last error is returned wrapped with the operation name. ctx cancelation
// stops the backoff sleep early and surfaces the context error.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Hour // effectively uncapped for a 5-attempt budget
	b.MaxElapsedTime = 0

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var wrapped backoff.BackOff = backoff.WithMaxRetries(b, uint64(attempts-1))
	wrapped = backoff.WithContext(wrapped, ctx)

	err := backoff.RetryNotify(fn, wrapped, func(err error, wait time.Duration) {
		p.logger.Warn("operation failed, retrying",
			zap.String("op", op),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
