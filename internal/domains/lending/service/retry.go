package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"library-backend/internal/domains/lending/model"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxAttempts  = 5
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	operation    string
}

// RetryWithExponentialBackoff runs fn until it succeeds, fails with an error
// other than ErrConcurrentUpdate, or maxAttempts is reached.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms plus up to 30% jitter.
func RetryWithExponentialBackoff(ctx context.Context, fn RetryableFunc, options ...RetryOption) error {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // jitter only
			backoff := delay + time.Duration(jitter)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !isRetryableError(lastErr) {
			return lastErr
		}

		log.Debug().
			Str("operation", config.operation).
			Int("attempt", attempt+1).
			Int("max_attempts", config.maxAttempts).
			Msg("[LENDING] Concurrent update, retrying")
	}

	log.Warn().
		Str("operation", config.operation).
		Int("attempts", config.maxAttempts).
		Msg("[LENDING] Retries exhausted")

	return lastErr
}

// Only version conflicts are retried. Everything else fails fast.
func isRetryableError(err error) bool {
	return errors.Is(err, model.ErrConcurrentUpdate)
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		config.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, ...
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		config.baseDelay = delay
		return nil
	}
}

func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}
		config.jitterFactor = factor
		return nil
	}
}

// WithOperation labels retry log lines.
func WithOperation(name string) RetryOption {
	return func(config *retryConfig) error {
		config.operation = name
		return nil
	}
}
