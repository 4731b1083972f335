// Package utils provides retry logic with exponential backoff for
// transient failures. It supports configurable retry policies, jitter
// to prevent thundering herd, and context-aware cancellation. Use this
// for resilient external service calls and store connections.
package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryFunc is a function that can be retried. It should return an
// error if the operation failed and nil on success.
type RetryFunc func() error

// RetryConfig holds configuration for retry behavior with exponential
// backoff.
type RetryConfig struct {
	MaxAttempts  int           // Maximum number of attempts (including first try)
	InitialDelay time.Duration // Delay before first retry
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Exponential backoff multiplier
	Jitter       bool          // Add random jitter to delays
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps an error so Retry and RetryWithResult abort
// immediately instead of backing off. Use it for failures that repeat
// deterministically, like an API rejecting the request.
//
// Example:
//
//	if resp.StatusCode >= 400 {
//	    return nil, utils.Permanent(apiErr)
//	}
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// isPermanent reports whether err (or anything it wraps) was marked
// with Permanent, returning the unwrapped error when it was.
func isPermanent(err error) (error, bool) {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err, true
	}
	return err, false
}

// StoreRetryConfig returns a retry configuration for store
// connections. Redis often has transient failures during startup or
// network blips.
//
// Configuration: 5 attempts, 50ms initial delay, 2s cap, jitter on.
func StoreRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// UpstreamRetryConfig returns a retry configuration for platform API
// calls. The upstream may be briefly unavailable or rate limited.
//
// Configuration: 3 attempts, 200ms initial delay, 5s cap, jitter on.
func UpstreamRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retry executes a function with retry logic and exponential backoff.
// The function is retried until it succeeds, max attempts is reached,
// or the context is cancelled.
//
// The delay between retries follows exponential backoff:
//
//	delay = initialDelay * multiplier^(attempt-1)
//
// Optional jitter adds random variance (±25%) to prevent thundering
// herd.
//
// Example:
//
//	err := utils.Retry(ctx, utils.StoreRetryConfig(), func() error {
//	    return client.Ping(ctx).Err()
//	})
func Retry(ctx context.Context, config RetryConfig, fn RetryFunc) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Int("max_attempts", config.MaxAttempts).
					Msg("Operation succeeded after retry")
			}
			return nil
		}

		if unwrapped, permanent := isPermanent(err); permanent {
			log.Debug().Err(unwrapped).Int("attempt", attempt).Msg("Error is not retryable, aborting")
			return unwrapped
		}

		lastErr = err

		if attempt >= config.MaxAttempts {
			log.Warn().
				Err(err).
				Int("attempts", attempt).
				Msg("Max retry attempts reached")
			break
		}

		delay := calculateDelay(attempt, config)

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", config.MaxAttempts).
			Dur("delay", delay).
			Msg("Operation failed, retrying after delay")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retries exceeded (%d attempts): %w", config.MaxAttempts, lastErr)
}

// RetryWithResult executes a function with retry logic and returns a
// result. Generic version of Retry for operations that produce a
// value.
//
// Example:
//
//	resp, err := utils.RetryWithResult(ctx, utils.UpstreamRetryConfig(), func() (*http.Response, error) {
//	    return httpClient.Do(req)
//	})
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		res, err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Int("max_attempts", config.MaxAttempts).
					Msg("Operation succeeded after retry")
			}
			return res, nil
		}

		if unwrapped, permanent := isPermanent(err); permanent {
			log.Debug().Err(unwrapped).Int("attempt", attempt).Msg("Error is not retryable, aborting")
			return result, unwrapped
		}

		lastErr = err

		if attempt >= config.MaxAttempts {
			break
		}

		delay := calculateDelay(attempt, config)

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", config.MaxAttempts).
			Dur("delay", delay).
			Msg("Operation failed, retrying after delay")

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return result, fmt.Errorf("max retries exceeded (%d attempts): %w", config.MaxAttempts, lastErr)
}

// calculateDelay calculates the delay before the next retry using
// exponential backoff, capped at MaxDelay, with optional ±25% jitter.
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitter := delay * 0.25 * (rand.Float64()*2 - 1)
		delay += jitter
		if delay < 0 {
			delay = float64(config.InitialDelay)
		}
	}

	return time.Duration(delay)
}
