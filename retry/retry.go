// Package retry runs fallible operations under a fixed, deterministic delay
// schedule. There is no jitter: parallelism across workers is bounded by the
// external partitioning, so predictable worst-case latency wins over
// thundering-herd avoidance.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Default schedule used by the feed fetch, the summarizer and the R2 upload.
var DefaultDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Slow schedule for the flakier GCS backend.
var SlowDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}

const (
	// DefaultAttempts bounds retries for most call sites.
	DefaultAttempts = 3
	// SlowAttempts bounds retries when paired with SlowDelays.
	SlowAttempts = 5
)

// Do runs op up to maxAttempts times. Between attempt i and i+1 it sleeps
// delays[i], or the schedule's last value once the schedule is exhausted.
// The last failure is returned as-is; a context cancellation during the
// sleep aborts the remaining attempts.
func Do(ctx context.Context, log *zap.Logger, name string, op func() error, maxAttempts int, delays []time.Duration) error {
	_, err := DoValue(ctx, log, name, func() (struct{}, error) {
		return struct{}{}, op()
	}, maxAttempts, delays)
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, log *zap.Logger, name string, op func() (T, error), maxAttempts int, delays []time.Duration) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}

		delay := delays[len(delays)-1]
		if attempt < len(delays) {
			delay = delays[attempt]
		}

		log.Warn("retrying after failure",
			zap.String("op", name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
