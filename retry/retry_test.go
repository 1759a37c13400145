package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var testDelays = []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}

func TestDoReturnsImmediatelyOnSuccess(t *testing.T) {
	calls := 0

	err := Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		return nil
	}, 3, testDelays)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	lastErr := errors.New("attempt 3 failed")

	err := Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		if calls == 3 {
			return lastErr
		}
		return errors.New("earlier failure")
	}, 3, testDelays)

	assert.Equal(t, 3, calls)
	assert.Equal(t, lastErr, err)
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	calls := 0

	value, err := DoValue(context.Background(), zap.NewNop(), "op", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "done", nil
	}, 3, testDelays)

	assert.NoError(t, err)
	assert.Equal(t, "done", value)
	assert.Equal(t, 3, calls)
}

func TestDoSleepsPerSchedule(t *testing.T) {
	delays := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}
	start := time.Now()

	_ = Do(context.Background(), zap.NewNop(), "op", func() error {
		return errors.New("always fails")
	}, 3, delays)

	// Two sleeps between three attempts: d0 + d1.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestDoReusesLastDelayWhenScheduleExhausted(t *testing.T) {
	calls := 0
	start := time.Now()

	_ = Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		return errors.New("always fails")
	}, 4, []time.Duration{10 * time.Millisecond})

	assert.Equal(t, 4, calls)
	// Three sleeps, each reusing the schedule's only value.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDoAbortsSleepOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, zap.NewNop(), "op", func() error {
		calls++
		return errors.New("always fails")
	}, 3, []time.Duration{time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
