package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerLifecycle(t *testing.T) {
	now := time.Unix(0, 0)
	var changes []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Second,
		OnStateChange:    func(_ string, _, to State) { changes = append(changes, to) },
	})
	cb.now = func() time.Time { return now }

	fail := func() error { return errBoom }
	succeed := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)

	now = now.Add(time.Second)
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, changes)
}

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("pg", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }

	cb.Execute(func() error { return errBoom })
	now = now.Add(2 * time.Second)
	cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustedAndNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, calls)

	calls = 0
	err = Retry(context.Background(), "op", RetryConfig{
		MaxAttempts: 5,
		Retryable:   func(error) bool { return false },
	}, func(context.Context) error {
		calls++
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour}, func(context.Context) error {
		return errBoom
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCall(t *testing.T) {
	v, err := Call(context.Background(), time.Second, "fast", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = Call(context.Background(), 5*time.Millisecond, "slow", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
