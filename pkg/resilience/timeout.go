package resilience

import (
	"context"
	"fmt"
	"time"
)

// Call runs fn under a derived deadline and returns as soon as either fn
// finishes or the deadline passes. fn keeps running in the background after
// a timeout and must honour ctx.
func Call[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(tctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-tctx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, timeout)
	}
}
