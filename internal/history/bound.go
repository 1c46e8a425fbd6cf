package history

import (
	"context"
	"errors"
	"time"
)

// callBounded runs fn with an upper bound on how long the caller waits. When
// the bound expires the call returns ErrTimeout without waiting for fn; when
// the parent context ends first, fn is awaited so it can report partial state.
func callBounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeoutCause(ctx, d, ErrTimeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return settle(ctx, r.v, r.err)
	case <-ctx.Done():
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			var zero T
			return zero, ErrTimeout
		}
		r := <-done
		return r.v, r.err
	}
}

// settle keeps a finished result even when the bound expired meanwhile. Only
// a failure under an expired bound is reported as ErrTimeout.
func settle[T any](ctx context.Context, v T, err error) (T, error) {
	if err != nil && errors.Is(context.Cause(ctx), ErrTimeout) {
		var zero T
		return zero, ErrTimeout
	}
	return v, err
}
