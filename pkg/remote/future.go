package remote

import (
	"context"
)

// Future holds the eventual result of an asynchronous call. Cancelling it
// cancels the context the call runs with.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Go runs fn on its own goroutine and returns a future for its result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) Cancel() {
	f.cancel()
}

// Await blocks until the result is ready or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
