package delivery

import (
	"context"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Async executes fn on its own goroutine and returns a Future for its
// result. A context cancelled before the goroutine starts short-circuits
// with the context error.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// WaitAll waits for every future to complete and returns their results
// in order. Unlike a short-circuiting join, it never abandons in-flight
// work: all sends finish before the caller decides the overall outcome.
// Per-future errors come back positionally alongside the results.
func WaitAll[U any](futures ...*Future[U]) ([]U, []error) {
	results := make([]U, len(futures))
	errs := make([]error, len(futures))
	for i, f := range futures {
		results[i], errs[i] = f.Await()
	}
	return results, errs
}
