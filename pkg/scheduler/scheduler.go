package scheduler

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSchedulerClosed  = errors.New("scheduler.errors.closed")
	ErrHandlerNotFound  = errors.New("scheduler.errors.handler_not_found")
	ErrAlreadyStarted   = errors.New("scheduler.errors.already_started")
	ErrNotStarted       = errors.New("scheduler.errors.not_started")
	ErrEmptyHandlerName = errors.New("scheduler.errors.empty_handler_name")
)

// Scheduler defers execution of a function. Implementations must be
// safe for concurrent use; a closed scheduler silently drops new work.
type Scheduler interface {
	// After runs fn once the delay elapses.
	After(ctx context.Context, d time.Duration, fn func(ctx context.Context))

	// At runs fn at the given time. Times in the past run immediately.
	At(ctx context.Context, t time.Time, fn func(ctx context.Context))
}
