package scheduler

import (
	"context"
	"sync"
	"time"
)

// TimerScheduler runs deferred functions on in-process timers. Work
// scheduled here does not survive a restart; pair it with persisted
// state (retry timestamps, scheduled_for columns) that a startup sweep
// can re-drive.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[*timerHandle]struct{}
	wg     sync.WaitGroup
	closed bool
}

type timerHandle struct {
	timer *time.Timer
}

// NewTimerScheduler creates an empty timer scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[*timerHandle]struct{}),
	}
}

func (s *TimerScheduler) After(ctx context.Context, d time.Duration, fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	h := &timerHandle{}
	s.wg.Add(1)
	// The callback takes the mutex first, so it cannot observe h before
	// registration completes even for a zero delay.
	h.timer = time.AfterFunc(d, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.timers, h)
		closed := s.closed
		s.mu.Unlock()

		if closed || ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	s.timers[h] = struct{}{}
}

func (s *TimerScheduler) At(ctx context.Context, t time.Time, fn func(ctx context.Context)) {
	s.After(ctx, time.Until(t), fn)
}

// Close stops pending timers and waits for callbacks already running.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for h := range s.timers {
		if h.timer.Stop() {
			// Callback will never run, release its wait-group slot.
			s.wg.Done()
		}
		delete(s.timers, h)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

var _ Scheduler = (*TimerScheduler)(nil)
