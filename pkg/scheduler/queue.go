package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler executes a named, payload-carrying task.
type Handler func(ctx context.Context, payload []byte) error

// Task is one unit of deferred work in the queue store.
type Task struct {
	ID        uuid.UUID
	Name      string
	Payload   []byte
	RunAt     time.Time
	CreatedAt time.Time

	// fn is set for tasks scheduled through After/At; such tasks bypass
	// the handler registry.
	fn func(ctx context.Context)
}

// QueueScheduler runs deferred tasks through an in-memory store and a
// claim loop with bounded concurrency. Besides the closure-based
// Scheduler interface it accepts named tasks dispatched to registered
// handlers, so producers and handler code can be wired independently.
type QueueScheduler struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]*Task
	handlers map[string]Handler

	pullInterval time.Duration
	sem          chan struct{}
	log          *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// QueueOption configures a QueueScheduler.
type QueueOption func(*QueueScheduler)

// WithPullInterval sets how often the claim loop scans for due tasks.
func WithPullInterval(d time.Duration) QueueOption {
	return func(s *QueueScheduler) {
		if d > 0 {
			s.pullInterval = d
		}
	}
}

// WithMaxConcurrent bounds how many tasks run at once.
func WithMaxConcurrent(n int) QueueOption {
	return func(s *QueueScheduler) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// WithQueueLogger sets the scheduler logger.
func WithQueueLogger(log *slog.Logger) QueueOption {
	return func(s *QueueScheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// NewQueueScheduler creates a stopped queue scheduler; call Start to
// begin claiming tasks.
func NewQueueScheduler(opts ...QueueOption) *QueueScheduler {
	s := &QueueScheduler{
		tasks:        make(map[uuid.UUID]*Task),
		handlers:     make(map[string]Handler),
		pullInterval: time.Second,
		sem:          make(chan struct{}, 4),
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterHandler registers the handler for a task name, replacing any
// previous registration.
func (s *QueueScheduler) RegisterHandler(name string, h Handler) error {
	if name == "" {
		return ErrEmptyHandlerName
	}
	if h == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
	return nil
}

// Enqueue stores a named task to run at the given time.
func (s *QueueScheduler) Enqueue(ctx context.Context, name string, payload []byte, runAt time.Time) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, ErrEmptyHandlerName
	}

	task := &Task{
		ID:        uuid.New(),
		Name:      name,
		Payload:   payload,
		RunAt:     runAt,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil && s.ctx.Err() != nil {
		return uuid.Nil, ErrSchedulerClosed
	}
	s.tasks[task.ID] = task
	return task.ID, nil
}

func (s *QueueScheduler) After(ctx context.Context, d time.Duration, fn func(ctx context.Context)) {
	s.At(ctx, time.Now().Add(d), fn)
}

func (s *QueueScheduler) At(ctx context.Context, t time.Time, fn func(ctx context.Context)) {
	if fn == nil {
		return
	}

	task := &Task{
		ID:        uuid.New(),
		RunAt:     t,
		CreatedAt: time.Now(),
		fn:        fn,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil && s.ctx.Err() != nil {
		return
	}
	s.tasks[task.ID] = task
}

// Pending reports how many tasks wait in the store.
func (s *QueueScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Start begins the claim loop.
func (s *QueueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.log.Info("queue scheduler started",
		slog.Duration("pull_interval", s.pullInterval),
		slog.Int("max_concurrent", cap(s.sem)),
	)
	return nil
}

// Stop cancels the claim loop and waits for running tasks.
func (s *QueueScheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("queue scheduler stopped")
	return nil
}

// run is the claim loop: every tick it claims due tasks while worker
// slots are free.
func (s *QueueScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.claimDue()
		}
	}
}

// claimDue drains due tasks into free worker slots.
func (s *QueueScheduler) claimDue() {
	for {
		select {
		case s.sem <- struct{}{}:
		default:
			// All slots busy, wait for the next tick.
			return
		}

		task := s.claim()
		if task == nil {
			<-s.sem
			return
		}

		s.wg.Add(1)
		go func(task *Task) {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.process(task)
		}(task)
	}
}

// claim removes and returns one due task, or nil.
func (s *QueueScheduler) claim() *Task {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		if !task.RunAt.After(now) {
			delete(s.tasks, id)
			return task
		}
	}
	return nil
}

func (s *QueueScheduler) process(task *Task) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task handler panicked",
				slog.String("task_id", task.ID.String()),
				slog.String("task_name", task.Name),
				slog.Any("panic", r),
			)
		}
	}()

	if task.fn != nil {
		task.fn(s.ctx)
		return
	}

	s.mu.Lock()
	handler, ok := s.handlers[task.Name]
	s.mu.Unlock()
	if !ok {
		s.log.Error("no handler registered for task",
			slog.String("task_id", task.ID.String()),
			slog.String("task_name", task.Name),
		)
		return
	}

	if err := handler(s.ctx, task.Payload); err != nil {
		s.log.Error("task failed",
			slog.String("task_id", task.ID.String()),
			slog.String("task_name", task.Name),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", fmt.Sprintf("%v", err)),
		)
		return
	}

	s.log.Debug("task completed",
		slog.String("task_id", task.ID.String()),
		slog.String("task_name", task.Name),
		slog.Duration("duration", time.Since(start)),
	)
}

var _ Scheduler = (*QueueScheduler)(nil)
