package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"shelfmark/internal/logging"
)

// ErrCleared rejects tasks that were still queued when Clear ran. Callers
// get a definite error instead of a wait that never ends.
var ErrCleared = errors.New("scheduler: queued task cleared")

// DefaultMaxConcurrent bounds simultaneous task execution when no ceiling is
// configured.
const DefaultMaxConcurrent = 6

// Options control a single enqueue.
type Options struct {
	// Key coalesces concurrent identical work: while a task with this key is
	// queued or running, further enqueues join it. Empty disables dedup.
	Key string
	// Priority orders queued tasks; higher starts earlier. Default 0.
	Priority int
}

// Status is a point-in-time snapshot of scheduler state.
type Status struct {
	Running       int
	Queued        int
	Pending       int
	MaxConcurrent int
}

type task struct {
	ctx      context.Context
	fn       func(context.Context) (any, error)
	key      string
	priority int

	done   chan struct{}
	result any
	err    error
}

// Scheduler runs tasks under a concurrency ceiling.
type Scheduler struct {
	logger        *slog.Logger
	maxConcurrent int

	mu       sync.Mutex
	queue    []*task
	running  int
	inflight map[string]*task
}

// New creates a Scheduler with the given ceiling (DefaultMaxConcurrent when
// non-positive).
func New(maxConcurrent int, logger *slog.Logger) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Scheduler{
		logger:        logging.NewComponentLogger(logger, "scheduler"),
		maxConcurrent: maxConcurrent,
		inflight:      make(map[string]*task),
	}
}

// Enqueue submits fn and blocks until it completes, the task is cleared, or
// ctx is done. Callers joining an in-flight key receive the outcome of the
// single underlying execution.
func (s *Scheduler) Enqueue(ctx context.Context, fn func(context.Context) (any, error), opts Options) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if opts.Key != "" {
		if existing, ok := s.inflight[opts.Key]; ok {
			s.mu.Unlock()
			s.logger.Debug("request deduped", logging.String(logging.FieldCacheKey, opts.Key))
			return wait(ctx, existing)
		}
	}

	t := &task{
		ctx:      ctx,
		fn:       fn,
		key:      opts.Key,
		priority: opts.Priority,
		done:     make(chan struct{}),
	}
	s.queue = append(s.queue, t)
	if t.key != "" {
		s.inflight[t.key] = t
	}
	s.dispatchLocked()
	s.mu.Unlock()

	return wait(ctx, t)
}

func wait(ctx context.Context, t *task) (any, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatchLocked starts queued tasks while capacity remains. Callers must
// hold s.mu.
func (s *Scheduler) dispatchLocked() {
	if len(s.queue) > 1 {
		sort.SliceStable(s.queue, func(i, j int) bool {
			return s.queue[i].priority > s.queue[j].priority
		})
	}
	for s.running < s.maxConcurrent && len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.running++
		go s.execute(t)
	}
}

func (s *Scheduler) execute(t *task) {
	result, err := runProtected(t.ctx, t.fn)

	s.mu.Lock()
	s.running--
	if t.key != "" && s.inflight[t.key] == t {
		delete(s.inflight, t.key)
	}
	t.result, t.err = result, err
	close(t.done)
	s.dispatchLocked()
	s.mu.Unlock()
}

func runProtected(ctx context.Context, fn func(context.Context) (any, error)) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Status reports running/queued counts, the number of in-flight dedup keys
// and the configured ceiling.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:       s.running,
		Queued:        len(s.queue),
		Pending:       len(s.inflight),
		MaxConcurrent: s.maxConcurrent,
	}
}

// Clear drops every queued (not yet started) task, rejecting its callers
// with ErrCleared, and empties the dedup table. Running tasks are unaffected
// and still resolve normally.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	cleared := s.queue
	s.queue = nil
	s.inflight = make(map[string]*task)
	for _, t := range cleared {
		t.err = ErrCleared
		close(t.done)
	}
	s.mu.Unlock()

	if len(cleared) > 0 {
		s.logger.Debug("cleared queued tasks", logging.Int("count", len(cleared)))
	}
}

// EnqueueTyped is a typed wrapper over Enqueue.
func EnqueueTyped[T any](ctx context.Context, s *Scheduler, fn func(context.Context) (T, error), opts Options) (T, error) {
	result, err := s.Enqueue(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("scheduler: unexpected result type %T", result)
	}
	return typed, nil
}
