package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached: %s", msg)
}

func TestConcurrencyCeilingNeverExceeded(t *testing.T) {
	s := New(3, nil)

	var running, peak atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
				now := running.Add(1)
				for {
					old := peak.Load()
					if now <= old || peak.CompareAndSwap(old, now) {
						break
					}
				}
				<-release
				running.Add(-1)
				return nil, nil
			}, Options{})
			if err != nil {
				t.Errorf("Enqueue: %v", err)
			}
		}()
	}

	waitUntil(t, func() bool { return s.Status().Running == 3 }, "ceiling reached")
	if got := s.Status(); got.Queued != 9 {
		t.Errorf("Queued = %d, want 9", got.Queued)
	}
	close(release)
	wg.Wait()

	if peak.Load() > 3 {
		t.Errorf("observed %d simultaneous tasks, ceiling is 3", peak.Load())
	}
	if got := s.Status(); got.Running != 0 || got.Queued != 0 {
		t.Errorf("scheduler not drained: %+v", got)
	}
}

func TestDedupRunsActionOnce(t *testing.T) {
	s := New(4, nil)

	var executions atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	results := make(chan any, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
			executions.Add(1)
			close(started)
			<-release
			return "original", nil
		}, Options{Key: "emby_search_dune"})
		if err != nil {
			t.Errorf("first caller: %v", err)
		}
		results <- result
	}()

	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Equivalent but distinct action; must never run.
		result, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
			executions.Add(1)
			return "duplicate", nil
		}, Options{Key: "emby_search_dune"})
		if err != nil {
			t.Errorf("joined caller: %v", err)
		}
		results <- result
	}()

	waitUntil(t, func() bool { return s.Status().Pending == 1 }, "key in flight")
	close(release)
	wg.Wait()
	close(results)

	for result := range results {
		if result != "original" {
			t.Errorf("caller got %v, want original", result)
		}
	}
	if executions.Load() != 1 {
		t.Errorf("action executed %d times, want 1", executions.Load())
	}
	if s.Status().Pending != 0 {
		t.Error("dedup key not released after completion")
	}
}

func TestPriorityOrdersStarts(t *testing.T) {
	s := New(1, nil)

	var mu sync.Mutex
	var startOrder []string

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Enqueue(context.Background(), func(context.Context) (any, error) {
			<-release
			return nil, nil
		}, Options{})
	}()
	waitUntil(t, func() bool { return s.Status().Running == 1 }, "blocker running")

	enqueue := func(name string, priority, wantQueued int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Enqueue(context.Background(), func(context.Context) (any, error) {
				mu.Lock()
				startOrder = append(startOrder, name)
				mu.Unlock()
				return nil, nil
			}, Options{Priority: priority})
		}()
		waitUntil(t, func() bool { return s.Status().Queued == wantQueued }, "task queued")
	}

	enqueue("low", 1, 1)
	enqueue("medium", 2, 2)
	enqueue("high", 3, 3)

	close(release)
	wg.Wait()

	index := func(name string) int {
		for i, entry := range startOrder {
			if entry == name {
				return i
			}
		}
		return -1
	}
	if index("high") == -1 || index("low") == -1 {
		t.Fatalf("missing starts: %v", startOrder)
	}
	if index("high") > index("low") {
		t.Errorf("high started at %d, after low at %d", index("high"), index("low"))
	}
}

func TestFailureRejectsOnlyItsCallers(t *testing.T) {
	s := New(2, nil)

	boom := errors.New("upstream exploded")
	_, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
		return nil, boom
	}, Options{Key: "bad"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}

	// The scheduler keeps working afterwards.
	result, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
		return 42, nil
	}, Options{})
	if err != nil || result != 42 {
		t.Errorf("follow-up task = (%v, %v), want (42, nil)", result, err)
	}

	status := s.Status()
	if status.Running != 0 || status.Pending != 0 {
		t.Errorf("state not cleaned up: %+v", status)
	}
}

func TestPanicBecomesError(t *testing.T) {
	s := New(1, nil)

	_, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
		panic("unexpected fault")
	}, Options{})
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("err = %v, want panic error", err)
	}
}

func TestClearRejectsQueuedTasks(t *testing.T) {
	s := New(1, nil)

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	runnerErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
			<-release
			return nil, nil
		}, Options{Key: "running"})
		runnerErr <- err
	}()
	waitUntil(t, func() bool { return s.Status().Running == 1 }, "blocker running")

	queuedErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Enqueue(context.Background(), func(context.Context) (any, error) {
			return nil, nil
		}, Options{Key: "queued"})
		queuedErr <- err
	}()
	waitUntil(t, func() bool { return s.Status().Queued == 1 }, "task queued")

	s.Clear()

	if err := <-queuedErr; !errors.Is(err, ErrCleared) {
		t.Errorf("queued task err = %v, want ErrCleared", err)
	}
	status := s.Status()
	if status.Queued != 0 || status.Pending != 0 {
		t.Errorf("status after clear = %+v", status)
	}

	// The running task is unaffected and still resolves.
	close(release)
	wg.Wait()
	if err := <-runnerErr; err != nil {
		t.Errorf("running task err = %v, want nil", err)
	}
}

func TestEnqueueRespectsCallerContext(t *testing.T) {
	s := New(1, nil)

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Enqueue(context.Background(), func(context.Context) (any, error) {
			<-release
			return nil, nil
		}, Options{})
	}()
	waitUntil(t, func() bool { return s.Status().Running == 1 }, "blocker running")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Enqueue(ctx, func(context.Context) (any, error) {
		return nil, nil
	}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	close(release)
	wg.Wait()
}

func TestEnqueueTyped(t *testing.T) {
	s := New(2, nil)

	values, err := EnqueueTyped(context.Background(), s, func(context.Context) ([]string, error) {
		return []string{"x"}, nil
	}, Options{})
	if err != nil {
		t.Fatalf("EnqueueTyped: %v", err)
	}
	if len(values) != 1 || values[0] != "x" {
		t.Errorf("values = %v", values)
	}
}
